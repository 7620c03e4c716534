package eval

import (
	"testing"
)

func near(got, want float64) bool {
	diff := got - want
	return diff <= 0.01 && diff >= -0.01
}

func TestPrecisionAtK(t *testing.T) {
	cases := []struct {
		name      string
		retrieved []string
		relevant  []string
		wantP     float64
	}{
		{"perfect", []string{"a", "b", "c"}, []string{"a", "b", "c"}, 1.0},
		{"partial", []string{"a", "b", "x"}, []string{"a", "b", "c"}, 0.666},
		{"none", []string{"x", "y", "z"}, []string{"a", "b", "c"}, 0.0},
		{"empty_retrieved", []string{}, []string{"a", "b"}, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if p := PrecisionAtK(tc.retrieved, tc.relevant); !near(p, tc.wantP) {
				t.Errorf("precision = %.3f, want %.3f", p, tc.wantP)
			}
		})
	}
}

func TestRecallAtK(t *testing.T) {
	cases := []struct {
		name      string
		retrieved []string
		relevant  []string
		wantR     float64
	}{
		{"perfect", []string{"a", "b", "c"}, []string{"a", "b", "c"}, 1.0},
		{"partial", []string{"a", "b", "x"}, []string{"a", "b", "c"}, 0.666},
		{"none", []string{"x", "y", "z"}, []string{"a", "b", "c"}, 0.0},
		{"empty_relevant", []string{"a", "b"}, []string{}, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if r := RecallAtK(tc.retrieved, tc.relevant); !near(r, tc.wantR) {
				t.Errorf("recall = %.3f, want %.3f", r, tc.wantR)
			}
		})
	}
}

func TestReciprocalRank(t *testing.T) {
	cases := []struct {
		name      string
		retrieved []string
		relevant  []string
		wantRR    float64
	}{
		{"first", []string{"a", "b", "c"}, []string{"a"}, 1.0},
		{"second", []string{"x", "a", "c"}, []string{"a"}, 0.5},
		{"third", []string{"x", "y", "a"}, []string{"a"}, 0.333},
		{"earliest of several", []string{"x", "c", "a"}, []string{"a", "c"}, 0.5},
		{"missing", []string{"x", "y", "z"}, []string{"a"}, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rr := ReciprocalRank(tc.retrieved, tc.relevant); !near(rr, tc.wantRR) {
				t.Errorf("RR = %.3f, want %.3f", rr, tc.wantRR)
			}
		})
	}
}

func TestAveragePrecision(t *testing.T) {
	cases := []struct {
		name      string
		retrieved []string
		relevant  []string
		wantAP    float64
	}{
		{"perfect", []string{"a", "b"}, []string{"a", "b"}, 1.0},
		// hits at ranks 1 and 3: (1/1 + 2/3) / 2
		{"gap", []string{"a", "x", "b"}, []string{"a", "b"}, 0.833},
		// one of two relevant found at rank 2: (1/2) / 2
		{"missed", []string{"x", "a"}, []string{"a", "b"}, 0.25},
		{"empty_relevant", []string{"a"}, nil, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if ap := AveragePrecision(tc.retrieved, tc.relevant); !near(ap, tc.wantAP) {
				t.Errorf("AP = %.3f, want %.3f", ap, tc.wantAP)
			}
		})
	}
}

func TestNDCG(t *testing.T) {
	cases := []struct {
		name     string
		scores   []float64
		ideal    []float64
		wantNDCG float64
	}{
		{"perfect", []float64{3, 2, 1}, []float64{3, 2, 1}, 1.0},
		{"reversed", []float64{1, 2, 3}, []float64{3, 2, 1}, 0.790},
		{"zeros", []float64{0, 0, 0}, []float64{3, 2, 1}, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if ndcg := NDCG(tc.scores, tc.ideal); !near(ndcg, tc.wantNDCG) {
				t.Errorf("NDCG = %.3f, want %.3f", ndcg, tc.wantNDCG)
			}
		})
	}
}

func TestGradedNDCG(t *testing.T) {
	gains := map[string]float64{"a": 3, "b": 2, "c": 1}

	if got := GradedNDCG([]string{"a", "b", "c"}, gains); !near(got, 1.0) {
		t.Errorf("ideal order = %.3f, want 1", got)
	}
	if got := GradedNDCG([]string{"c", "b", "a"}, gains); !near(got, 0.790) {
		t.Errorf("reversed = %.3f, want 0.790", got)
	}
	// Truncated ideal: best single document is "a".
	if got := GradedNDCG([]string{"a"}, gains); !near(got, 1.0) {
		t.Errorf("top-1 = %.3f, want 1", got)
	}
	if got := GradedNDCG(nil, gains); got != 0 {
		t.Errorf("empty = %.3f, want 0", got)
	}
}
