// Package eval scores ranked label lists against relevance judgments.
package eval

import (
	"math"
	"sort"
)

func toSet(labels []string) map[string]bool {
	set := make(map[string]bool, len(labels))
	for _, l := range labels {
		set[l] = true
	}
	return set
}

func countHits(retrieved []string, relevant map[string]bool) int {
	hits := 0
	for _, r := range retrieved {
		if relevant[r] {
			hits++
		}
	}
	return hits
}

// PrecisionAtK is the share of retrieved labels that are relevant. Callers
// truncate retrieved to k.
func PrecisionAtK(retrieved, relevant []string) float64 {
	if len(retrieved) == 0 {
		return 0
	}
	return float64(countHits(retrieved, toSet(relevant))) / float64(len(retrieved))
}

func RecallAtK(retrieved, relevant []string) float64 {
	if len(relevant) == 0 {
		return 0
	}
	return float64(countHits(retrieved, toSet(relevant))) / float64(len(relevant))
}

// ReciprocalRank is 1/rank of the first relevant label, or 0.
func ReciprocalRank(retrieved, relevant []string) float64 {
	set := toSet(relevant)
	for i, r := range retrieved {
		if set[r] {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

func AveragePrecision(retrieved, relevant []string) float64 {
	if len(relevant) == 0 {
		return 0
	}
	set := toSet(relevant)
	hits := 0
	sum := 0.0
	for i, r := range retrieved {
		if set[r] {
			hits++
			sum += float64(hits) / float64(i+1)
		}
	}
	return sum / float64(len(set))
}

// NDCG normalizes the DCG of scores by the DCG of ideal.
func NDCG(scores, ideal []float64) float64 {
	dcg := calculateDCG(scores)
	idcg := calculateDCG(ideal)
	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

func calculateDCG(scores []float64) float64 {
	dcg := 0.0
	for i, score := range scores {
		dcg += score / math.Log2(float64(i+2))
	}
	return dcg
}

// GradedNDCG computes NDCG@len(retrieved) from per-label gains.
func GradedNDCG(retrieved []string, gains map[string]float64) float64 {
	scores := make([]float64, len(retrieved))
	for i, r := range retrieved {
		scores[i] = gains[r]
	}

	ideal := make([]float64, 0, len(gains))
	for _, g := range gains {
		ideal = append(ideal, g)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(ideal)))
	if len(ideal) > len(retrieved) {
		ideal = ideal[:len(retrieved)]
	}

	return NDCG(scores, ideal)
}
