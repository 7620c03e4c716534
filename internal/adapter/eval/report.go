package eval

import "fmt"

// QueryScore holds the metrics of one topic.
type QueryScore struct {
	ID        string  `json:"id"`
	Retrieved int     `json:"retrieved"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	RR        float64 `json:"reciprocal_rank"`
	AP        float64 `json:"average_precision"`
	NDCG      float64 `json:"ndcg"`
}

type Report struct {
	K       int          `json:"k"`
	Queries []QueryScore `json:"queries"`
	Mean    QueryScore   `json:"mean"`
}

// Evaluate scores ranked label lists against topics. rankings[i] belongs to
// topics[i] and is truncated to k when k > 0.
func Evaluate(topics []Topic, rankings [][]string, k int) (*Report, error) {
	if len(topics) != len(rankings) {
		return nil, fmt.Errorf("%d topics but %d rankings", len(topics), len(rankings))
	}

	report := &Report{K: k, Queries: make([]QueryScore, 0, len(topics))}
	for i, topic := range topics {
		retrieved := rankings[i]
		if k > 0 && len(retrieved) > k {
			retrieved = retrieved[:k]
		}
		relevant := topic.RelevantLabels()

		score := QueryScore{
			ID:        topic.ID,
			Retrieved: len(retrieved),
			Precision: PrecisionAtK(retrieved, relevant),
			Recall:    RecallAtK(retrieved, relevant),
			RR:        ReciprocalRank(retrieved, relevant),
			AP:        AveragePrecision(retrieved, relevant),
			NDCG:      GradedNDCG(retrieved, topic.Gains()),
		}
		report.Queries = append(report.Queries, score)

		report.Mean.Retrieved += score.Retrieved
		report.Mean.Precision += score.Precision
		report.Mean.Recall += score.Recall
		report.Mean.RR += score.RR
		report.Mean.AP += score.AP
		report.Mean.NDCG += score.NDCG
	}

	report.Mean.ID = "mean"
	if n := float64(len(topics)); n > 0 {
		report.Mean.Precision /= n
		report.Mean.Recall /= n
		report.Mean.RR /= n
		report.Mean.AP /= n
		report.Mean.NDCG /= n
	}
	return report, nil
}
