package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"vsm/internal/adapter/eval"
	"vsm/internal/domain"
)

var (
	evalTopics string
	evalTopK   int
	evalJSON   bool
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Score rankings against relevance judgments",
	Long: `Run every query of a topics file and report precision, recall, reciprocal
rank, average precision and NDCG at k.

Topics file:
  queries:
    - id: q1
      text: distributed storage
      relevant: [papers/gfs.txt]
      grades: {papers/bigtable.txt: 2}`,
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringVar(&evalTopics, "topics", "", "topics file (required)")
	evalCmd.Flags().IntVarP(&evalTopK, "top-k", "k", 10, "evaluation depth")
	evalCmd.Flags().BoolVar(&evalJSON, "json", false, "output as JSON")
	evalCmd.MarkFlagRequired("topics")
}

func runEval(cmd *cobra.Command, args []string) error {
	topics, err := eval.LoadTopics(evalTopics)
	if err != nil {
		return err
	}

	st, err := openIndex()
	if err != nil {
		return err
	}
	defer st.Close()

	retrieveUC, err := newRetrieveUseCase(st, nil)
	if err != nil {
		return err
	}

	reqs := make([]domain.SearchRequest, len(topics))
	for i, t := range topics {
		reqs[i] = domain.SearchRequest{Query: t.Text, TopK: evalTopK}
	}
	responses, err := retrieveUC.RetrieveBatch(cmd.Context(), reqs)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	rankings := make([][]string, len(responses))
	for i, resp := range responses {
		for _, r := range resp.Results {
			rankings[i] = append(rankings[i], r.Label)
		}
	}

	report, err := eval.Evaluate(topics, rankings, evalTopK)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if evalJSON {
		output, _ := json.MarshalIndent(report, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	fmt.Fprintf(out, "%-16s %6s %6s %6s %6s %6s\n", "query", fmt.Sprintf("P@%d", evalTopK), "R", "RR", "AP", "nDCG")
	for _, q := range append(report.Queries, report.Mean) {
		fmt.Fprintf(out, "%-16s %6.3f %6.3f %6.3f %6.3f %6.3f\n", q.ID, q.Precision, q.Recall, q.RR, q.AP, q.NDCG)
	}
	return nil
}
