package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"vsm/internal/domain"
)

var (
	queryText     string
	queryTopK     int
	queryJSON     bool
	queryMatch    string
	queryMinScore float64
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Rank indexed documents against a query",
	Long: `Rank documents by cosine similarity to the query. Ties are broken by
ascending document ID.

Examples:
  vsm query -q "distributed storage"
  vsm query -q "raft consensus" --top-k 5 --match "papers/**" --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config, 0 in config means all)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().StringVar(&queryMatch, "match", "", "only return documents whose label matches this glob")
	queryCmd.Flags().Float64Var(&queryMinScore, "min-score", 0, "drop results scoring below this (default from config)")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	st, err := openIndex()
	if err != nil {
		return err
	}
	defer st.Close()

	retrieveUC, err := newRetrieveUseCase(st, nil)
	if err != nil {
		return err
	}

	var minScore *float64
	if cmd.Flags().Changed("min-score") {
		minScore = &queryMinScore
	}

	resp, err := retrieveUC.Retrieve(cmd.Context(), domain.SearchRequest{
		Query:    queryText,
		TopK:     queryTopK,
		MinScore: minScore,
		Match:    queryMatch,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if queryJSON {
		output, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	if len(resp.Results) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}
	fmt.Fprintf(out, "Showing %d of %d results for: %s\n\n", len(resp.Results), resp.Total, queryText)
	for _, r := range resp.Results {
		fmt.Fprintf(out, "%4d  %.4f  %s (doc %d)\n", r.Rank, r.Score, r.Label, r.DocID)
	}
	return nil
}
