package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	st, err := openIndex()
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.Stats()
	if err != nil {
		return err
	}
	info, err := st.GetSchemaInfo()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if statsJSON {
		output, _ := json.MarshalIndent(struct {
			Terms        int    `json:"terms"`
			Documents    int    `json:"documents"`
			Postings     int    `json:"postings"`
			Schema       int    `json:"schema_version"`
			AnalyzerHash string `json:"analyzer_hash"`
		}{stats.Terms, stats.Documents, stats.Postings, info.Version, info.AnalyzerHash}, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	fmt.Fprintf(out, "Terms:          %d\n", stats.Terms)
	fmt.Fprintf(out, "Documents:      %d\n", stats.Documents)
	fmt.Fprintf(out, "Postings:       %d\n", stats.Postings)
	fmt.Fprintf(out, "Schema version: %d\n", info.Version)
	fmt.Fprintf(out, "Analyzer:       %s\n", info.AnalyzerHash)
	return nil
}
