package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"vsm/config"
	"vsm/internal/adapter/store"
	"vsm/internal/logging"
	"vsm/internal/usecase"
)

var loadAppend bool

var loadCmd = &cobra.Command{
	Use:   "load <dump>...",
	Short: "Import index dumps",
	Long: `Import one or more index dumps (YAML or JSON) into .vsm/index.db.
Arguments may be doublestar globs. All dumps are merged and validated before
anything is written; by default the existing index is replaced.

Examples:
  vsm load index.yaml
  vsm load "dumps/**/*.json" --append`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().BoolVar(&loadAppend, "append", false, "merge into the existing index instead of replacing it")
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	dir := GetRootDir()

	if err := config.EnsureDir(dir); err != nil {
		return fmt.Errorf("failed to create .vsm directory: %w", err)
	}

	dbPath := config.IndexDBPath(dir)
	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open index store: %w", err)
	}
	defer st.Close()

	loadUC := usecase.NewLoadUseCase(st, cfg, logging.Component(GetLogger(), "load"))

	var bar *progressbar.ProgressBar
	var startTime time.Time

	progressCallback := func(processed, total int, currentFile string) {
		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Loading[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(cmd.ErrOrStderr())
				}),
			)
		}

		bar.Set(processed)

		elapsed := time.Since(startTime)
		if rate := float64(processed) / elapsed.Seconds(); rate > 0 && processed < total {
			eta := time.Duration(float64(total-processed)/rate) * time.Second
			bar.Describe(fmt.Sprintf("[cyan]Loading[reset] ETA: %s", formatDuration(eta)))
		}
	}

	result, err := loadUC.Load(args, usecase.LoadOptions{Append: loadAppend}, progressCallback)
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nLoad complete:\n")
	fmt.Fprintf(out, "  Dump files: %d\n", len(result.Files))
	fmt.Fprintf(out, "  Terms:      %d\n", result.Stats.Terms)
	fmt.Fprintf(out, "  Documents:  %d\n", result.Stats.Documents)
	fmt.Fprintf(out, "  Postings:   %d\n", result.Stats.Postings)
	if result.Rebuilt {
		fmt.Fprintf(out, "  (existing index replaced)\n")
	}
	fmt.Fprintf(out, "\nIndex stored at: %s\n", dbPath)
	return nil
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
