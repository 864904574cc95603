package cli

import (
	"fmt"
	"sort"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var reindexMissing bool

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Recompute stored article embeddings",
	Long: `Embed article content again and store the result. With --missing only
articles stored without an embedding are processed, which picks up imports
made while the embedding provider was unavailable.

Examples:
  kbserver reindex
  kbserver reindex --missing`,
	Args: cobra.NoArgs,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
	reindexCmd.Flags().BoolVar(&reindexMissing, "missing", false, "only articles without an embedding")
}

func runReindex(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var bar *progressbar.ProgressBar
	report, err := a.articles.Reindex(cmd.Context(), reindexMissing, func(done, total int) {
		if bar == nil {
			bar = newProgressBar(total, "Reindexing")
		}
		bar.Set(done)
	})
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	fmt.Printf("\nReindex complete:\n")
	fmt.Printf("  Articles:  %d\n", report.Total)
	fmt.Printf("  Indexed:   %d\n", report.Indexed)
	fmt.Printf("  Failed:    %d\n", len(report.Failed))

	if len(report.Failed) > 0 {
		ids := make([]int64, 0, len(report.Failed))
		for id := range report.Failed {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		fmt.Printf("\nFailures:\n")
		for _, id := range ids {
			fmt.Printf("  - article %d: %v\n", id, report.Failed[id])
		}
	}
	return nil
}
