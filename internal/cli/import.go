package cli

import (
	"fmt"
	"sort"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mrhollen/knowledgebase/internal/importer"
)

var (
	importAuthor string
	importTags   []string
)

var importCmd = &cobra.Command{
	Use:   "import [pattern]",
	Short: "Import files as articles",
	Long: `Import every .md, .txt and .pdf file matching a glob pattern. "**"
matches any number of directories. Quote the pattern so the shell does not
expand it.

Examples:
  kbserver import "docs/**/*.md" --author ops
  kbserver import "manuals/*.pdf" --author ops --tag manual`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importAuthor, "author", "", "username the articles belong to (default from config)")
	importCmd.Flags().StringSliceVar(&importTags, "tag", nil, "tag applied to every imported article")
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	authorID, err := a.authorID(cmd.Context(), importAuthor)
	if err != nil {
		return err
	}

	imp := importer.New(a.articles, authorID, cfg.Importer.Extensions, importTags)

	var bar *progressbar.ProgressBar
	report, err := imp.ImportGlob(cmd.Context(), args[0], func(done, total int, result importer.Result) {
		if bar == nil {
			bar = newProgressBar(total, "Importing")
		}
		bar.Set(done)
	})
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if report.Matched == 0 {
		fmt.Printf("No supported files match %q\n", args[0])
		return nil
	}

	fmt.Printf("\nImport complete:\n")
	fmt.Printf("  Files matched:  %d\n", report.Matched)
	fmt.Printf("  Imported:       %d\n", report.Imported)
	fmt.Printf("  Failed:         %d\n", len(report.Failed))
	if report.Unindexed > 0 {
		fmt.Printf("\n%d articles were stored without an embedding. Run 'kbserver reindex --missing' once the provider is back.\n", report.Unindexed)
	}

	if len(report.Failed) > 0 {
		paths := make([]string, 0, len(report.Failed))
		for path := range report.Failed {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		fmt.Printf("\nFailures:\n")
		for _, path := range paths {
			fmt.Printf("  - %s: %v\n", path, report.Failed[path])
		}
	}
	return nil
}
