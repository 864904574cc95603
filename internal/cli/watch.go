package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mrhollen/knowledgebase/internal/importer"
)

var (
	watchAuthor string
	watchTags   []string
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Import files as they are added to a directory",
	Long: `Watch a directory and import every supported file that is created or
written in it. Runs until interrupted.

Examples:
  kbserver watch ./inbox --author ops`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchAuthor, "author", "", "username the articles belong to (default from config)")
	watchCmd.Flags().StringSliceVar(&watchTags, "tag", nil, "tag applied to every imported article")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dir)
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	authorID, err := a.authorID(cmd.Context(), watchAuthor)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Watching %s for new files (Ctrl+C to stop)\n", dir)
	watcher := importer.NewWatcher(importer.New(a.articles, authorID, cfg.Importer.Extensions, watchTags), 0)
	return watcher.Watch(ctx, dir, nil)
}
