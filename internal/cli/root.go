package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrhollen/knowledgebase/internal/config"
	"github.com/mrhollen/knowledgebase/pkg/utils"
)

var (
	cfgFile string
	envFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "kbserver",
	Short: "Knowledge base with embedding search and grounded chat",
	Long: `kbserver stores articles with vector embeddings, ranks them by cosine
similarity and answers chat questions from the best matching articles.

Example usage:
  kbserver serve                              # Run the HTTP API
  kbserver search -q "vpn setup"              # Search from the terminal
  kbserver import "docs/**/*.md" --author ops # Bulk load files as articles
  kbserver reindex --missing                  # Embed articles stored without one`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := utils.LoadDotenv(envFile)
		if err != nil {
			return err
		}
		if loaded {
			log.Printf("loaded environment from %s", envFile)
		}

		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration:\n%w", err)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "kbserver.yaml", "config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
}
