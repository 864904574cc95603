package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	api "github.com/mrhollen/knowledgebase/internal/api/search"
)

var (
	searchText string
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Rank stored articles against a query",
	Long: `Embed the query and rank every indexed article by cosine similarity.

Examples:
  kbserver search -q "reset a password"
  kbserver search -q "vpn" -k 10 --json`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchText, "query", "q", "", "search query (required)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	topK := cfg.Retrieval.DefaultTopK
	if searchTopK > 0 {
		topK = searchTopK
	}

	results, err := a.articles.Search(cmd.Context(), searchText, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		response := api.SearchResponse{Query: searchText, Results: []api.SearchResult{}}
		for _, r := range results {
			response.Results = append(response.Results, api.SearchResult{Article: r.Article, Score: r.Score})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results for %q:\n\n", len(results), searchText)
	for i, r := range results {
		fmt.Printf("%d. [%d] %s (score: %.4f)\n", i+1, r.Article.ID, r.Article.Title, r.Score)
		if len(r.Article.Tags) > 0 {
			fmt.Printf("   tags: %s\n", strings.Join(r.Article.Tags, ", "))
		}
		fmt.Printf("   %s\n\n", preview(r.Article.Content, 160))
	}
	return nil
}

func preview(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
