package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
)

var (
	searchLimit      int
	searchJSON       bool
	searchSourceType string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the knowledge index",
	Long: `Performs a semantic search across all indexed documents and prints
the best matching chunks.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().StringVar(&searchSourceType, "source-type", "", "restrict to a source type (gdrive, notion, web, uploads)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if vectorStore == nil {
		return errors.New("search service not configured")
	}

	ctx := context.Background()
	opts := domain.SearchOptions{
		Limit: searchLimit,
	}
	if searchSourceType != "" {
		opts.Filter = domain.SearchFilter{domain.MetaSourceType: searchSourceType}
	}

	results, err := vectorStore.Search(ctx, query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		title := results[i].Metadata[domain.MetaTitle]
		if title == "" {
			title = results[i].ChunkID
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, results[i].Score)
		if url := results[i].Metadata[domain.MetaURL]; url != "" {
			cmd.Printf("      %s\n", url)
		}
		cmd.Printf("      %s\n", snippet(results[i].Text, 160))
		cmd.Println()
	}

	return nil
}

// snippet truncates text to at most n runes for display.
func snippet(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
