package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

var (
	searchTopK     int
	searchMinScore float64
	searchTask     string
	searchJSON     bool

	keywordTopK      int
	keywordRequire   []string
	keywordOptional  []string
	keywordExclude   []string
	keywordExact     bool
	keywordHighlight bool
	keywordJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Similarity search over indexed chunks",
	Long: `Embeds the query and returns the most similar chunks by cosine
similarity, best first.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var keywordCmd = &cobra.Command{
	Use:   "keyword [query]",
	Short: "Keyword search with BM25 ranking",
	Long: `Full-text search over chunk content.

Free-form mode takes a query with AND, OR, NOT, "quoted phrases" and
prefix* terms. Structured mode takes --require (all must appear),
--optional (any may appear) and --exclude (none may appear) and cannot be
combined with a query.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runKeyword,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 5, "maximum number of results")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "drop results below this similarity (0-1)")
	searchCmd.Flags().StringVar(&searchTask, "task", "", "embedding task type for the query")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")

	keywordCmd.Flags().IntVarP(&keywordTopK, "top-k", "k", 10, "maximum number of results")
	keywordCmd.Flags().StringSliceVar(&keywordRequire, "require", nil, "keywords that must all appear")
	keywordCmd.Flags().StringSliceVar(&keywordOptional, "optional", nil, "keywords of which any may appear")
	keywordCmd.Flags().StringSliceVar(&keywordExclude, "exclude", nil, "keywords that must not appear")
	keywordCmd.Flags().BoolVar(&keywordExact, "exact", false, "match the query as one phrase")
	keywordCmd.Flags().BoolVar(&keywordHighlight, "highlight", false, "mark matched terms")
	keywordCmd.Flags().BoolVar(&keywordJSON, "json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd, keywordCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	opts := domain.SearchOptions{TopK: searchTopK, Task: searchTask}
	if cmd.Flags().Changed("min-score") {
		opts.MinScore = &searchMinScore
	}

	results, err := app.Search.Search(cmd.Context(), args[0], opts)
	if errors.Is(err, domain.ErrEmbeddingUnavailable) {
		return errNoEmbedder
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return printJSON(cmd, toResultJSON(results))
	}
	return outputSearchTable(cmd, results)
}

func runKeyword(cmd *cobra.Command, args []string) error {
	req := domain.KeywordRequest{
		TopK:      keywordTopK,
		Highlight: keywordHighlight,
		Required:  keywordRequire,
		Optional:  keywordOptional,
	}
	if len(args) == 1 {
		req.Query = args[0]
		req.ExcludeTerms = keywordExclude
		req.ExactMatch = keywordExact
	} else {
		req.Exclude = keywordExclude
	}

	results, err := app.Keyword.Search(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("keyword search failed: %w", err)
	}

	if keywordJSON {
		return printJSON(cmd, toResultJSON(results))
	}
	return outputSearchTable(cmd, results)
}

type resultJSON struct {
	ChunkID    string         `json:"chunk_id"`
	DocumentID string         `json:"document_id"`
	Filename   string         `json:"filename"`
	ChunkIndex int            `json:"chunk_index"`
	StartChar  int            `json:"start_char"`
	EndChar    int            `json:"end_char"`
	Score      float64        `json:"score"`
	Content    string         `json:"content"`
	Highlight  string         `json:"highlight,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func toResultJSON(results []domain.SearchResult) []resultJSON {
	out := make([]resultJSON, len(results))
	for i, r := range results {
		out[i] = resultJSON{
			ChunkID:    r.Chunk.ID,
			DocumentID: r.Document.ID,
			Filename:   r.Document.Filename,
			ChunkIndex: r.Chunk.Index,
			StartChar:  r.Chunk.StartChar,
			EndChar:    r.Chunk.EndChar,
			Score:      r.Score,
			Content:    r.Chunk.Content,
			Highlight:  r.Highlight,
			Metadata:   r.Chunk.Metadata,
		}
	}
	return out
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		// Format: [N] filename #chunk (score)
		cmd.Printf("  [%d] %s #%d (%.3f)\n", i+1, results[i].Document.Filename, results[i].Chunk.Index, results[i].Score)
		text := results[i].Highlight
		if text == "" {
			text = results[i].Chunk.Content
		}
		cmd.Printf("      %s\n", snippet(text, 160))
		cmd.Println()
	}
	return nil
}
