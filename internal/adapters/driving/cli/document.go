package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

var (
	indexMeta      []string
	indexStrategy  string
	indexChunkSize int
	indexOverlap   int
	indexRecursive bool
	indexFailFast  bool

	listJSON    bool
	showContent bool
)

var indexCmd = &cobra.Command{
	Use:   "index <path>...",
	Short: "Index files or directories",
	Long: `Loads each file, splits it into chunks and writes the chunks to the
document store, the vector index, the keyword index and (when enabled) the
entity graph. A failure in any stage removes everything written for that
document.

Directories index every supported file they contain; use --recursive to
descend into subdirectories.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

var removeCmd = &cobra.Command{
	Use:   "remove <doc-id>",
	Short: "Remove a document from every index",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show <doc-id>",
	Short: "Show a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	indexCmd.Flags().StringArrayVarP(&indexMeta, "meta", "m", nil, "metadata key=value (repeatable)")
	indexCmd.Flags().StringVar(&indexStrategy, "strategy", "", "splitter strategy (recursive, structural)")
	indexCmd.Flags().IntVar(&indexChunkSize, "chunk-size", 0, "chunk size in characters")
	indexCmd.Flags().IntVar(&indexOverlap, "chunk-overlap", 0, "chunk overlap in characters")
	indexCmd.Flags().BoolVarP(&indexRecursive, "recursive", "r", false, "descend into subdirectories")
	indexCmd.Flags().BoolVar(&indexFailFast, "fail-fast", false, "stop at the first failed file")

	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
	showCmd.Flags().BoolVar(&showContent, "content", false, "print the full extracted text")

	rootCmd.AddCommand(indexCmd, removeCmd, listCmd, showCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	meta, err := parseMeta(indexMeta)
	if err != nil {
		return err
	}
	var overrides *domain.SplitterOverrides
	if indexStrategy != "" || indexChunkSize > 0 || indexOverlap > 0 {
		overrides = &domain.SplitterOverrides{
			Strategy:     indexStrategy,
			ChunkSize:    indexChunkSize,
			ChunkOverlap: indexOverlap,
		}
	}

	ctx := cmd.Context()
	var (
		files  []domain.IngestRequest
		failed int
		total  int
	)
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		if !info.IsDir() {
			files = append(files, domain.IngestRequest{FilePath: path, Metadata: meta, Overrides: overrides})
			continue
		}

		res, err := app.Indexer.IndexDirectory(ctx, path, indexRecursive, meta)
		if err != nil {
			return err
		}
		printBatch(cmd, res)
		failed += res.Summary.Failed
		total += res.Summary.Total
	}

	if len(files) == 1 && total == 0 {
		id, err := app.Indexer.IndexDocument(ctx, files[0].FilePath, meta, overrides)
		if err != nil {
			return err
		}
		cmd.Printf("Indexed %s as %s\n", files[0].FilePath, id)
		return nil
	}
	if len(files) > 0 {
		res := app.Indexer.IndexBatch(ctx, files, indexFailFast)
		printBatch(cmd, res)
		failed += res.Summary.Failed
		total += res.Summary.Total
	}

	cmd.Printf("\n%d files, %d failed\n", total, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to index", failed, total)
	}
	return nil
}

func printBatch(cmd *cobra.Command, res domain.BatchIngestResult) {
	for _, r := range res.Results {
		switch r.Status {
		case domain.IngestSuccess:
			cmd.Printf("  ok      %s  %s\n", r.DocumentID, r.FilePath)
		case domain.IngestSkipped:
			cmd.Printf("  skipped %s\n", r.FilePath)
		default:
			cmd.Printf("  failed  %s: %v\n", r.FilePath, r.Err)
		}
	}
}

// parseMeta turns key=value pairs into metadata. Integer, float and
// boolean values are stored typed.
func parseMeta(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: metadata must be key=value, got %q", domain.ErrValidation, p)
		}
		meta[k] = typedValue(v)
	}
	return meta, nil
}

func typedValue(v string) any {
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v
}

func runRemove(cmd *cobra.Command, args []string) error {
	removed, err := app.Indexer.RemoveDocument(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("document %s: %w", args[0], domain.ErrNotFound)
	}
	cmd.Printf("Removed %s\n", args[0])
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	docs, err := app.Documents.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if listJSON {
		type docJSON struct {
			ID        string         `json:"id"`
			Filename  string         `json:"filename"`
			CreatedAt string         `json:"created_at"`
			Metadata  map[string]any `json:"metadata"`
			NumChunks int            `json:"num_chunks"`
		}
		out := make([]docJSON, len(docs))
		for i, d := range docs {
			out[i] = docJSON{
				ID:        d.ID,
				Filename:  d.Filename,
				CreatedAt: d.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
				Metadata:  d.Metadata,
				NumChunks: d.NumChunks,
			}
		}
		return printJSON(cmd, out)
	}

	if len(docs) == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}
	for i := range docs {
		cmd.Printf("  %s  %-30s  %3d chunks  %s\n",
			docs[i].ID, docs[i].Filename, docs[i].NumChunks, docs[i].CreatedAt.Format("2006-01-02 15:04"))
	}
	cmd.Printf("\nTotal: %d documents\n", len(docs))
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	doc, err := app.Documents.Get(ctx, args[0])
	if err != nil {
		return err
	}

	cmd.Printf("ID:       %s\n", doc.ID)
	cmd.Printf("Filename: %s\n", doc.Filename)
	cmd.Printf("Created:  %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	for k, v := range doc.Metadata {
		cmd.Printf("  %s: %v\n", k, v)
	}

	if showContent {
		content, err := app.Documents.GetContent(ctx, doc.ID)
		if err != nil {
			return err
		}
		cmd.Println()
		cmd.Println(content)
		return nil
	}

	chunks, err := app.Documents.Chunks(ctx, doc.ID)
	if err != nil {
		return err
	}
	cmd.Printf("\nChunks (%d):\n", len(chunks))
	for _, c := range chunks {
		cmd.Printf("  [%d] %d-%d  %s\n", c.Index, c.StartChar, c.EndChar, snippet(c.Content, 70))
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// snippet returns the first n runes of s on one line.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

var errNoEmbedder = errors.New("similarity search needs an embedding provider; set [embedding] provider in the config")
