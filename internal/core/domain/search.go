package domain

// Embedding task types understood by the embedding providers.
const (
	TaskRetrievalDocument = "retrieval_document"
	TaskRetrievalQuery    = "retrieval_query"
)

// SearchOptions configures a similarity search.
type SearchOptions struct {
	// TopK is the maximum number of results.
	TopK int

	// MinScore drops hits below this similarity when set.
	MinScore *float64

	// Task is the embedding task type for the query. Defaults to retrieval_query.
	Task string
}

// VectorHit is a raw result from the similarity index.
type VectorHit struct {
	ChunkID string
	Score   float64
}

// LexicalHit is a raw result from the lexical index.
type LexicalHit struct {
	ChunkID string
	Score   float64
}

// LexicalEntry is the content indexed for one chunk.
type LexicalEntry struct {
	ChunkID  string
	Content  string
	Metadata map[string]any
}

// LexicalOptions configures a free-form lexical query.
type LexicalOptions struct {
	TopK               int
	ExcludeTerms       []string
	ExactMatch         bool
	EscapeSpecialChars bool
}

// DefaultLexicalOptions returns options with escaping enabled.
func DefaultLexicalOptions(topK int) LexicalOptions {
	return LexicalOptions{TopK: topK, EscapeSpecialChars: true}
}

// SearchResult is an enriched hit returned to callers.
type SearchResult struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Document is the chunk's parent document.
	Document Document

	// Score is the similarity or BM25 score.
	Score float64

	// Highlight holds the chunk content with matches marked, when requested.
	Highlight string
}

// KeywordRequest is a lexical search in exactly one of two modes:
// free-form (Query) or structured (Required, Optional, Exclude).
type KeywordRequest struct {
	Query        string
	ExcludeTerms []string
	ExactMatch   bool

	Required []string
	Optional []string
	Exclude  []string

	TopK      int
	Highlight bool
}

// Structured reports whether the request uses the structured mode.
func (r KeywordRequest) Structured() bool {
	return len(r.Required) > 0
}

// DocumentContext is a chunk together with its neighbours.
type DocumentContext struct {
	Document Document
	Target   Chunk
	Before   []Chunk
	After    []Chunk
}
