package driven

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// LexicalIndex provides ranked full-text search over chunk content.
// Queries support implicit AND, explicit AND/OR/NOT, quoted phrases and
// trailing * prefix matching.
type LexicalIndex interface {
	// IndexChunk adds or replaces one chunk.
	IndexChunk(ctx context.Context, entry domain.LexicalEntry) error

	// IndexChunksBatch adds or replaces many chunks.
	IndexChunksBatch(ctx context.Context, entries []domain.LexicalEntry) error

	// Search runs a free-form query.
	Search(ctx context.Context, query string, opts domain.LexicalOptions) ([]domain.LexicalHit, error)

	// SearchWithKeywords runs a structured query built from keyword lists.
	SearchWithKeywords(ctx context.Context, required, optional, exclude []string,
		topK int) ([]domain.LexicalHit, error)

	// Highlight returns the chunk content with matches wrapped in tags.
	// The query is interpreted as Search would with opts. The bool is false
	// when the chunk does not match.
	Highlight(ctx context.Context, chunkID, query string, opts domain.LexicalOptions,
		startTag, endTag string) (string, bool, error)

	// DeleteChunk removes one chunk.
	DeleteChunk(ctx context.Context, chunkID string) error

	// DeleteChunksBatch removes many chunks.
	DeleteChunksBatch(ctx context.Context, chunkIDs []string) error

	// Count returns the number of indexed chunks.
	Count(ctx context.Context) (int, error)

	// RebuildIndex repopulates the index from canonical chunk content.
	RebuildIndex(ctx context.Context) error
}
