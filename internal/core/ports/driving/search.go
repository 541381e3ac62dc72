package driving

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// SearchService provides similarity search to external actors.
type SearchService interface {
	// Search embeds the query and returns enriched similarity hits.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// GetDocumentContext returns a chunk with up to n neighbours on each side.
	GetDocumentContext(ctx context.Context, documentID string, chunkIndex, n int) (*domain.DocumentContext, error)
}

// KeywordService provides lexical search to external actors.
type KeywordService interface {
	// Search runs a free-form or structured keyword search.
	Search(ctx context.Context, req domain.KeywordRequest) ([]domain.SearchResult, error)
}
