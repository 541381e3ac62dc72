package driving

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// DocumentService exposes read access to ingested documents.
type DocumentService interface {
	// List returns all documents, newest first.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Chunks returns the document's chunks in order.
	Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetContent returns the full extracted text.
	GetContent(ctx context.Context, documentID string) (string, error)
}
