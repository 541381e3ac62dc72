package driven

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// DocumentStore is the canonical store for documents and their chunks.
// It is the source of truth for existence and cascading deletes.
type DocumentStore interface {
	// AddDocument assigns an id, derives chunk ids and persists the document
	// and all chunks as one durable write.
	AddDocument(ctx context.Context, filename, content string,
		chunks []domain.TextChunk, metadata map[string]any) (string, error)

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetDocumentByFilename retrieves a document by filename.
	GetDocumentByFilename(ctx context.Context, filename string) (*domain.Document, error)

	// ListDocuments returns all documents, newest first, with chunk counts.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// DeleteDocument removes a document and its chunks.
	// Returns false if the document did not exist.
	DeleteDocument(ctx context.Context, id string) (bool, error)

	// GetChunksByDocument retrieves all chunks for a document in order.
	GetChunksByDocument(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// GetAllChunkIDs returns every chunk id in the database.
	GetAllChunkIDs(ctx context.Context) ([]string, error)
}

// SettingsStore holds per-database settings such as the vector width.
type SettingsStore interface {
	// GetSetting returns the value for key, or domain.ErrNotFound.
	GetSetting(ctx context.Context, key string) (string, error)

	// SetSetting stores a value for key.
	SetSetting(ctx context.Context, key, value string) error
}
