package driven

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// VectorIndex provides semantic similarity search operations.
// The in-memory structure is a derived cache of a durable VectorStore.
type VectorIndex interface {
	// Add inserts a vector for the given chunk ID.
	Add(ctx context.Context, chunkID string, vector []float32) error

	// AddBatch inserts vectors for the given chunk IDs.
	AddBatch(ctx context.Context, chunkIDs []string, vectors [][]float32) error

	// Search finds up to k nearest neighbours to the query vector.
	Search(ctx context.Context, query []float32, k int) ([]domain.VectorHit, error)

	// Delete removes vectors and rebuilds the in-memory index.
	Delete(ctx context.Context, chunkIDs []string) error

	// Count returns the number of live vectors.
	Count() int

	// Dimension returns the vector width.
	Dimension() int

	// Close releases resources.
	Close() error
}

// StoredVector is a raw vector row from durable storage.
type StoredVector struct {
	ChunkID string
	Vector  []float32
}

// VectorStore is the durable mirror behind a VectorIndex.
type VectorStore interface {
	// SaveVectors upserts raw vectors keyed by chunk id.
	SaveVectors(ctx context.Context, vectors []StoredVector) error

	// DeleteVectors removes vectors by chunk id.
	DeleteVectors(ctx context.Context, chunkIDs []string) error

	// LoadVectors returns every stored vector in insertion order.
	LoadVectors(ctx context.Context) ([]StoredVector, error)
}
