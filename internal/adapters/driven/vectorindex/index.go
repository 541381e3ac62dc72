// Package vectorindex provides the similarity index: an in-memory flat
// inner-product index that is a derived cache of a durable VectorStore.
//
// Vectors are L2-normalised on insert so inner product equals cosine
// similarity. Raw vectors are persisted before they become searchable.
// The in-memory structure is rebuilt from durable storage on construction
// and after every delete; a rebuild holds the write lock so concurrent
// searches observe either the old or the new state.
package vectorindex

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is the similarity index.
type Index struct {
	mu    sync.RWMutex
	store driven.VectorStore
	dim   int
	mem   *flat
}

// New loads every durable vector into a fresh in-memory index.
func New(ctx context.Context, store driven.VectorStore, dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("vector index: invalid dimension %d", dimension)
	}

	idx := &Index{store: store, dim: dimension}
	if err := idx.Rebuild(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

// Rebuild discards the in-memory index and reloads it from durable storage.
func (i *Index) Rebuild(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.rebuildLocked(ctx)
}

func (i *Index) rebuildLocked(ctx context.Context) error {
	stored, err := i.store.LoadVectors(ctx)
	if err != nil {
		return fmt.Errorf("loading vectors: %w", err)
	}

	mem := newFlat(i.dim, len(stored))
	for _, v := range stored {
		if len(v.Vector) != i.dim {
			return fmt.Errorf("loading vector %s: %w", v.ChunkID,
				&domain.DimensionMismatchError{Expected: i.dim, Actual: len(v.Vector)})
		}
		mem.add(v.ChunkID, normalize(v.Vector))
	}

	i.mem = mem
	logger.Debug("vector index rebuilt: %d vectors, dim %d", mem.len(), i.dim)
	return nil
}

// Add inserts a vector for the given chunk ID.
func (i *Index) Add(ctx context.Context, chunkID string, vector []float32) error {
	return i.AddBatch(ctx, []string{chunkID}, [][]float32{vector})
}

// AddBatch validates every vector, persists the raw values, then appends
// the normalised values to the in-memory index.
func (i *Index) AddBatch(ctx context.Context, chunkIDs []string, vectors [][]float32) error {
	if len(chunkIDs) != len(vectors) {
		return fmt.Errorf("vector index: %d ids for %d vectors", len(chunkIDs), len(vectors))
	}
	if len(chunkIDs) == 0 {
		return nil
	}

	rows := make([]driven.StoredVector, len(chunkIDs))
	for n, v := range vectors {
		if len(v) != i.dim {
			return &domain.DimensionMismatchError{Expected: i.dim, Actual: len(v)}
		}
		rows[n] = driven.StoredVector{ChunkID: chunkIDs[n], Vector: v}
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.store.SaveVectors(ctx, rows); err != nil {
		return fmt.Errorf("persisting vectors: %w", err)
	}
	for _, r := range rows {
		i.mem.add(r.ChunkID, normalize(r.Vector))
	}
	return nil
}

// Search returns up to k hits by descending cosine similarity.
func (i *Index) Search(_ context.Context, query []float32, k int) ([]domain.VectorHit, error) {
	if len(query) != i.dim {
		return nil, &domain.DimensionMismatchError{Expected: i.dim, Actual: len(query)}
	}

	q := normalize(query)

	i.mu.RLock()
	defer i.mu.RUnlock()

	found := i.mem.search(q, k)
	hits := make([]domain.VectorHit, 0, len(found))
	for _, c := range found {
		// Positions outside the id map are skipped, not reported.
		if int(c.pos) >= len(i.mem.ids) {
			continue
		}
		hits = append(hits, domain.VectorHit{ChunkID: i.mem.ids[c.pos], Score: c.score})
	}
	return hits, nil
}

// Delete removes vectors from durable storage and rebuilds the in-memory
// index from what remains. If the rebuild fails the index is left empty
// until the next successful Rebuild, so deleted vectors are never served.
func (i *Index) Delete(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.store.DeleteVectors(ctx, chunkIDs); err != nil {
		return fmt.Errorf("deleting vectors: %w", err)
	}
	if err := i.rebuildLocked(ctx); err != nil {
		i.mem = newFlat(i.dim, 0)
		logger.Warn("vector index cleared after failed rebuild: %v", err)
		return err
	}
	return nil
}

// Count returns the number of live vectors.
func (i *Index) Count() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.mem.len()
}

// Dimension returns the vector width.
func (i *Index) Dimension() int {
	return i.dim
}

// Close drops the in-memory index. Durable vectors are untouched.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.mem = newFlat(i.dim, 0)
	return nil
}
