package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory driven.VectorStore. Replacing a vector moves
// it to the end of the load order, as the SQLite mirror does.
type VectorStore struct {
	mu      sync.RWMutex
	vectors []driven.StoredVector
}

// NewVectorStore creates an empty vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{}
}

// SaveVectors upserts vectors.
func (s *VectorStore) SaveVectors(_ context.Context, vectors []driven.StoredVector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		s.remove(v.ChunkID)
		s.vectors = append(s.vectors, driven.StoredVector{
			ChunkID: v.ChunkID,
			Vector:  append([]float32(nil), v.Vector...),
		})
	}
	return nil
}

// DeleteVectors removes vectors by chunk id.
func (s *VectorStore) DeleteVectors(_ context.Context, chunkIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range chunkIDs {
		s.remove(id)
	}
	return nil
}

// LoadVectors returns every vector in insertion order.
func (s *VectorStore) LoadVectors(_ context.Context) ([]driven.StoredVector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]driven.StoredVector(nil), s.vectors...), nil
}

// Len returns the number of stored vectors.
func (s *VectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

func (s *VectorStore) remove(chunkID string) {
	for i, v := range s.vectors {
		if v.ChunkID == chunkID {
			s.vectors = append(s.vectors[:i], s.vectors[i+1:]...)
			return
		}
	}
}
