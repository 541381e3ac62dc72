// Package memory provides in-memory implementations of the storage ports.
// They back the service tests and `--db :memory:` style throwaway runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string][]domain.Chunk
	seq       map[string]int
	next      int
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
		seq:       make(map[string]int),
	}
}

// AddDocument stores a document and its chunks.
func (s *DocumentStore) AddDocument(
	_ context.Context,
	filename, content string,
	chunks []domain.TextChunk,
	metadata map[string]any,
) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	stored := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		meta := make(map[string]any, len(c.Metadata)+2)
		for k, v := range c.Metadata {
			meta[k] = v
		}
		meta["document_id"] = id
		meta["chunk_index"] = i
		stored[i] = domain.Chunk{
			ID:         domain.ChunkID(id, i),
			DocumentID: id,
			Index:      i,
			Content:    c.Content,
			StartChar:  c.StartChar,
			EndChar:    c.EndChar,
			Metadata:   meta,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[id] = domain.Document{
		ID:        id,
		Filename:  filename,
		Content:   content,
		Metadata:  copyMetadata(metadata),
		CreatedAt: now,
		UpdatedAt: now,
		NumChunks: len(stored),
	}
	s.chunks[id] = stored
	s.seq[id] = s.next
	s.next++
	return id, nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetDocumentByFilename retrieves the most recent document with filename.
func (s *DocumentStore) GetDocumentByFilename(_ context.Context, filename string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *domain.Document
	for id := range s.documents {
		doc := s.documents[id]
		if doc.Filename == filename && (found == nil || s.seq[id] > s.seq[found.ID]) {
			found = &doc
		}
	}
	if found == nil {
		return nil, domain.ErrNotFound
	}
	return found, nil
}

// ListDocuments returns all documents newest first, without content.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		doc.Content = ""
		result = append(result, doc)
	}
	sort.Slice(result, func(i, j int) bool {
		return s.seq[result[i].ID] > s.seq[result[j].ID]
	})
	return result, nil
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return false, nil
	}
	delete(s.documents, id)
	delete(s.chunks, id)
	delete(s.seq, id)
	return true, nil
}

// GetChunksByDocument retrieves all chunks for a document in order.
func (s *DocumentStore) GetChunksByDocument(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Chunk(nil), s.chunks[documentID]...), nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *DocumentStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, chunks := range s.chunks {
		for _, chunk := range chunks {
			if chunk.ID == id {
				return &chunk, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

// GetAllChunkIDs returns every chunk id.
func (s *DocumentStore) GetAllChunkIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, chunks := range s.chunks {
		for _, c := range chunks {
			ids = append(ids, c.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// copyMetadata creates a shallow copy of metadata.
func copyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
