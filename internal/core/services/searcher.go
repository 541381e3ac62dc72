package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Result limits shared by the search services.
const (
	DefaultSearchTopK  = 5
	DefaultKeywordTopK = 10
	MaxTopK            = 100
)

// Ensure Searcher implements the interface.
var _ driving.SearchService = (*Searcher)(nil)

// Searcher runs similarity queries and enriches hits from the document store.
type Searcher struct {
	docStore    driven.DocumentStore
	vectorIndex driven.VectorIndex
	embedder    driven.EmbeddingService
}

// NewSearcher creates a searcher. A nil embedder disables Search.
func NewSearcher(
	docStore driven.DocumentStore,
	vectorIndex driven.VectorIndex,
	embedder driven.EmbeddingService,
) *Searcher {
	return &Searcher{
		docStore:    docStore,
		vectorIndex: vectorIndex,
		embedder:    embedder,
	}
}

// Search embeds the query and returns enriched hits, best first.
func (s *Searcher) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Similarity Search")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	topK, err := resolveTopK(opts.TopK, DefaultSearchTopK)
	if err != nil {
		return nil, err
	}
	if opts.MinScore != nil && (*opts.MinScore < 0 || *opts.MinScore > 1) {
		return nil, fmt.Errorf("%w: min_score must be between 0 and 1", domain.ErrValidation)
	}
	if s.embedder == nil || s.vectorIndex == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	if s.vectorIndex.Count() == 0 {
		logger.Debug("Similarity index is empty")
		return []domain.SearchResult{}, nil
	}

	task := opts.Task
	if task == "" {
		task = domain.TaskRetrievalQuery
	}
	vector, err := s.embedder.Embed(ctx, query, driven.EmbedOptions{Task: task})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.vectorIndex.Search(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("search vectors: %w", err)
	}
	logger.Debug("Raw results: %d", len(hits))

	scored := make([]scoredChunk, 0, len(hits))
	for _, h := range hits {
		if opts.MinScore != nil && h.Score < *opts.MinScore {
			continue
		}
		scored = append(scored, scoredChunk{chunkID: h.ChunkID, score: h.Score})
	}
	return enrich(ctx, s.docStore, scored)
}

// GetDocumentContext returns the chunk at chunkIndex with up to n chunks on
// either side.
func (s *Searcher) GetDocumentContext(
	ctx context.Context, documentID string, chunkIndex, n int,
) (*domain.DocumentContext, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: context size must not be negative", domain.ErrValidation)
	}

	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	chunks, err := s.docStore.GetChunksByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if chunkIndex < 0 || chunkIndex >= len(chunks) {
		return nil, fmt.Errorf("%w: chunk %d of document %s", domain.ErrNotFound, chunkIndex, documentID)
	}

	lo := max(0, chunkIndex-n)
	hi := min(len(chunks), chunkIndex+n+1)
	return &domain.DocumentContext{
		Document: *doc,
		Target:   chunks[chunkIndex],
		Before:   chunks[lo:chunkIndex],
		After:    chunks[chunkIndex+1 : hi],
	}, nil
}

// scoredChunk is a raw hit before enrichment.
type scoredChunk struct {
	chunkID   string
	score     float64
	highlight string
}

// enrich attaches chunk and document rows to hits, keeping order. Hits
// whose chunk or document has disappeared are skipped.
func enrich(ctx context.Context, docStore driven.DocumentStore, hits []scoredChunk) ([]domain.SearchResult, error) {
	results := make([]domain.SearchResult, 0, len(hits))
	docs := make(map[string]*domain.Document)

	for _, h := range hits {
		chunk, err := docStore.GetChunk(ctx, h.chunkID)
		if errors.Is(err, domain.ErrNotFound) {
			logger.Debug("Skipping stale hit %s", h.chunkID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get chunk %s: %w", h.chunkID, err)
		}

		doc, ok := docs[chunk.DocumentID]
		if !ok {
			doc, err = docStore.GetDocument(ctx, chunk.DocumentID)
			if errors.Is(err, domain.ErrNotFound) {
				docs[chunk.DocumentID] = nil
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("get document %s: %w", chunk.DocumentID, err)
			}
			docs[chunk.DocumentID] = doc
		}
		if doc == nil {
			continue
		}

		results = append(results, domain.SearchResult{
			Chunk:     *chunk,
			Document:  *doc,
			Score:     h.score,
			Highlight: h.highlight,
		})
	}
	return results, nil
}

// resolveTopK applies the default and checks the upper bound.
func resolveTopK(k, def int) (int, error) {
	switch {
	case k == 0:
		return def, nil
	case k < 0 || k > MaxTopK:
		return 0, fmt.Errorf("%w: top_k must be between 1 and %d", domain.ErrValidation, MaxTopK)
	default:
		return k, nil
	}
}
