package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Highlight tags wrapped around matched terms.
const (
	HighlightStart = "<mark>"
	HighlightEnd   = "</mark>"
)

// Ensure KeywordService implements the interface.
var _ driving.KeywordService = (*KeywordService)(nil)

// KeywordService runs lexical searches in free-form or structured mode.
type KeywordService struct {
	docStore     driven.DocumentStore
	lexicalIndex driven.LexicalIndex
}

// NewKeywordService creates a keyword search service.
func NewKeywordService(docStore driven.DocumentStore, lexicalIndex driven.LexicalIndex) *KeywordService {
	return &KeywordService{docStore: docStore, lexicalIndex: lexicalIndex}
}

// Search validates that exactly one mode is used, runs the query and
// enriches the hits.
func (s *KeywordService) Search(ctx context.Context, req domain.KeywordRequest) ([]domain.SearchResult, error) {
	logger.Section("Keyword Search")

	query := strings.TrimSpace(req.Query)
	freeForm := query != ""
	structured := len(req.Required)+len(req.Optional)+len(req.Exclude) > 0

	switch {
	case freeForm && structured:
		return nil, fmt.Errorf("%w: use either query or required keywords, not both", domain.ErrValidation)
	case !freeForm && !structured:
		return nil, fmt.Errorf("%w: either query or required keywords is required", domain.ErrValidation)
	case structured && !req.Structured():
		return nil, fmt.Errorf("%w: structured search needs at least one required keyword", domain.ErrValidation)
	}

	topK, err := resolveTopK(req.TopK, DefaultKeywordTopK)
	if err != nil {
		return nil, err
	}

	var hits []domain.LexicalHit
	// markQuery and markOpts select what Highlight marks.
	var markQuery string
	var markOpts domain.LexicalOptions

	if freeForm {
		logger.Debug("Free-form query: %q", query)
		opts := domain.DefaultLexicalOptions(topK)
		opts.ExcludeTerms = req.ExcludeTerms
		opts.ExactMatch = req.ExactMatch
		hits, err = s.lexicalIndex.Search(ctx, query, opts)

		markQuery = query
		markOpts = domain.DefaultLexicalOptions(topK)
		markOpts.ExactMatch = req.ExactMatch
	} else {
		logger.Debug("Structured query: required=%v optional=%v exclude=%v", req.Required, req.Optional, req.Exclude)
		hits, err = s.lexicalIndex.SearchWithKeywords(ctx, req.Required, req.Optional, req.Exclude, topK)

		markQuery = strings.Join(append(append([]string{}, req.Required...), req.Optional...), " OR ")
		markOpts = domain.DefaultLexicalOptions(topK)
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("Raw results: %d", len(hits))

	scored := make([]scoredChunk, len(hits))
	for i, h := range hits {
		scored[i] = scoredChunk{chunkID: h.ChunkID, score: h.Score}
		if !req.Highlight {
			continue
		}
		marked, ok, err := s.lexicalIndex.Highlight(ctx, h.ChunkID, markQuery, markOpts, HighlightStart, HighlightEnd)
		if err != nil {
			return nil, err
		}
		if ok {
			scored[i].highlight = marked
		}
	}

	return enrich(ctx, s.docStore, scored)
}
