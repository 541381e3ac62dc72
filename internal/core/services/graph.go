package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// Entity graph listing limits.
const (
	DefaultEntityLimit = 50
	MaxEntityLimit     = 1000
	RelatedEntityLimit = 20
	TopEntitiesInStats = 10
)

// Ensure GraphService implements the interface.
var _ driving.GraphService = (*GraphService)(nil)

// entityReprocessor re-runs extraction over stored chunks.
type entityReprocessor interface {
	ReprocessEntities(ctx context.Context, documentID string, labels []string) (*domain.ReprocessResult, error)
}

// GraphService exposes the entity graph. A nil store means the graph is
// disabled and every call returns domain.ErrExtractorUnavailable.
type GraphService struct {
	store       driven.EntityStore
	reprocessor entityReprocessor
}

// NewGraphService creates a graph service.
func NewGraphService(store driven.EntityStore, reprocessor entityReprocessor) *GraphService {
	return &GraphService{store: store, reprocessor: reprocessor}
}

func (g *GraphService) enabled() error {
	if g.store == nil {
		return fmt.Errorf("%w: knowledge graph is disabled", domain.ErrExtractorUnavailable)
	}
	return nil
}

// ListEntities lists entities by descending frequency.
func (g *GraphService) ListEntities(ctx context.Context, q domain.EntityQuery) ([]domain.EntityNode, error) {
	if err := g.enabled(); err != nil {
		return nil, err
	}
	switch {
	case q.Limit == 0:
		q.Limit = DefaultEntityLimit
	case q.Limit < 0 || q.Limit > MaxEntityLimit:
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrValidation, MaxEntityLimit)
	}
	if q.MinFrequency < 0 {
		return nil, fmt.Errorf("%w: min_frequency must not be negative", domain.ErrValidation)
	}
	return g.store.QueryEntities(ctx, q)
}

// EntityDetail returns an entity with the chunks that mention it and the
// entities it co-occurs with most.
func (g *GraphService) EntityDetail(ctx context.Context, name, category string) (*domain.EntityDetail, error) {
	if err := g.enabled(); err != nil {
		return nil, err
	}

	node, err := g.store.GetEntityByName(ctx, name, category)
	if err != nil {
		return nil, err
	}
	chunkIDs, err := g.store.GetEntityChunks(ctx, name, category)
	if err != nil {
		return nil, err
	}
	related, err := g.store.GetRelatedEntities(ctx, node.ID, RelatedEntityLimit)
	if err != nil {
		return nil, err
	}

	return &domain.EntityDetail{
		Entity:          *node,
		ChunkIDs:        chunkIDs,
		RelatedEntities: related,
	}, nil
}

// EntityChunks returns the ids of chunks mentioning an entity.
func (g *GraphService) EntityChunks(ctx context.Context, name, category string) ([]string, error) {
	if err := g.enabled(); err != nil {
		return nil, err
	}
	return g.store.GetEntityChunks(ctx, name, category)
}

// ChunkEntities returns the entities a chunk mentions.
func (g *GraphService) ChunkEntities(ctx context.Context, chunkID string) ([]domain.ChunkEntity, error) {
	if err := g.enabled(); err != nil {
		return nil, err
	}
	return g.store.GetChunkEntities(ctx, chunkID)
}

// Stats summarises the graph.
func (g *GraphService) Stats(ctx context.Context) (*domain.GraphStats, error) {
	if err := g.enabled(); err != nil {
		return nil, err
	}
	return g.store.GetStats(ctx, TopEntitiesInStats)
}

// Reprocess re-runs extraction for one document, or all when documentID
// is empty.
func (g *GraphService) Reprocess(
	ctx context.Context, documentID string, labels []string,
) (*domain.ReprocessResult, error) {
	if err := g.enabled(); err != nil {
		return nil, err
	}
	if g.reprocessor == nil {
		return nil, domain.ErrExtractorUnavailable
	}
	return g.reprocessor.ReprocessEntities(ctx, documentID, labels)
}
