package driving

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// GraphService exposes the entity co-occurrence graph.
type GraphService interface {
	// ListEntities lists entities by descending frequency.
	ListEntities(ctx context.Context, q domain.EntityQuery) ([]domain.EntityNode, error)

	// EntityDetail returns an entity, its chunks and related entities.
	EntityDetail(ctx context.Context, name, category string) (*domain.EntityDetail, error)

	// EntityChunks returns the ids of chunks mentioning an entity.
	EntityChunks(ctx context.Context, name, category string) ([]string, error)

	// ChunkEntities returns the entities a chunk mentions.
	ChunkEntities(ctx context.Context, chunkID string) ([]domain.ChunkEntity, error)

	// Stats summarises the graph.
	Stats(ctx context.Context) (*domain.GraphStats, error)

	// Reprocess re-runs extraction for one document, or all when documentID is empty.
	Reprocess(ctx context.Context, documentID string, labels []string) (*domain.ReprocessResult, error)
}
