package driven

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// EntityStore persists the entity co-occurrence graph.
type EntityStore interface {
	// AddEntities upserts nodes and chunk edges. Returns the number stored.
	AddEntities(ctx context.Context, chunkID string, entities []domain.Entity, source string) (int, error)

	// QueryEntities lists entities by descending frequency.
	QueryEntities(ctx context.Context, q domain.EntityQuery) ([]domain.EntityNode, error)

	// GetEntityByID retrieves a node by id.
	GetEntityByID(ctx context.Context, id int64) (*domain.EntityNode, error)

	// GetEntityByName retrieves a node by name. Empty category matches any.
	GetEntityByName(ctx context.Context, name, category string) (*domain.EntityNode, error)

	// GetEntityChunks returns the chunks mentioning an entity.
	GetEntityChunks(ctx context.Context, name, category string) ([]string, error)

	// GetChunkEntities returns the entities a chunk mentions.
	GetChunkEntities(ctx context.Context, chunkID string) ([]domain.ChunkEntity, error)

	// GetRelatedEntities returns entities sharing chunks with nodeID.
	GetRelatedEntities(ctx context.Context, nodeID int64, limit int) ([]domain.RelatedEntity, error)

	// GetStats summarises the graph.
	GetStats(ctx context.Context, topN int) (*domain.GraphStats, error)

	// DeleteChunkEntities drops a chunk's edges and prunes orphaned nodes.
	DeleteChunkEntities(ctx context.Context, chunkID string) (int, error)

	// DeleteChunksEntities is the batch form of DeleteChunkEntities.
	DeleteChunksEntities(ctx context.Context, chunkIDs []string) (int, error)
}

// EntityExtractor finds named entities in texts.
// Implementations cross the worker boundary.
type EntityExtractor interface {
	// Extract returns the entities found in each text, in input order.
	Extract(ctx context.Context, texts []string, labels []string) ([][]domain.Entity, error)
}
