package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/loaders"
	"github.com/custodia-labs/ragcore/internal/splitters"
	"github.com/custodia-labs/ragcore/internal/splitters/tokens"
)

// TestPipeline_SQLite runs ingest, both searches and removal against the
// real SQLite store.
func TestPipeline_SQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := sqlite.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	embedder := &mockEmbedder{}
	vectors, err := vectorindex.New(ctx, store.VectorStore(), embedder.Dimensions())
	require.NoError(t, err)

	docs := store.DocumentStore()
	lexical := store.LexicalIndex()
	indexer := NewIndexer(docs, vectors, lexical, embedder,
		loaders.DefaultRegistry(), splitters.DefaultRegistry(tokens.Estimate))
	indexer.SetEntityExtraction(store.EntityStore(), NewEntityPipeline(&mockExtractor{}), nil)
	searcher := NewSearcher(docs, vectors, embedder)
	keyword := NewKeywordService(docs, lexical)
	graph := NewGraphService(store.EntityStore(), indexer)

	path := writeFile(t, dir, "a.txt", "The quick brown fox met Alice.")
	id, err := indexer.IndexDocument(ctx, path, nil, nil)
	require.NoError(t, err)

	hits, err := keyword.Search(ctx, domain.KeywordRequest{Query: "fox", Highlight: true})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, id, hits[0].Document.ID)
	assert.Contains(t, hits[0].Highlight, "<mark>fox</mark>")

	similar, err := searcher.Search(ctx, "fox", domain.SearchOptions{TopK: 1})
	require.NoError(t, err)
	require.Len(t, similar, 1)
	assert.Equal(t, domain.ChunkID(id, 0), similar[0].Chunk.ID)

	chunks, err := graph.EntityChunks(ctx, "alice", "")
	require.NoError(t, err)
	assert.Equal(t, []string{domain.ChunkID(id, 0)}, chunks)

	removed, err := indexer.RemoveDocument(ctx, id)
	require.NoError(t, err)
	assert.True(t, removed)

	hits, err = keyword.Search(ctx, domain.KeywordRequest{Query: "fox"})
	require.NoError(t, err)
	assert.Empty(t, hits)

	similar, err = searcher.Search(ctx, "fox", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, similar)

	stats, err := graph.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalEntities)

	// A removed filename can be ingested again, and the new vectors survive
	// a reload from the durable mirror.
	_, err = indexer.IndexDocument(ctx, path, nil, nil)
	require.NoError(t, err)

	reloaded, err := vectorindex.New(ctx, store.VectorStore(), embedder.Dimensions())
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Count())
}
