package httpapi

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

type mockIndexer struct {
	id        string
	err       error
	lastPath  string
	lastMeta  map[string]any
	lastOver  *domain.SplitterOverrides
	batch     domain.BatchIngestResult
	batchReqs []domain.IngestRequest
	failFast  bool
	removed   bool
}

func (m *mockIndexer) IndexDocument(_ context.Context, path string, metadata map[string]any,
	overrides *domain.SplitterOverrides) (string, error) {
	m.lastPath, m.lastMeta, m.lastOver = path, metadata, overrides
	return m.id, m.err
}

func (m *mockIndexer) IndexBatch(_ context.Context, reqs []domain.IngestRequest, failFast bool) domain.BatchIngestResult {
	m.batchReqs, m.failFast = reqs, failFast
	return m.batch
}

func (m *mockIndexer) IndexDirectory(context.Context, string, bool, map[string]any) (domain.BatchIngestResult, error) {
	return m.batch, m.err
}

func (m *mockIndexer) RemoveDocument(context.Context, string) (bool, error) {
	return m.removed, m.err
}

type mockDocuments struct {
	docs []domain.Document
	err  error
}

func (m *mockDocuments) List(context.Context) ([]domain.Document, error) {
	return m.docs, m.err
}

func (m *mockDocuments) Get(_ context.Context, id string) (*domain.Document, error) {
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocuments) Chunks(context.Context, string) ([]domain.Chunk, error) {
	return nil, m.err
}

func (m *mockDocuments) GetContent(context.Context, string) (string, error) {
	return "", m.err
}

type mockSearch struct {
	results  []domain.SearchResult
	err      error
	lastOpts domain.SearchOptions
	ctx      *domain.DocumentContext
	lastN    int
}

func (m *mockSearch) Search(_ context.Context, _ string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockSearch) GetDocumentContext(_ context.Context, _ string, _, n int) (*domain.DocumentContext, error) {
	m.lastN = n
	return m.ctx, m.err
}

type mockKeyword struct {
	results []domain.SearchResult
	err     error
	lastReq domain.KeywordRequest
}

func (m *mockKeyword) Search(_ context.Context, req domain.KeywordRequest) ([]domain.SearchResult, error) {
	m.lastReq = req
	return m.results, m.err
}

type mockGraph struct {
	nodes     []domain.EntityNode
	detail    *domain.EntityDetail
	chunks    []string
	chunkEnts []domain.ChunkEntity
	stats     *domain.GraphStats
	reprocess *domain.ReprocessResult
	err       error
	lastQuery domain.EntityQuery
	lastDoc   string
	lastLabel []string
}

func (m *mockGraph) ListEntities(_ context.Context, q domain.EntityQuery) ([]domain.EntityNode, error) {
	m.lastQuery = q
	return m.nodes, m.err
}

func (m *mockGraph) EntityDetail(context.Context, string, string) (*domain.EntityDetail, error) {
	return m.detail, m.err
}

func (m *mockGraph) EntityChunks(context.Context, string, string) ([]string, error) {
	return m.chunks, m.err
}

func (m *mockGraph) ChunkEntities(context.Context, string) ([]domain.ChunkEntity, error) {
	return m.chunkEnts, m.err
}

func (m *mockGraph) Stats(context.Context) (*domain.GraphStats, error) {
	return m.stats, m.err
}

func (m *mockGraph) Reprocess(_ context.Context, documentID string, labels []string) (*domain.ReprocessResult, error) {
	m.lastDoc, m.lastLabel = documentID, labels
	return m.reprocess, m.err
}
