package mcp

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results  []domain.SearchResult
	context  *domain.DocumentContext
	err      error
	lastOpts domain.SearchOptions

	lastDocID  string
	lastIndex  int
	lastWindow int
}

func (m *mockSearchService) Search(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockSearchService) GetDocumentContext(
	_ context.Context, documentID string, chunkIndex, n int,
) (*domain.DocumentContext, error) {
	m.lastDocID, m.lastIndex, m.lastWindow = documentID, chunkIndex, n
	if m.err != nil {
		return nil, m.err
	}
	if m.context == nil {
		return nil, domain.ErrNotFound
	}
	return m.context, nil
}

// mockKeywordService is a mock implementation of driving.KeywordService.
type mockKeywordService struct {
	results []domain.SearchResult
	err     error
	lastReq domain.KeywordRequest
}

func (m *mockKeywordService) Search(_ context.Context, req domain.KeywordRequest) ([]domain.SearchResult, error) {
	m.lastReq = req
	return m.results, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	chunks    []domain.Chunk
	content   string
	err       error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	if len(m.documents) == 0 {
		return nil, domain.ErrNotFound
	}
	return &m.documents[0], m.err
}

func (m *mockDocumentService) Chunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return m.chunks, m.err
}

func (m *mockDocumentService) GetContent(_ context.Context, _ string) (string, error) {
	return m.content, m.err
}

// mockGraphService is a mock implementation of driving.GraphService.
type mockGraphService struct {
	nodes     []domain.EntityNode
	stats     *domain.GraphStats
	err       error
	lastQuery domain.EntityQuery
}

func (m *mockGraphService) ListEntities(_ context.Context, q domain.EntityQuery) ([]domain.EntityNode, error) {
	m.lastQuery = q
	return m.nodes, m.err
}

func (m *mockGraphService) EntityDetail(_ context.Context, _, _ string) (*domain.EntityDetail, error) {
	return nil, m.err
}

func (m *mockGraphService) EntityChunks(_ context.Context, _, _ string) ([]string, error) {
	return nil, m.err
}

func (m *mockGraphService) ChunkEntities(_ context.Context, _ string) ([]domain.ChunkEntity, error) {
	return nil, m.err
}

func (m *mockGraphService) Stats(_ context.Context) (*domain.GraphStats, error) {
	return m.stats, m.err
}

func (m *mockGraphService) Reprocess(_ context.Context, _ string, _ []string) (*domain.ReprocessResult, error) {
	return nil, m.err
}

// validPorts returns ports with every required service mocked.
func validPorts() *Ports {
	return &Ports{
		Search:    &mockSearchService{},
		Keyword:   &mockKeywordService{},
		Documents: &mockDocumentService{},
	}
}
