package tui

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

type mockSearch struct {
	results []domain.SearchResult
}

func (m *mockSearch) Search(context.Context, string, domain.SearchOptions) ([]domain.SearchResult, error) {
	return m.results, nil
}

func (m *mockSearch) GetDocumentContext(context.Context, string, int, int) (*domain.DocumentContext, error) {
	return nil, domain.ErrNotFound
}

type mockKeyword struct{}

func (mockKeyword) Search(context.Context, domain.KeywordRequest) ([]domain.SearchResult, error) {
	return nil, nil
}

type mockDocuments struct {
	docs []domain.Document
}

func (m *mockDocuments) List(context.Context) ([]domain.Document, error) {
	return m.docs, nil
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
	return []domain.Chunk{{Index: 0, Content: "body"}}, nil
}

func (m *mockDocuments) GetContent(context.Context, string) (string, error) {
	return "body", nil
}

type mockGraph struct{}

func (mockGraph) ListEntities(context.Context, domain.EntityQuery) ([]domain.EntityNode, error) {
	return []domain.EntityNode{{Name: "acme", Category: "organization", Frequency: 3}}, nil
}

func (mockGraph) EntityDetail(context.Context, string, string) (*domain.EntityDetail, error) {
	return &domain.EntityDetail{Entity: domain.EntityNode{Name: "acme"}}, nil
}

func (mockGraph) EntityChunks(context.Context, string, string) ([]string, error) { return nil, nil }

func (mockGraph) ChunkEntities(context.Context, string) ([]domain.ChunkEntity, error) {
	return nil, nil
}

func (mockGraph) Stats(context.Context) (*domain.GraphStats, error) { return &domain.GraphStats{}, nil }

func (mockGraph) Reprocess(context.Context, string, []string) (*domain.ReprocessResult, error) {
	return nil, domain.ErrExtractorUnavailable
}

func validPorts() *Ports {
	return &Ports{
		Search:    &mockSearch{},
		Keyword:   mockKeyword{},
		Documents: &mockDocuments{docs: []domain.Document{{ID: "d1", Filename: "a.txt", NumChunks: 1}}},
	}
}
