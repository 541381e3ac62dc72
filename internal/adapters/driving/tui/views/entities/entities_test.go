package entities

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragcore/internal/core/domain"
)

type fakeGraph struct {
	query      domain.EntityQuery
	detailName string
	detailCat  string
}

func (f *fakeGraph) ListEntities(_ context.Context, q domain.EntityQuery) ([]domain.EntityNode, error) {
	f.query = q
	return []domain.EntityNode{
		{Name: "acme", DisplayName: "Acme Corp", Category: "organization", Frequency: 7},
		{Name: "berlin", Category: "location", Frequency: 2},
	}, nil
}

func (f *fakeGraph) EntityDetail(_ context.Context, name, category string) (*domain.EntityDetail, error) {
	f.detailName, f.detailCat = name, category
	return &domain.EntityDetail{
		Entity:   domain.EntityNode{Name: name, Category: category, Frequency: 2},
		ChunkIDs: []string{"c1"},
		RelatedEntities: []domain.RelatedEntity{
			{Entity: domain.EntityNode{Name: "acme", Category: "organization"}, CoOccurrenceCount: 1},
		},
	}, nil
}

func (f *fakeGraph) EntityChunks(context.Context, string, string) ([]string, error) { return nil, nil }

func (f *fakeGraph) ChunkEntities(context.Context, string) ([]domain.ChunkEntity, error) {
	return nil, nil
}

func (f *fakeGraph) Stats(context.Context) (*domain.GraphStats, error) {
	return &domain.GraphStats{}, nil
}

func (f *fakeGraph) Reprocess(context.Context, string, []string) (*domain.ReprocessResult, error) {
	return nil, domain.ErrExtractorUnavailable
}

func loaded(t *testing.T) (*View, *fakeGraph) {
	t.Helper()
	g := &fakeGraph{}
	v := NewView(context.Background(), nil, nil, g)
	v, _ = v.Update(v.Load()())
	return v, g
}

func TestView_Load(t *testing.T) {
	v, g := loaded(t)

	assert.Equal(t, Limit, g.query.Limit)
	require.Len(t, v.Entities(), 2)
	out := v.View()
	assert.Contains(t, out, "Acme Corp")
	assert.Contains(t, out, "berlin")
}

func TestView_Detail(t *testing.T) {
	v, g := loaded(t)
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})

	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	v, _ = v.Update(cmd())

	assert.Equal(t, "berlin", g.detailName)
	assert.Equal(t, "location", g.detailCat)
	require.NotNil(t, v.Detail())
	out := v.View()
	assert.Contains(t, out, "Related")
	assert.Contains(t, out, "acme")

	v, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.Nil(t, v.Detail())
	assert.Equal(t, 1, v.Selected())
}

func TestView_BackFromList(t *testing.T) {
	v, _ := loaded(t)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_Empty(t *testing.T) {
	v := NewView(context.Background(), nil, nil, &fakeGraph{})
	assert.Contains(t, v.View(), "No entities")
}
