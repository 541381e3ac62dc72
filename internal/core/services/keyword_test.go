package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragcore/internal/core/domain"
)

func newKeywordFixture(t *testing.T) (*KeywordService, *mockLexicalIndex, *memory.DocumentStore) {
	t.Helper()
	ctx := context.Background()
	docs := memory.NewDocumentStore()
	lex := newMockLexicalIndex()

	for name, content := range map[string]string{
		"fox.txt": "the quick fox jumps",
		"dog.txt": "the lazy dog sleeps",
	} {
		id, err := docs.AddDocument(ctx, name, content, []domain.TextChunk{{Content: content, EndChar: len(content)}}, nil)
		require.NoError(t, err)
		require.NoError(t, lex.IndexChunk(ctx, domain.LexicalEntry{ChunkID: domain.ChunkID(id, 0), Content: content}))
	}
	return NewKeywordService(docs, lex), lex, docs
}

func TestKeywordService_ModeValidation(t *testing.T) {
	svc, _, _ := newKeywordFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  domain.KeywordRequest
	}{
		{name: "both modes", req: domain.KeywordRequest{Query: "fox", Required: []string{"fox"}}},
		{name: "neither mode", req: domain.KeywordRequest{Query: "   "}},
		{name: "optional without required", req: domain.KeywordRequest{Optional: []string{"fox"}}},
		{name: "exclude without required", req: domain.KeywordRequest{Exclude: []string{"fox"}}},
		{name: "top_k too large", req: domain.KeywordRequest{Query: "fox", TopK: MaxTopK + 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Search(ctx, tt.req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestKeywordService_FreeForm(t *testing.T) {
	svc, lex, _ := newKeywordFixture(t)

	results, err := svc.Search(context.Background(), domain.KeywordRequest{
		Query:        "fox",
		ExcludeTerms: []string{"cat"},
		ExactMatch:   true,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fox.txt", results[0].Document.Filename)
	assert.Empty(t, results[0].Highlight)

	assert.Equal(t, "fox", lex.lastQuery)
	assert.Equal(t, domain.LexicalOptions{
		TopK:               DefaultKeywordTopK,
		ExcludeTerms:       []string{"cat"},
		ExactMatch:         true,
		EscapeSpecialChars: true,
	}, lex.lastOpts)
	assert.Empty(t, lex.highlights)
}

func TestKeywordService_Structured(t *testing.T) {
	svc, lex, _ := newKeywordFixture(t)

	results, err := svc.Search(context.Background(), domain.KeywordRequest{
		Required:  []string{"dog"},
		Optional:  []string{"lazy", "sleepy"},
		Exclude:   []string{"cat"},
		TopK:      3,
		Highlight: true,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "dog.txt", results[0].Document.Filename)
	assert.Equal(t, "the lazy <mark>dog</mark> sleeps", results[0].Highlight)

	assert.Equal(t, []string{"dog"}, lex.lastRequired)
	assert.Equal(t, []string{"lazy", "sleepy"}, lex.lastOptional)
	assert.Equal(t, []string{"cat"}, lex.lastExclude)
	assert.Equal(t, []string{"dog OR lazy OR sleepy"}, lex.highlights)
}

func TestKeywordService_HighlightFreeForm(t *testing.T) {
	svc, _, _ := newKeywordFixture(t)

	results, err := svc.Search(context.Background(), domain.KeywordRequest{Query: "quick", Highlight: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "the <mark>quick</mark> fox jumps", results[0].Highlight)
}

func TestKeywordService_SkipsStaleHits(t *testing.T) {
	svc, lex, _ := newKeywordFixture(t)
	require.NoError(t, lex.IndexChunk(context.Background(), domain.LexicalEntry{ChunkID: "ghost_0", Content: "fox den"}))

	results, err := svc.Search(context.Background(), domain.KeywordRequest{Query: "fox"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fox.txt", results[0].Document.Filename)
}

func TestKeywordService_InvalidQuery(t *testing.T) {
	svc, lex, _ := newKeywordFixture(t)
	lex.searchErr = domain.ErrInvalidQuery

	_, err := svc.Search(context.Background(), domain.KeywordRequest{Query: "fox AND"})
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}
