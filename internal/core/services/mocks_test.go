package services

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	stdsync "sync"
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// testVocabulary fixes the meaning of each mockEmbedder dimension. Words
// outside it only feed the last dimension.
var testVocabulary = []string{"fox", "dog", "cat", "bird", "river", "mountain", "graph", "vector"}

// mockEmbedder embeds text as vocabulary counts, so similarity is
// predictable in tests.
type mockEmbedder struct {
	mu       stdsync.Mutex
	err      error
	drop     int
	calls    int
	lastOpts driven.EmbedOptions
}

var _ driven.EmbeddingService = (*mockEmbedder)(nil)

func (m *mockEmbedder) vector(text string) []float32 {
	v := make([]float32, len(testVocabulary)+1)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		hit := false
		for i, term := range testVocabulary {
			if w == term {
				v[i]++
				hit = true
			}
		}
		if !hit {
			v[len(testVocabulary)] += 0.01
		}
	}
	return v
}

func (m *mockEmbedder) Embed(_ context.Context, text string, opts driven.EmbedOptions) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string, opts driven.EmbedOptions) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, m.vector(t))
	}
	return out[:max(0, len(out)-m.drop)], nil
}

func (m *mockEmbedder) Dimensions() int            { return len(testVocabulary) + 1 }
func (m *mockEmbedder) ModelName() string          { return "mock-embedder" }
func (m *mockEmbedder) Ping(context.Context) error { return nil }
func (m *mockEmbedder) Close() error               { return nil }
func (m *mockEmbedder) Calls() int                 { m.mu.Lock(); defer m.mu.Unlock(); return m.calls }
func (m *mockEmbedder) LastOptions() driven.EmbedOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastOpts
}

// mockLexicalIndex matches chunks containing every query word.
type mockLexicalIndex struct {
	mu        stdsync.Mutex
	entries   map[string]domain.LexicalEntry
	indexErr  error
	deleteErr error
	searchErr error
	deleted   []string

	lastQuery    string
	lastOpts     domain.LexicalOptions
	lastRequired []string
	lastOptional []string
	lastExclude  []string
	highlights   []string
}

var _ driven.LexicalIndex = (*mockLexicalIndex)(nil)

func newMockLexicalIndex() *mockLexicalIndex {
	return &mockLexicalIndex{entries: make(map[string]domain.LexicalEntry)}
}

func (m *mockLexicalIndex) IndexChunk(ctx context.Context, e domain.LexicalEntry) error {
	return m.IndexChunksBatch(ctx, []domain.LexicalEntry{e})
}

func (m *mockLexicalIndex) IndexChunksBatch(_ context.Context, entries []domain.LexicalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexErr != nil {
		return m.indexErr
	}
	for _, e := range entries {
		m.entries[e.ChunkID] = e
	}
	return nil
}

func (m *mockLexicalIndex) matches(content, query string) bool {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return false
	}
	lower := strings.ToLower(content)
	for _, w := range words {
		if !strings.Contains(lower, w) {
			return false
		}
	}
	return true
}

func (m *mockLexicalIndex) Search(_ context.Context, query string, opts domain.LexicalOptions) ([]domain.LexicalHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = query
	m.lastOpts = opts
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	var hits []domain.LexicalHit
	for id, e := range m.entries {
		if m.matches(e.Content, query) {
			hits = append(hits, domain.LexicalHit{ChunkID: id, Score: 1})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].ChunkID < hits[j].ChunkID })
	if opts.TopK > 0 && len(hits) > opts.TopK {
		hits = hits[:opts.TopK]
	}
	return hits, nil
}

func (m *mockLexicalIndex) SearchWithKeywords(
	ctx context.Context, required, optional, exclude []string, topK int,
) ([]domain.LexicalHit, error) {
	m.mu.Lock()
	m.lastRequired, m.lastOptional, m.lastExclude = required, optional, exclude
	m.mu.Unlock()
	return m.Search(ctx, strings.Join(required, " "), domain.LexicalOptions{TopK: topK})
}

func (m *mockLexicalIndex) Highlight(
	_ context.Context, chunkID, query string, _ domain.LexicalOptions, startTag, endTag string,
) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.highlights = append(m.highlights, query)
	e, ok := m.entries[chunkID]
	if !ok {
		return "", false, nil
	}
	for _, w := range strings.Fields(query) {
		if w == "OR" {
			continue
		}
		if i := strings.Index(e.Content, w); i >= 0 {
			return e.Content[:i] + startTag + w + endTag + e.Content[i+len(w):], true, nil
		}
	}
	return "", false, nil
}

func (m *mockLexicalIndex) DeleteChunk(ctx context.Context, id string) error {
	return m.DeleteChunksBatch(ctx, []string{id})
}

func (m *mockLexicalIndex) DeleteChunksBatch(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, ids...)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for _, id := range ids {
		delete(m.entries, id)
	}
	return nil
}

func (m *mockLexicalIndex) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries), nil
}

func (m *mockLexicalIndex) RebuildIndex(context.Context) error { return nil }

// mockEntityStore records entities per chunk.
type mockEntityStore struct {
	mu        stdsync.Mutex
	byChunk   map[string][]domain.Entity
	addErr    error
	deleteErr error
	deleted   []string

	nodes   []domain.EntityNode
	node    *domain.EntityNode
	chunks  []string
	related []domain.RelatedEntity
	stats   *domain.GraphStats
	lastQ   domain.EntityQuery
	lastTop int
}

var _ driven.EntityStore = (*mockEntityStore)(nil)

func newMockEntityStore() *mockEntityStore {
	return &mockEntityStore{byChunk: make(map[string][]domain.Entity)}
}

func (m *mockEntityStore) AddEntities(_ context.Context, chunkID string, entities []domain.Entity, _ string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return 0, m.addErr
	}
	m.byChunk[chunkID] = append(m.byChunk[chunkID], entities...)
	return len(entities), nil
}

func (m *mockEntityStore) QueryEntities(_ context.Context, q domain.EntityQuery) ([]domain.EntityNode, error) {
	m.lastQ = q
	return m.nodes, nil
}

func (m *mockEntityStore) GetEntityByID(context.Context, int64) (*domain.EntityNode, error) {
	if m.node == nil {
		return nil, domain.ErrNotFound
	}
	return m.node, nil
}

func (m *mockEntityStore) GetEntityByName(context.Context, string, string) (*domain.EntityNode, error) {
	if m.node == nil {
		return nil, domain.ErrNotFound
	}
	return m.node, nil
}

func (m *mockEntityStore) GetEntityChunks(context.Context, string, string) ([]string, error) {
	return m.chunks, nil
}

func (m *mockEntityStore) GetChunkEntities(_ context.Context, chunkID string) ([]domain.ChunkEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ChunkEntity
	for _, e := range m.byChunk[chunkID] {
		out = append(out, domain.ChunkEntity{
			Node:   domain.EntityNode{Name: domain.NormalizeEntityName(e.Text), DisplayName: e.Text, Category: e.Label},
			Weight: e.Score,
		})
	}
	return out, nil
}

func (m *mockEntityStore) GetRelatedEntities(context.Context, int64, int) ([]domain.RelatedEntity, error) {
	return m.related, nil
}

func (m *mockEntityStore) GetStats(_ context.Context, topN int) (*domain.GraphStats, error) {
	m.lastTop = topN
	return m.stats, nil
}

func (m *mockEntityStore) DeleteChunkEntities(ctx context.Context, chunkID string) (int, error) {
	return m.DeleteChunksEntities(ctx, []string{chunkID})
}

func (m *mockEntityStore) DeleteChunksEntities(_ context.Context, ids []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, ids...)
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	n := 0
	for _, id := range ids {
		n += len(m.byChunk[id])
		delete(m.byChunk, id)
	}
	return n, nil
}

func (m *mockEntityStore) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, es := range m.byChunk {
		n += len(es)
	}
	return n
}

// mockExtractor reports every capitalised word as an entity of the first
// label in the pass.
type mockExtractor struct {
	mu     stdsync.Mutex
	err    error
	passes [][]string
	texts  [][]string
}

var _ driven.EntityExtractor = (*mockExtractor)(nil)

func (m *mockExtractor) Extract(_ context.Context, texts []string, labels []string) ([][]domain.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passes = append(m.passes, labels)
	m.texts = append(m.texts, texts)
	if m.err != nil {
		return nil, m.err
	}

	out := make([][]domain.Entity, len(texts))
	for i, text := range texts {
		runes := []rune(text)
		for j := 0; j < len(runes); {
			if !unicode.IsUpper(runes[j]) || (j > 0 && unicode.IsLetter(runes[j-1])) {
				j++
				continue
			}
			k := j
			for k < len(runes) && unicode.IsLetter(runes[k]) {
				k++
			}
			out[i] = append(out[i], domain.Entity{
				Text: string(runes[j:k]), Label: labels[0], Start: j, End: k, Score: 0.9,
			})
			j = k
		}
	}
	return out, nil
}

// writeFile creates a file under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
