package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

type fixture struct {
	indexer *mockIndexer
	docs    *mockDocuments
	search  *mockSearch
	keyword *mockKeyword
	graph   *mockGraph
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		indexer: &mockIndexer{},
		docs:    &mockDocuments{},
		search:  &mockSearch{},
		keyword: &mockKeyword{},
		graph:   &mockGraph{},
	}
	srv, err := NewServer(Services{
		Indexer:   f.indexer,
		Documents: f.docs,
		Search:    f.search,
		Keyword:   f.keyword,
		Graph:     f.graph,
	})
	require.NoError(t, err)
	f.handler = srv.Handler()
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func sampleResult() domain.SearchResult {
	return domain.SearchResult{
		Chunk: domain.Chunk{
			ID: "doc-1_0", DocumentID: "doc-1", Index: 0,
			Content: "The quick brown fox", StartChar: 0, EndChar: 19,
			Metadata: map[string]any{"source": "a.txt"},
		},
		Document: domain.Document{ID: "doc-1", Filename: "a.txt"},
		Score:    0.75,
	}
}

func TestNewServer_RequiresServices(t *testing.T) {
	_, err := NewServer(Services{})
	assert.Error(t, err)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("doc: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrValidation, http.StatusBadRequest},
		{domain.ErrInvalidQuery, http.StatusBadRequest},
		{domain.ErrUnsupportedFileType, http.StatusBadRequest},
		{domain.ErrAlreadyExists, http.StatusBadRequest},
		{domain.ErrUnknownStrategy, http.StatusBadRequest},
		{&domain.PartialIngestError{DocumentID: "d", Stage: domain.StageEmbedding, Err: errors.New("boom")}, http.StatusInternalServerError},
		{domain.ErrStorageFailure, http.StatusInternalServerError},
		{errors.New("anything"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody[statusResponse](t, rec).Status)
}

func TestIndexDocument(t *testing.T) {
	f := newFixture(t)
	f.indexer.id = "doc-1"

	rec := f.do(t, http.MethodPost, "/documents",
		`{"file_path":"/tmp/a.txt","metadata":{"team":"search"},"splitter_overrides":{"strategy":"structural","chunk_size":200}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[indexResponse](t, rec)
	assert.Equal(t, indexResponse{Status: "success", DocumentID: "doc-1", Filename: "a.txt"}, resp)
	assert.Equal(t, "/tmp/a.txt", f.indexer.lastPath)
	assert.Equal(t, map[string]any{"team": "search"}, f.indexer.lastMeta)
	require.NotNil(t, f.indexer.lastOver)
	assert.Equal(t, "structural", f.indexer.lastOver.Strategy)
	assert.Equal(t, 200, f.indexer.lastOver.ChunkSize)
}

func TestIndexDocument_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"malformed body", `{"file_path":`, nil, http.StatusBadRequest},
		{"missing path", `{}`, nil, http.StatusBadRequest},
		{"duplicate", `{"file_path":"a.txt"}`, domain.ErrAlreadyExists, http.StatusBadRequest},
		{"unsupported", `{"file_path":"a.xyz"}`, domain.ErrUnsupportedFileType, http.StatusBadRequest},
		{"partial", `{"file_path":"a.txt"}`, &domain.PartialIngestError{Stage: domain.StageLexical, Err: errors.New("fts")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.indexer.err = tt.err

			rec := f.do(t, http.MethodPost, "/documents", tt.body)

			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, decodeBody[errorResponse](t, rec).Error)
		})
	}
}

func TestIndexBatch(t *testing.T) {
	f := newFixture(t)
	f.indexer.batch = domain.BatchIngestResult{
		Results: []domain.IngestResult{
			{FilePath: "a.txt", Status: domain.IngestSuccess, DocumentID: "doc-1", Filename: "a.txt"},
			{FilePath: "b.xyz", Status: domain.IngestError, Filename: "b.xyz", Err: domain.ErrUnsupportedFileType},
			{FilePath: "c.txt", Status: domain.IngestSkipped, Filename: "c.txt"},
		},
		Summary: domain.BatchSummary{Total: 3, Succeeded: 1, Failed: 1},
	}

	rec := f.do(t, http.MethodPost, "/documents/batch",
		`{"files":[{"file_path":"a.txt"},{"file_path":"b.xyz"},{"file_path":"c.txt"}],"fail_fast":true}`)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[batchResponse](t, rec)
	assert.Equal(t, "completed_with_errors", resp.Status)
	assert.Equal(t, batchSummary{Total: 3, Succeeded: 1, Failed: 1}, resp.Summary)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, "unsupported file type", resp.Results[1].Error)
	assert.Equal(t, "skipped", resp.Results[2].Status)
	assert.True(t, f.indexer.failFast)
	assert.Len(t, f.indexer.batchReqs, 3)

	rec = f.do(t, http.MethodPost, "/documents/batch", `{"files":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAndGetDocuments(t *testing.T) {
	f := newFixture(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f.docs.docs = []domain.Document{
		{ID: "doc-1", Filename: "a.txt", CreatedAt: created, Metadata: map[string]any{"k": "v"}, NumChunks: 2},
	}

	rec := f.do(t, http.MethodGet, "/documents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]documentResponse](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "a.txt", list[0].Filename)
	assert.Equal(t, 2, list[0].NumChunks)
	assert.True(t, created.Equal(list[0].CreatedAt))

	rec = f.do(t, http.MethodGet, "/documents/doc-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/documents/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveDocument(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodDelete, "/documents/doc-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f.indexer.removed = true
	rec = f.do(t, http.MethodDelete, "/documents/doc-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "deleted", decodeBody[statusResponse](t, rec).Status)
}

func TestDocumentContext(t *testing.T) {
	f := newFixture(t)
	f.search.ctx = &domain.DocumentContext{
		Document: domain.Document{ID: "doc-1", Filename: "a.txt"},
		Target:   domain.Chunk{ID: "doc-1_1", Index: 1},
		Before:   []domain.Chunk{{ID: "doc-1_0", Index: 0}},
	}

	rec := f.do(t, http.MethodGet, "/documents/doc-1/chunks/1/context?n=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[contextResponse](t, rec)
	assert.Equal(t, "doc-1_1", resp.Target.ID)
	assert.Len(t, resp.Before, 1)
	assert.Empty(t, resp.After)
	assert.Equal(t, 2, f.search.lastN)

	rec = f.do(t, http.MethodGet, "/documents/doc-1/chunks/x/context", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	f.search.results = []domain.SearchResult{sampleResult()}

	rec := f.do(t, http.MethodPost, "/search", `{"query":"fox","top_k":3,"min_score":0.5}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "doc-1_0", raw[0]["chunk_id"])
	assert.InDelta(t, 0.75, raw[0]["similarity_score"], 1e-9)
	assert.NotContains(t, raw[0], "score")
	assert.Equal(t, map[string]any{"id": "doc-1", "filename": "a.txt"}, raw[0]["document"])
	assert.Equal(t, map[string]any{"chunk_index": 0.0, "start_char": 0.0, "end_char": 19.0}, raw[0]["position"])

	assert.Equal(t, 3, f.search.lastOpts.TopK)
	require.NotNil(t, f.search.lastOpts.MinScore)
	assert.InDelta(t, 0.5, *f.search.lastOpts.MinScore, 1e-9)

	f.search.err = fmt.Errorf("%w: top_k must be between 1 and 100", domain.ErrValidation)
	rec = f.do(t, http.MethodPost, "/search", `{"query":"fox","top_k":500}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestKeywordSearch(t *testing.T) {
	f := newFixture(t)
	res := sampleResult()
	res.Highlight = "The quick brown <mark>fox</mark>"
	f.keyword.results = []domain.SearchResult{res}

	rec := f.do(t, http.MethodPost, "/search/keyword",
		`{"required_keywords":["fox"],"optional_keywords":["dog"],"exclude_keywords":["cat"],"top_k":5,"highlight":true}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Len(t, raw, 1)
	assert.InDelta(t, 0.75, raw[0]["score"], 1e-9)
	assert.NotContains(t, raw[0], "similarity_score")
	assert.Equal(t, res.Highlight, raw[0]["highlight"])

	assert.Equal(t, domain.KeywordRequest{
		Required:  []string{"fox"},
		Optional:  []string{"dog"},
		Exclude:   []string{"cat"},
		TopK:      5,
		Highlight: true,
	}, f.keyword.lastReq)

	f.keyword.err = domain.ErrInvalidQuery
	rec = f.do(t, http.MethodPost, "/search/keyword", `{"query":"\"unterminated"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGraphRoutes(t *testing.T) {
	f := newFixture(t)
	fox := domain.EntityNode{ID: 1, Name: "fox", DisplayName: "Fox", Category: "animal", Frequency: 3}
	f.graph.nodes = []domain.EntityNode{fox}
	f.graph.detail = &domain.EntityDetail{
		Entity:          fox,
		ChunkIDs:        []string{"doc-1_0"},
		RelatedEntities: []domain.RelatedEntity{{Entity: domain.EntityNode{Name: "dog", Category: "animal"}, CoOccurrenceCount: 2}},
	}
	f.graph.chunkEnts = []domain.ChunkEntity{{Node: fox, Weight: 1, Source: domain.EntitySourceNER}}
	f.graph.stats = &domain.GraphStats{TotalEntities: 1, TotalEdges: 1, TopEntities: []domain.EntityNode{fox}}
	f.graph.reprocess = &domain.ReprocessResult{DocumentsProcessed: 1, TotalEntities: 4}

	rec := f.do(t, http.MethodGet, "/kg/entities?category=animal&min_frequency=2&limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.EntityQuery{Category: "animal", MinFrequency: 2, Limit: 10}, f.graph.lastQuery)
	assert.Equal(t, []entityResponse{toEntity(fox)}, decodeBody[[]entityResponse](t, rec))

	rec = f.do(t, http.MethodGet, "/kg/entities?limit=many", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/kg/entities/fox", "")
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decodeBody[entityDetailResponse](t, rec)
	assert.Equal(t, []string{"doc-1_0"}, detail.ChunkIDs)
	assert.Equal(t, []relatedResponse{{Name: "dog", Category: "animal", CoOccurrenceCount: 2}}, detail.RelatedEntities)

	rec = f.do(t, http.MethodGet, "/kg/chunks", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(t, http.MethodGet, "/kg/chunks?entity=fox", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{}, decodeBody[entityChunksResponse](t, rec).ChunkIDs)

	rec = f.do(t, http.MethodGet, "/kg/chunks/doc-1_0/entities", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"source":"gliner"`)

	rec = f.do(t, http.MethodGet, "/kg/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody[statsResponse](t, rec)
	assert.Equal(t, 1, stats.TotalEntities)
	assert.NotNil(t, stats.ByCategory)

	rec = f.do(t, http.MethodPost, "/kg/reprocess", `{"document_id":"doc-1","labels":["animal"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "doc-1", f.graph.lastDoc)
	assert.Equal(t, []string{"animal"}, f.graph.lastLabel)
	assert.Equal(t, 4, decodeBody[reprocessResponse](t, rec).TotalEntities)

	rec = f.do(t, http.MethodPost, "/kg/reprocess", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.graph.lastDoc)
}

func TestReprocess_OptionalBody(t *testing.T) {
	tests := []struct {
		name     string
		body     func() io.Reader
		wantCode int
	}{
		{"no body", func() io.Reader { return http.NoBody }, http.StatusOK},
		{"empty chunked body", func() io.Reader { return io.NopCloser(strings.NewReader("")) }, http.StatusOK},
		{"whitespace only", func() io.Reader { return strings.NewReader("  \n") }, http.StatusOK},
		{"empty object", func() io.Reader { return strings.NewReader("{}") }, http.StatusOK},
		{"malformed", func() io.Reader { return strings.NewReader("{") }, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.graph.lastDoc = "stale"
			f.graph.reprocess = &domain.ReprocessResult{DocumentsProcessed: 3, TotalEntities: 9}

			req := httptest.NewRequest(http.MethodPost, "/kg/reprocess", tt.body())
			rec := httptest.NewRecorder()
			f.handler.ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode == http.StatusOK {
				assert.Empty(t, f.graph.lastDoc, "every document is reprocessed")
				assert.Equal(t, 3, decodeBody[reprocessResponse](t, rec).DocumentsProcessed)
			}
		})
	}
}

func TestGraphDisabled(t *testing.T) {
	f := newFixture(t)
	f.graph.err = fmt.Errorf("%w: knowledge graph is disabled", domain.ErrExtractorUnavailable)

	rec := f.do(t, http.MethodGet, "/kg/stats", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeBody[errorResponse](t, rec).Error, "disabled")
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/nope", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, f.do(t, http.MethodPut, "/documents", "").Code)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	f := newFixture(t)
	srv, err := NewServer(Services{
		Indexer: f.indexer, Documents: f.docs, Search: f.search, Keyword: f.keyword, Graph: f.graph,
	})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
