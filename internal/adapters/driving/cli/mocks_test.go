package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragcore/internal/core/domain"
)

type mockIndexer struct {
	documentCalls []string
	overrides     *domain.SplitterOverrides
	metadata      map[string]any
	batch         []domain.IngestRequest
	dirCalls      []string
	removed       map[string]bool
	err           error
}

func (m *mockIndexer) IndexDocument(_ context.Context, path string, metadata map[string]any,
	overrides *domain.SplitterOverrides) (string, error) {
	m.documentCalls = append(m.documentCalls, path)
	m.metadata = metadata
	m.overrides = overrides
	if m.err != nil {
		return "", m.err
	}
	return "doc-1", nil
}

func (m *mockIndexer) IndexBatch(_ context.Context, reqs []domain.IngestRequest, _ bool) domain.BatchIngestResult {
	m.batch = reqs
	res := domain.BatchIngestResult{Summary: domain.BatchSummary{Total: len(reqs)}}
	for _, r := range reqs {
		res.Results = append(res.Results, domain.IngestResult{
			FilePath: r.FilePath, Status: domain.IngestSuccess, DocumentID: "id-" + r.FilePath,
		})
		res.Summary.Succeeded++
	}
	return res
}

func (m *mockIndexer) IndexDirectory(_ context.Context, dir string, _ bool,
	_ map[string]any) (domain.BatchIngestResult, error) {
	m.dirCalls = append(m.dirCalls, dir)
	return domain.BatchIngestResult{
		Results: []domain.IngestResult{
			{FilePath: dir + "/a.txt", Status: domain.IngestSuccess, DocumentID: "a"},
			{FilePath: dir + "/b.txt", Status: domain.IngestError, Err: domain.ErrUnsupportedFileType},
		},
		Summary: domain.BatchSummary{Total: 2, Succeeded: 1, Failed: 1},
	}, nil
}

func (m *mockIndexer) RemoveDocument(_ context.Context, documentID string) (bool, error) {
	return m.removed[documentID], nil
}

type mockDocuments struct {
	docs   []domain.Document
	chunks []domain.Chunk
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
	return m.chunks, nil
}

func (m *mockDocuments) GetContent(_ context.Context, id string) (string, error) {
	for i := range m.docs {
		if m.docs[i].ID == id {
			return m.docs[i].Content, nil
		}
	}
	return "", domain.ErrNotFound
}

type mockSearch struct {
	results []domain.SearchResult
	opts    domain.SearchOptions
	err     error
}

func (m *mockSearch) Search(_ context.Context, _ string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.opts = opts
	return m.results, m.err
}

func (m *mockSearch) GetDocumentContext(context.Context, string, int, int) (*domain.DocumentContext, error) {
	return nil, domain.ErrNotFound
}

type mockKeyword struct {
	results []domain.SearchResult
	req     domain.KeywordRequest
}

func (m *mockKeyword) Search(_ context.Context, req domain.KeywordRequest) ([]domain.SearchResult, error) {
	m.req = req
	return m.results, nil
}

type mockGraph struct {
	nodes     []domain.EntityNode
	query     domain.EntityQuery
	detail    *domain.EntityDetail
	stats     *domain.GraphStats
	reprocess struct {
		documentID string
		labels     []string
	}
	err error
}

func (m *mockGraph) ListEntities(_ context.Context, q domain.EntityQuery) ([]domain.EntityNode, error) {
	m.query = q
	return m.nodes, nil
}

func (m *mockGraph) EntityDetail(context.Context, string, string) (*domain.EntityDetail, error) {
	if m.detail == nil {
		return nil, domain.ErrNotFound
	}
	return m.detail, nil
}

func (m *mockGraph) EntityChunks(context.Context, string, string) ([]string, error) {
	return nil, nil
}

func (m *mockGraph) ChunkEntities(context.Context, string) ([]domain.ChunkEntity, error) {
	return nil, nil
}

func (m *mockGraph) Stats(context.Context) (*domain.GraphStats, error) {
	return m.stats, nil
}

func (m *mockGraph) Reprocess(_ context.Context, documentID string, labels []string) (*domain.ReprocessResult, error) {
	m.reprocess.documentID = documentID
	m.reprocess.labels = labels
	if m.err != nil {
		return nil, m.err
	}
	return &domain.ReprocessResult{DocumentsProcessed: 2, TotalEntities: 7}, nil
}

type testApp struct {
	indexer   *mockIndexer
	documents *mockDocuments
	search    *mockSearch
	keyword   *mockKeyword
	graph     *mockGraph
}

// setupTestApp injects mock services so commands skip the builder.
func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	ta := &testApp{
		indexer:   &mockIndexer{removed: map[string]bool{}},
		documents: &mockDocuments{},
		search:    &mockSearch{},
		keyword:   &mockKeyword{},
		graph:     &mockGraph{},
	}
	app = &App{
		Config:    file.Default(t.TempDir()),
		Indexer:   ta.indexer,
		Documents: ta.documents,
		Search:    ta.search,
		Keyword:   ta.keyword,
		Graph:     ta.graph,
	}
	owned = false
	t.Cleanup(func() {
		app, owned = nil, false
		resetFlags(rootCmd)
	})
	return ta
}

// resetFlags restores every flag to its default between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}
