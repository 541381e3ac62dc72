package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query    string   `json:"query" jsonschema:"the natural language query"`
	TopK     int      `json:"top_k,omitempty" jsonschema:"maximum number of results to return (default 5)"`
	MinScore *float64 `json:"min_score,omitempty" jsonschema:"drop results below this similarity, between 0 and 1"`
}

// KeywordSearchInput is the input schema for the keyword_search tool.
// Use either Query or RequiredKeywords.
type KeywordSearchInput struct {
	Query            string   `json:"query,omitempty" jsonschema:"free-form query; supports AND OR NOT, quoted phrases and prefix*"`
	ExcludeTerms     []string `json:"exclude_terms,omitempty" jsonschema:"terms that must not appear (free-form mode)"`
	ExactMatch       bool     `json:"exact_match,omitempty" jsonschema:"treat the query as one exact phrase"`
	RequiredKeywords []string `json:"required_keywords,omitempty" jsonschema:"keywords that must all appear (structured mode)"`
	OptionalKeywords []string `json:"optional_keywords,omitempty" jsonschema:"keywords of which at least one should appear"`
	ExcludeKeywords  []string `json:"exclude_keywords,omitempty" jsonschema:"keywords that must not appear (structured mode)"`
	TopK             int      `json:"top_k,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Highlight        bool     `json:"highlight,omitempty" jsonschema:"mark matched terms in the content"`
}

// SearchOutput is the output schema for the search tools.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
	Highlight  string  `json:"highlight,omitempty"`
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput summarises one document.
type DocumentOutput struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	CreatedAt string `json:"created_at"`
	NumChunks int    `json:"num_chunks"`
}

// ListEntitiesInput is the input schema for the list_entities tool.
type ListEntitiesInput struct {
	Category     string `json:"category,omitempty" jsonschema:"only entities of this category"`
	MinFrequency int    `json:"min_frequency,omitempty" jsonschema:"only entities mentioned at least this many times"`
	Limit        int    `json:"limit,omitempty" jsonschema:"maximum number of entities (default 50)"`
}

// ListEntitiesOutput is the output schema for the list_entities tool.
type ListEntitiesOutput struct {
	Entities []EntityOutput `json:"entities"`
	Count    int            `json:"count"`
}

// EntityOutput is one entity graph node.
type EntityOutput struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	Frequency int    `json:"frequency"`
}

// DocumentContextInput is the input schema for the document_context tool.
type DocumentContextInput struct {
	DocumentID string `json:"document_id" jsonschema:"id of the document holding the chunk"`
	ChunkIndex int    `json:"chunk_index" jsonschema:"index of the chunk within the document"`
	Window     int    `json:"window,omitempty" jsonschema:"neighbouring chunks to include on each side (default 1)"`
}

// DocumentContextOutput is a chunk with its neighbours in document order.
type DocumentContextOutput struct {
	DocumentID string        `json:"document_id"`
	Filename   string        `json:"filename"`
	Target     int           `json:"target_index"`
	Chunks     []ChunkOutput `json:"chunks"`
}

// ChunkOutput is one chunk of a document context.
type ChunkOutput struct {
	Index   int    `json:"index"`
	Content string `json:"content"`
}

// defaultWindow is used when document_context is called without a window.
const defaultWindow = 1

// errGraphDisabled is returned by list_entities when no graph is wired.
var errGraphDisabled = errors.New("knowledge graph is not enabled")

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Semantic similarity search across all indexed document chunks",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "keyword_search",
		Description: "Full-text keyword search with boolean operators or required/optional/excluded keywords",
	}, s.handleKeywordSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List all indexed documents, newest first",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "document_context",
		Description: "Read a search hit together with the chunks around it",
	}, s.handleDocumentContext)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_entities",
		Description: "List named entities from the knowledge graph by frequency",
	}, s.handleListEntities)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := s.ports.Search.Search(ctx, input.Query, domain.SearchOptions{
		TopK:     input.TopK,
		MinScore: input.MinScore,
	})
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, toSearchOutput(results), nil
}

// handleKeywordSearch handles the keyword_search tool invocation.
func (s *Server) handleKeywordSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input KeywordSearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := s.ports.Keyword.Search(ctx, domain.KeywordRequest{
		Query:        input.Query,
		ExcludeTerms: input.ExcludeTerms,
		ExactMatch:   input.ExactMatch,
		Required:     input.RequiredKeywords,
		Optional:     input.OptionalKeywords,
		Exclude:      input.ExcludeKeywords,
		TopK:         input.TopK,
		Highlight:    input.Highlight,
	})
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, toSearchOutput(results), nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.ports.Documents.List(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i := range docs {
		output.Documents[i] = DocumentOutput{
			ID:        docs[i].ID,
			Filename:  docs[i].Filename,
			CreatedAt: docs[i].CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			NumChunks: docs[i].NumChunks,
		}
	}
	return nil, output, nil
}

func (s *Server) handleDocumentContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentContextInput,
) (*mcp.CallToolResult, DocumentContextOutput, error) {
	window := input.Window
	if window <= 0 {
		window = defaultWindow
	}
	dc, err := s.ports.Search.GetDocumentContext(ctx, input.DocumentID, input.ChunkIndex, window)
	if err != nil {
		return nil, DocumentContextOutput{}, err
	}

	out := DocumentContextOutput{
		DocumentID: dc.Document.ID,
		Filename:   dc.Document.Filename,
		Target:     dc.Target.Index,
		Chunks:     make([]ChunkOutput, 0, len(dc.Before)+1+len(dc.After)),
	}
	for _, c := range dc.Before {
		out.Chunks = append(out.Chunks, ChunkOutput{Index: c.Index, Content: c.Content})
	}
	out.Chunks = append(out.Chunks, ChunkOutput{Index: dc.Target.Index, Content: dc.Target.Content})
	for _, c := range dc.After {
		out.Chunks = append(out.Chunks, ChunkOutput{Index: c.Index, Content: c.Content})
	}
	return nil, out, nil
}

// handleListEntities handles the list_entities tool invocation.
func (s *Server) handleListEntities(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListEntitiesInput,
) (*mcp.CallToolResult, ListEntitiesOutput, error) {
	if s.ports.Graph == nil {
		return nil, ListEntitiesOutput{}, errGraphDisabled
	}

	nodes, err := s.ports.Graph.ListEntities(ctx, domain.EntityQuery{
		Category:     input.Category,
		MinFrequency: input.MinFrequency,
		Limit:        input.Limit,
	})
	if err != nil {
		return nil, ListEntitiesOutput{}, err
	}

	output := ListEntitiesOutput{
		Entities: make([]EntityOutput, len(nodes)),
		Count:    len(nodes),
	}
	for i, n := range nodes {
		output.Entities[i] = EntityOutput{Name: n.DisplayName, Category: n.Category, Frequency: n.Frequency}
		if output.Entities[i].Name == "" {
			output.Entities[i].Name = n.Name
		}
	}
	return nil, output, nil
}

func toSearchOutput(results []domain.SearchResult) SearchOutput {
	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = SearchResultOutput{
			ChunkID:    results[i].Chunk.ID,
			DocumentID: results[i].Document.ID,
			Filename:   results[i].Document.Filename,
			ChunkIndex: results[i].Chunk.Index,
			Score:      results[i].Score,
			Content:    results[i].Chunk.Content,
			Highlight:  results[i].Highlight,
		}
	}
	return output
}
