package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

const (
	uriScheme    = "ragcore://"
	documentsURI = uriScheme + "documents"
	graphURI     = uriScheme + "graph/stats"

	mimeJSON = "application/json"
	mimeText = "text/plain"
)

type documentEntry struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	URI       string `json:"uri"`
	NumChunks int    `json:"num_chunks"`
}

type chunkEntry struct {
	ID        string `json:"id"`
	Index     int    `json:"index"`
	StartChar int    `json:"start_char"`
	EndChar   int    `json:"end_char"`
	Content   string `json:"content"`
}

type statsEntry struct {
	TotalEntities int            `json:"total_entities"`
	TotalEdges    int            `json:"total_edges"`
	ByCategory    map[string]int `json:"by_category"`
}

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         documentsURI,
		Name:        "documents",
		Description: "Every indexed document with its resource URI",
		MIMEType:    mimeJSON,
	}, s.readDocuments)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: documentsURI + "/{id}",
		Name:        "document",
		Description: "Extracted text of one document",
		MIMEType:    mimeText,
	}, s.readDocument)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: documentsURI + "/{id}/chunks",
		Name:        "document-chunks",
		Description: "Chunks of one document in order, with character offsets",
		MIMEType:    mimeJSON,
	}, s.readDocument)

	if s.ports.Graph != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         graphURI,
			Name:        "graph-stats",
			Description: "Entity and edge counts of the knowledge graph",
			MIMEType:    mimeJSON,
		}, s.readGraphStats)
	}
}

func (s *Server) readDocuments(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	docs, err := s.ports.Documents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	entries := make([]documentEntry, len(docs))
	for i, d := range docs {
		entries[i] = documentEntry{
			ID:        d.ID,
			Filename:  d.Filename,
			URI:       documentsURI + "/" + d.ID,
			NumChunks: d.NumChunks,
		}
	}
	return jsonResult(req.Params.URI, entries)
}

// readDocument serves both the text and the chunk templates.
func (s *Server) readDocument(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	id, chunks, ok := parseDocumentURI(uri)
	if !ok {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	if chunks {
		list, err := s.ports.Documents.Chunks(ctx, id)
		if err != nil {
			return nil, notFoundOr(uri, fmt.Errorf("loading chunks: %w", err))
		}
		entries := make([]chunkEntry, len(list))
		for i, c := range list {
			entries[i] = chunkEntry{ID: c.ID, Index: c.Index, StartChar: c.StartChar, EndChar: c.EndChar, Content: c.Content}
		}
		return jsonResult(uri, entries)
	}

	text, err := s.ports.Documents.GetContent(ctx, id)
	if err != nil {
		return nil, notFoundOr(uri, fmt.Errorf("getting document content: %w", err))
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mimeText, Text: text}},
	}, nil
}

func (s *Server) readGraphStats(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Graph.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("graph stats: %w", err)
	}
	return jsonResult(req.Params.URI, statsEntry{
		TotalEntities: stats.TotalEntities,
		TotalEdges:    stats.TotalEdges,
		ByCategory:    stats.ByCategory,
	})
}

// parseDocumentURI splits ragcore://documents/{id}[/chunks].
func parseDocumentURI(uri string) (id string, chunks bool, ok bool) {
	rest, found := strings.CutPrefix(uri, documentsURI+"/")
	if !found || rest == "" {
		return "", false, false
	}
	if id, found = strings.CutSuffix(rest, "/chunks"); found {
		return id, true, id != "" && !strings.Contains(id, "/")
	}
	return rest, false, !strings.Contains(rest, "/")
}

func notFoundOr(uri string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return mcp.ResourceNotFoundError(uri)
	}
	return err
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mimeJSON, Text: string(data)}},
	}, nil
}
