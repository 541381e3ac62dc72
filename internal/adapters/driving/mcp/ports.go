package mcp

import (
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides similarity search.
	Search driving.SearchService

	// Keyword provides lexical search.
	Keyword driving.KeywordService

	// Documents lists ingested documents.
	Documents driving.DocumentService

	// Graph exposes the entity graph. Optional.
	Graph driving.GraphService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	switch {
	case p.Search == nil:
		return ErrMissingSearchService
	case p.Keyword == nil:
		return ErrMissingKeywordService
	case p.Documents == nil:
		return ErrMissingDocumentService
	}
	return nil
}
