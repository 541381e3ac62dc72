// Package tui provides an interactive terminal interface for browsing and
// searching the index. It is a driving adapter over the core services.
package tui

import (
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI uses.
type Ports struct {
	// Search runs similarity queries.
	Search driving.SearchService

	// Keyword runs BM25 queries.
	Keyword driving.KeywordService

	// Documents lists documents and loads their content.
	Documents driving.DocumentService

	// Indexer removes documents. Optional; removal is disabled when nil.
	Indexer driving.IndexerService

	// Graph lists entities. Optional; the entities view is hidden when nil.
	Graph driving.GraphService
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Keyword == nil {
		return ErrMissingKeywordService
	}
	if p.Documents == nil {
		return ErrMissingDocumentService
	}
	return nil
}
