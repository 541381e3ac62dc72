// Package messages defines the Bubbletea messages exchanged between views.
package messages

import (
	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// ViewType identifies which view is active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the query input and results view.
	ViewSearch
	// ViewDocuments lists indexed documents.
	ViewDocuments
	// ViewContent shows a document's extracted text.
	ViewContent
	// ViewEntities lists graph entities.
	ViewEntities
	// ViewHelp lists keybindings.
	ViewHelp
)

// String returns the view name.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewDocuments:
		return "documents"
	case ViewContent:
		return "content"
	case ViewEntities:
		return "entities"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// SearchMode selects the index a query runs against.
type SearchMode int

const (
	// ModeSimilarity embeds the query and searches the vector index.
	ModeSimilarity SearchMode = iota
	// ModeKeyword runs a free-form BM25 query.
	ModeKeyword
)

// String returns the mode label.
func (m SearchMode) String() string {
	if m == ModeKeyword {
		return "keyword"
	}
	return "similarity"
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// SearchCompleted carries query results.
type SearchCompleted struct {
	Mode    SearchMode
	Query   string
	Results []domain.SearchResult
	Err     error
}

// DocumentsLoaded carries the document listing.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentSelected opens a document. ChunkIndex is the chunk to scroll to,
// or -1 for the top.
type DocumentSelected struct {
	Document   domain.Document
	ChunkIndex int
}

// ContentLoaded carries a document's text and chunk boundaries.
type ContentLoaded struct {
	DocumentID string
	Content    string
	Chunks     []domain.Chunk
	Err        error
}

// DocumentRemoved reports a removal.
type DocumentRemoved struct {
	DocumentID string
	Err        error
}

// EntitiesLoaded carries the entity listing.
type EntitiesLoaded struct {
	Entities []domain.EntityNode
	Err      error
}

// EntityDetailLoaded carries one entity with its neighbours.
type EntityDetailLoaded struct {
	Detail *domain.EntityDetail
	Err    error
}

// ErrorOccurred signals an error outside a specific load.
type ErrorOccurred struct {
	Err error
}
