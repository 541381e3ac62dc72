package domain

import (
	"fmt"
	"time"
)

// Document represents an ingested file.
// It is the canonical record every index entry hangs off.
type Document struct {
	// ID is the unique identifier for the document (uuid v4).
	ID string

	// Filename is the base name of the ingested file. It is unique among
	// live documents.
	Filename string

	// Content is the full extracted text before splitting.
	Content string

	// Metadata contains loader and caller supplied key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time

	// NumChunks is populated by listings only.
	NumChunks int
}

// Chunk is the unit of retrieval: a contiguous substring of a document.
type Chunk struct {
	// ID is derived as {document_id}_{index}.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the ordinal position within the document.
	Index int

	// Content is the text of this chunk.
	Content string

	// StartChar and EndChar are character offsets into the document content.
	StartChar int
	EndChar   int

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// TextChunk is a span produced by a splitter, before ids are assigned.
type TextChunk struct {
	Content   string
	StartChar int
	EndChar   int
	Metadata  map[string]any
}

// ChunkID derives the id of the chunk at index within a document.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_%d", documentID, index)
}

// LoadedDocument is the output of a loader.
type LoadedDocument struct {
	Content  string
	Metadata map[string]any
}
