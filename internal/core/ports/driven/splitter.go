package driven

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// Splitter divides document content into ordered chunks.
type Splitter interface {
	// Name returns the strategy name.
	Name() string

	// Split returns chunks in document order. Offsets are in characters.
	Split(ctx context.Context, content string) ([]domain.TextChunk, error)
}

// SplitterFactory builds splitters for a resolved configuration.
type SplitterFactory interface {
	// Build returns a splitter, or domain.ErrUnknownStrategy.
	Build(cfg domain.SplitterConfig) (Splitter, error)
}
