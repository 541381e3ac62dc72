package driven

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// Loader extracts text and metadata from a file.
type Loader interface {
	// Extensions returns the lower-case extensions handled, with the dot.
	Extensions() []string

	// Load reads the file at path.
	Load(ctx context.Context, path string) (*domain.LoadedDocument, error)
}

// LoaderRegistry selects a loader by file extension.
type LoaderRegistry interface {
	// Get returns the loader for path, or domain.ErrUnsupportedFileType.
	Get(path string) (Loader, error)

	// Supported reports whether a loader exists for path.
	Supported(path string) bool
}
