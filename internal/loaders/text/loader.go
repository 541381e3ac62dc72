// Package text loads plain text files.
package text

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/loaders/fileinfo"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader handles plain text documents.
type Loader struct{}

// New creates a new plain text loader.
func New() *Loader {
	return &Loader{}
}

// Extensions returns the extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".txt", ".text", ".rst"}
}

// Load reads the file as UTF-8, falling back to Latin-1.
func (l *Loader) Load(ctx context.Context, path string) (*domain.LoadedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := fileinfo.Read(path)
	if err != nil {
		return nil, err
	}

	return &domain.LoadedDocument{
		Content:  fileinfo.Decode(data),
		Metadata: fileinfo.Metadata(path, len(data), "text/plain"),
	}, nil
}
