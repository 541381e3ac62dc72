// Package markdown loads Markdown files. Content is kept as written so
// headings remain available to the structural splitter.
package markdown

import (
	"context"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/loaders/fileinfo"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader handles Markdown documents.
type Loader struct{}

// New creates a new Markdown loader.
func New() *Loader {
	return &Loader{}
}

// Extensions returns the extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Load reads the file and records its first H1 heading as the title.
func (l *Loader) Load(ctx context.Context, path string) (*domain.LoadedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := fileinfo.Read(path)
	if err != nil {
		return nil, err
	}
	content := fileinfo.Decode(data)

	meta := fileinfo.Metadata(path, len(data), "text/markdown")
	meta[fileinfo.KeyFormat] = "markdown"
	meta[fileinfo.KeyTitle] = extractTitle(content, path)

	return &domain.LoadedDocument{Content: content, Metadata: meta}, nil
}

// extractTitle returns the first "# " heading outside fenced code, or a
// title derived from the file name.
func extractTitle(content, path string) string {
	inFence := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "```") {
			inFence = !inFence
			continue
		}
		if !inFence && strings.HasPrefix(line, "# ") {
			if title := strings.TrimSpace(strings.TrimPrefix(line, "#")); title != "" {
				return title
			}
		}
	}
	return fileinfo.TitleFromPath(path)
}
