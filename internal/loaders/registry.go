// Package loaders selects a loader for a file by its extension.
//
// Loaders are registered with the Registry at startup; DefaultRegistry
// returns one with every built-in format.
package loaders

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/loaders/docx"
	"github.com/custodia-labs/ragcore/internal/loaders/eml"
	"github.com/custodia-labs/ragcore/internal/loaders/html"
	"github.com/custodia-labs/ragcore/internal/loaders/markdown"
	"github.com/custodia-labs/ragcore/internal/loaders/text"
)

// Ensure Registry implements the interface.
var _ driven.LoaderRegistry = (*Registry)(nil)

// Registry maps lower-case extensions to loaders.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]driven.Loader
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{loaders: make(map[string]driven.Loader)}
}

// DefaultRegistry returns a registry with all built-in loaders.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(text.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(docx.New())
	r.Register(eml.New())
	return r
}

// Register adds a loader for each of its extensions. A later registration
// for the same extension replaces the earlier one.
func (r *Registry) Register(l driven.Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range l.Extensions() {
		r.loaders[strings.ToLower(ext)] = l
	}
}

// Get returns the loader for path's extension.
func (r *Registry) Get(path string) (driven.Loader, error) {
	ext := strings.ToLower(filepath.Ext(path))

	r.mu.RLock()
	l, ok := r.loaders[ext]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFileType, ext)
	}
	return l, nil
}

// Supported reports whether a loader exists for path.
func (r *Registry) Supported(path string) bool {
	_, err := r.Get(path)
	return err == nil
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
