// Package filesystem keeps a directory in sync with the index by watching it
// for file changes.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// DefaultDebounce is how long a path must be quiet before it is reindexed.
const DefaultDebounce = 500 * time.Millisecond

// ChangeType classifies a file change.
type ChangeType string

// Change types.
const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// Change is a file change to apply to the index.
type Change struct {
	Type ChangeType
	Path string
}

// Watcher mirrors a directory into the index.
type Watcher struct {
	root      string
	recursive bool
	metadata  map[string]any
	debounce  time.Duration

	indexer   driving.IndexerService
	documents driving.DocumentService
	loaders   driven.LoaderRegistry

	mu       sync.Mutex
	pending  map[string]Change
	lastSeen map[string]time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithRecursive watches subdirectories too.
func WithRecursive(recursive bool) Option {
	return func(w *Watcher) { w.recursive = recursive }
}

// WithMetadata attaches metadata to every document the watcher indexes.
func WithMetadata(metadata map[string]any) Option {
	return func(w *Watcher) { w.metadata = metadata }
}

// WithDebounce sets the quiet period before a change is applied.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher creates a watcher for root.
func NewWatcher(
	root string,
	indexer driving.IndexerService,
	documents driving.DocumentService,
	loaders driven.LoaderRegistry,
	opts ...Option,
) *Watcher {
	w := &Watcher{
		root:      root,
		debounce:  DefaultDebounce,
		indexer:   indexer,
		documents: documents,
		loaders:   loaders,
		pending:   make(map[string]Change),
		lastSeen:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	return w
}

// Run indexes the files already present, then applies changes until ctx is
// cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addDirs(fsw, w.root); err != nil {
		return err
	}

	res, err := w.indexer.IndexDirectory(ctx, w.root, w.recursive, w.metadata)
	if err != nil {
		return fmt.Errorf("initial index of %s: %w", w.root, err)
	}
	logger.Info("Initial sync: %d indexed, %d failed", res.Summary.Succeeded, res.Summary.Failed)

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.recursive && ev.Has(fsnotify.Create) && !hidden(ev.Name) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addDirs(fsw, ev.Name); err != nil {
						logger.Warn("watch %s: %v", ev.Name, err)
					}
					continue
				}
			}
			if change := w.handleFsEvent(ev); change != nil {
				w.queue(*change, time.Now())
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error: %v", err)
		case <-ticker.C:
			w.flush(ctx, time.Now())
		}
	}
}

// addDirs watches dir and, when recursive, its visible subdirectories.
func (w *Watcher) addDirs(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && (!w.recursive || hidden(path)) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// handleFsEvent converts a filesystem event into a change. Directories,
// hidden files and unsupported extensions are ignored.
func (w *Watcher) handleFsEvent(ev fsnotify.Event) *Change {
	if hidden(ev.Name) || !w.loaders.Supported(ev.Name) {
		return nil
	}

	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return &Change{Type: ChangeDeleted, Path: ev.Name}
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		info, err := os.Stat(ev.Name)
		if err != nil || info.IsDir() {
			return nil
		}
		t := ChangeUpdated
		if ev.Has(fsnotify.Create) {
			t = ChangeCreated
		}
		return &Change{Type: t, Path: ev.Name}
	}
	return nil
}

// queue records a change. A later change to the same path replaces an
// earlier one, except that a create stays a create.
func (w *Watcher) queue(c Change, now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if prev, ok := w.pending[c.Path]; ok && prev.Type == ChangeCreated && c.Type == ChangeUpdated {
		c.Type = ChangeCreated
	}
	w.pending[c.Path] = c
	w.lastSeen[c.Path] = now
}

// flush applies every pending change whose path has been quiet for the
// debounce period.
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	w.mu.Lock()
	var ready []Change
	for path, c := range w.pending {
		if now.Sub(w.lastSeen[path]) >= w.debounce {
			ready = append(ready, c)
			delete(w.pending, path)
			delete(w.lastSeen, path)
		}
	}
	w.mu.Unlock()

	for _, c := range ready {
		if err := w.Apply(ctx, c); err != nil {
			logger.Warn("%s %s: %v", c.Type, c.Path, err)
		}
	}
}

// Apply writes a single change to the index. Created and updated files
// replace any document with the same filename.
func (w *Watcher) Apply(ctx context.Context, c Change) error {
	existing, err := w.findByFilename(ctx, filepath.Base(c.Path))
	if err != nil {
		return err
	}
	if existing != "" {
		if _, err := w.indexer.RemoveDocument(ctx, existing); err != nil {
			return fmt.Errorf("remove previous version: %w", err)
		}
	}
	if c.Type == ChangeDeleted {
		if existing != "" {
			logger.Info("Removed %s", c.Path)
		}
		return nil
	}

	id, err := w.indexer.IndexDocument(ctx, c.Path, w.metadata, nil)
	if err != nil {
		return err
	}
	logger.Info("Indexed %s as %s", c.Path, id)
	return nil
}

func (w *Watcher) findByFilename(ctx context.Context, filename string) (string, error) {
	docs, err := w.documents.List(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("list documents: %w", err)
	}
	for _, d := range docs {
		if d.Filename == filename {
			return d.ID, nil
		}
	}
	return "", nil
}

func hidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
