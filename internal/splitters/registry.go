// Package splitters builds chunking strategies by name.
package splitters

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/splitters/recursive"
	"github.com/custodia-labs/ragcore/internal/splitters/structural"
	"github.com/custodia-labs/ragcore/internal/splitters/tokens"
)

// BuilderFunc creates a Splitter from a resolved configuration.
type BuilderFunc func(cfg domain.SplitterConfig, est tokens.Estimator) (driven.Splitter, error)

// Ensure Registry implements the interface.
var _ driven.SplitterFactory = (*Registry)(nil)

// Registry maps strategy names to their builders.
type Registry struct {
	builders  map[string]BuilderFunc
	estimator tokens.Estimator
}

// NewRegistry creates an empty registry. A nil estimator uses
// tokens.Estimate.
func NewRegistry(est tokens.Estimator) *Registry {
	if est == nil {
		est = tokens.Estimate
	}
	return &Registry{
		builders:  make(map[string]BuilderFunc),
		estimator: est,
	}
}

// DefaultRegistry returns a registry with the built-in strategies.
func DefaultRegistry(est tokens.Estimator) *Registry {
	r := NewRegistry(est)
	r.Register(recursive.Name, buildRecursive)
	r.Register(structural.Name, buildStructural)
	return r
}

// Register adds a builder under name.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Has returns true if a strategy with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns the registered strategy names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates the splitter named by cfg.Strategy.
func (r *Registry) Build(cfg domain.SplitterConfig) (driven.Splitter, error) {
	builder, ok := r.builders[cfg.Strategy]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", domain.ErrUnknownStrategy, cfg.Strategy, r.Names())
	}
	return builder(cfg, r.estimator)
}

func buildRecursive(cfg domain.SplitterConfig, est tokens.Estimator) (driven.Splitter, error) {
	if cfg.ChunkOverlap >= cfg.ChunkSize && cfg.ChunkSize > 0 {
		return nil, fmt.Errorf("%w: chunk_overlap %d must be smaller than chunk_size %d",
			domain.ErrValidation, cfg.ChunkOverlap, cfg.ChunkSize)
	}
	return recursive.New(
		recursive.WithChunkSize(cfg.ChunkSize),
		recursive.WithOverlap(cfg.ChunkOverlap),
		recursive.WithMaxTokens(cfg.MaxTokens),
		recursive.WithEstimator(est),
	), nil
}

func buildStructural(cfg domain.SplitterConfig, est tokens.Estimator) (driven.Splitter, error) {
	if cfg.MinChunkSize > 0 && cfg.MaxChunkSize > 0 && cfg.MinChunkSize > cfg.MaxChunkSize {
		return nil, fmt.Errorf("%w: min_chunk_size %d exceeds max_chunk_size %d",
			domain.ErrValidation, cfg.MinChunkSize, cfg.MaxChunkSize)
	}
	return structural.New(structural.Config{
		MinChunkSize: cfg.MinChunkSize,
		MaxChunkSize: cfg.MaxChunkSize,
		MaxTokens:    cfg.MaxTokens,
		Estimator:    est,
	}), nil
}
