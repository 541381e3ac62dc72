package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Settings keys recorded per database.
const (
	SettingEmbeddingDimension = "embedding.dimension"
	SettingEmbeddingModel     = "embedding.model"
)

// EmbedderOpener starts the embedding provider identified by key.
type EmbedderOpener func(ctx context.Context, key string) (driven.EmbeddingService, error)

// EmbedderCache keeps one live embedding provider per identity. Starting a
// provider can mean spawning a worker and loading a model, so concurrent
// callers asking for the same key share one open.
type EmbedderCache struct {
	open  EmbedderOpener
	group singleflight.Group

	mu        sync.Mutex
	embedders map[string]driven.EmbeddingService
}

// NewEmbedderCache creates an empty cache.
func NewEmbedderCache(open EmbedderOpener) *EmbedderCache {
	return &EmbedderCache{
		open:      open,
		embedders: make(map[string]driven.EmbeddingService),
	}
}

// Get returns the provider for key, opening it on first use.
func (c *EmbedderCache) Get(ctx context.Context, key string) (driven.EmbeddingService, error) {
	if e := c.cached(key); e != nil {
		return e, nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		if e := c.cached(key); e != nil {
			return e, nil
		}
		logger.Debug("Opening embedding provider %s", key)
		e, err := c.open(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("open embedder %s: %w", key, err)
		}
		c.mu.Lock()
		c.embedders[key] = e
		c.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug("Shared embedding provider open for %s", key)
	}
	return v.(driven.EmbeddingService), nil
}

func (c *EmbedderCache) cached(key string) driven.EmbeddingService {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.embedders[key]
}

// Invalidate closes and forgets the provider for key. The next Get opens
// a fresh one.
func (c *EmbedderCache) Invalidate(key string) error {
	c.mu.Lock()
	e, ok := c.embedders[key]
	delete(c.embedders, key)
	c.mu.Unlock()

	c.group.Forget(key)
	if !ok {
		return nil
	}
	return e.Close()
}

// Close closes every cached provider.
func (c *EmbedderCache) Close() error {
	c.mu.Lock()
	embedders := c.embedders
	c.embedders = make(map[string]driven.EmbeddingService)
	c.mu.Unlock()

	var errs []error
	for key, e := range embedders {
		if err := e.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close embedder %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// ResolveDimension pins the vector width of a database. The first embedder
// used with a database records its width; later embedders must match it.
func ResolveDimension(ctx context.Context, settings driven.SettingsStore, embedder driven.EmbeddingService) (int, error) {
	dim := embedder.Dimensions()

	stored, err := settings.GetSetting(ctx, SettingEmbeddingDimension)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if dim <= 0 {
			return 0, fmt.Errorf("%w: embedder %s reports dimension %d",
				domain.ErrValidation, embedder.ModelName(), dim)
		}
		if err := settings.SetSetting(ctx, SettingEmbeddingDimension, strconv.Itoa(dim)); err != nil {
			return 0, err
		}
		if err := settings.SetSetting(ctx, SettingEmbeddingModel, embedder.ModelName()); err != nil {
			return 0, err
		}
		logger.Info("Database vector width set to %d (%s)", dim, embedder.ModelName())
		return dim, nil
	case err != nil:
		return 0, err
	}

	want, err := strconv.Atoi(stored)
	if err != nil {
		return 0, fmt.Errorf("%w: stored %s %q", domain.ErrStorageFailure, SettingEmbeddingDimension, stored)
	}
	if dim > 0 && dim != want {
		return 0, &domain.DimensionMismatchError{Expected: want, Actual: dim}
	}
	return want, nil
}
