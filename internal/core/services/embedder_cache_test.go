package services

import (
	"context"
	"errors"
	stdsync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// closingEmbedder counts Close calls.
type closingEmbedder struct {
	mockEmbedder
	dim    int
	closed atomic.Int32
}

func (e *closingEmbedder) Dimensions() int { return e.dim }
func (e *closingEmbedder) Close() error    { e.closed.Add(1); return nil }

func TestEmbedderCache_OpensOncePerKey(t *testing.T) {
	var opens atomic.Int32
	release := make(chan struct{})
	cache := NewEmbedderCache(func(_ context.Context, key string) (driven.EmbeddingService, error) {
		opens.Add(1)
		<-release
		return &closingEmbedder{dim: 4}, nil
	})

	var wg stdsync.WaitGroup
	got := make([]driven.EmbeddingService, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := cache.Get(context.Background(), "ollama:nomic")
			assert.NoError(t, err)
			got[i] = e
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), opens.Load())
	for _, e := range got {
		assert.Same(t, got[0], e)
	}

	other, err := cache.Get(context.Background(), "openai:small")
	require.NoError(t, err)
	assert.NotSame(t, got[0], other)
	assert.Equal(t, int32(2), opens.Load())
}

func TestEmbedderCache_Invalidate(t *testing.T) {
	var opened []*closingEmbedder
	cache := NewEmbedderCache(func(context.Context, string) (driven.EmbeddingService, error) {
		e := &closingEmbedder{dim: 4}
		opened = append(opened, e)
		return e, nil
	})
	ctx := context.Background()

	first, err := cache.Get(ctx, "worker")
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate("worker"))
	assert.Equal(t, int32(1), opened[0].closed.Load())

	second, err := cache.Get(ctx, "worker")
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	require.NoError(t, cache.Invalidate("unknown"))
	require.NoError(t, cache.Close())
	assert.Equal(t, int32(1), opened[1].closed.Load())
}

func TestEmbedderCache_OpenError(t *testing.T) {
	boom := errors.New("model missing")
	calls := 0
	cache := NewEmbedderCache(func(context.Context, string) (driven.EmbeddingService, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return &closingEmbedder{dim: 4}, nil
	})

	_, err := cache.Get(context.Background(), "worker")
	assert.ErrorIs(t, err, boom)

	_, err = cache.Get(context.Background(), "worker")
	require.NoError(t, err, "failures are not cached")
}

func TestResolveDimension(t *testing.T) {
	ctx := context.Background()
	settings := memory.NewSettingsStore()

	dim, err := ResolveDimension(ctx, settings, &closingEmbedder{dim: 384})
	require.NoError(t, err)
	assert.Equal(t, 384, dim)

	model, err := settings.GetSetting(ctx, SettingEmbeddingModel)
	require.NoError(t, err)
	assert.Equal(t, "mock-embedder", model)

	dim, err = ResolveDimension(ctx, settings, &closingEmbedder{dim: 384})
	require.NoError(t, err)
	assert.Equal(t, 384, dim)

	_, err = ResolveDimension(ctx, settings, &closingEmbedder{dim: 768})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	var mismatch *domain.DimensionMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 384, mismatch.Expected)
	assert.Equal(t, 768, mismatch.Actual)

	_, err = ResolveDimension(ctx, memory.NewSettingsStore(), &closingEmbedder{dim: 0})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
