// Package bootstrap opens the stores and wires the services behind the
// command line.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/worker"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/cli"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/services"
	"github.com/custodia-labs/ragcore/internal/loaders"
	"github.com/custodia-labs/ragcore/internal/logger"
	"github.com/custodia-labs/ragcore/internal/splitters"
	"github.com/custodia-labs/ragcore/internal/splitters/tokens"
)

// Ensure Build satisfies the CLI contract.
var _ cli.Builder = Build

// Build opens the database under cfg.Database.Path and wires every service.
// Without an embedding provider the vector index is not opened and
// documents are indexed for keyword search only.
func Build(ctx context.Context, cfg file.Config) (*cli.App, error) {
	store, err := sqlite.NewStore(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	// Closed in reverse order.
	closers := []func() error{store.Close}
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (*cli.App, error) {
		if cerr := closeAll(); cerr != nil {
			logger.Warn("closing after failed start: %v", cerr)
		}
		return nil, err
	}

	var (
		embedder driven.EmbeddingService
		vectors  driven.VectorIndex
		estimate tokens.Estimator = tokens.Estimate
	)
	if cfg.Embedding.Provider != file.ProviderNone {
		cache := services.NewEmbedderCache(Opener(cfg.Embedding))
		closers = append(closers, cache.Close)

		embedder, err = cache.Get(ctx, cfg.Embedding.Key())
		if err != nil {
			return fail(fmt.Errorf("open embedder: %w", err))
		}
		dim, err := services.ResolveDimension(ctx, store.SettingsStore(), embedder)
		if err != nil {
			return fail(err)
		}
		index, err := vectorindex.New(ctx, store.VectorStore(), dim)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, index.Close)
		vectors = index

		if tc, ok := embedder.(driven.TokenCounter); ok {
			estimate = tokens.FromCounter(tc)
		}
	} else {
		logger.Info("No embedding provider configured; similarity search is disabled")
	}

	loaderRegistry := loaders.DefaultRegistry()
	indexer := services.NewIndexer(
		store.DocumentStore(),
		vectors,
		store.LexicalIndex(),
		embedder,
		loaderRegistry,
		splitters.DefaultRegistry(estimate),
	)
	indexer.SetSplitterConfig(cfg.Splitter.Domain())
	indexer.SetDurableStores(store.VectorStore(), store.EntityStore())

	if cfg.Entities.Enabled {
		proc, err := worker.Start(ctx, worker.Config{Name: "ner", Command: cfg.Entities.WorkerCommand})
		if err != nil {
			return fail(fmt.Errorf("start entity worker: %w", err))
		}
		extractor := worker.NewEntityExtractor(proc)
		closers = append(closers, extractor.Close)
		indexer.SetEntityExtraction(store.EntityStore(), services.NewEntityPipeline(extractor), cfg.Entities.Labels)
	}

	return &cli.App{
		Config:    cfg,
		Indexer:   indexer,
		Documents: services.NewDocumentService(store.DocumentStore()),
		Search:    services.NewSearcher(store.DocumentStore(), vectors, embedder),
		Keyword:   services.NewKeywordService(store.DocumentStore(), store.LexicalIndex()),
		Graph:     services.NewGraphService(store.EntityStore(), indexer),
		Loaders:   loaderRegistry,
		Close:     closeAll,
	}, nil
}

// Opener returns an embedder opener for the configured provider.
func Opener(cfg file.EmbeddingConfig) services.EmbedderOpener {
	return func(ctx context.Context, _ string) (driven.EmbeddingService, error) {
		switch cfg.Provider {
		case file.ProviderWorker:
			proc, err := worker.Start(ctx, worker.Config{Name: "embedder", Command: cfg.WorkerCommand})
			if err != nil {
				return nil, err
			}
			emb, err := worker.NewEmbedder(ctx, proc, cfg.Model, cfg.Dimension)
			if err != nil {
				_ = proc.Close()
				return nil, err
			}
			return emb, nil

		case file.ProviderOllama:
			return ollama.NewEmbeddingService(ollama.Config{
				BaseURL:           cfg.BaseURL,
				Model:             cfg.Model,
				Dimensions:        cfg.Dimension,
				BatchSize:         cfg.BatchSize,
				RequestsPerSecond: cfg.RequestsPerSecond,
			}), nil

		case file.ProviderOpenAI:
			emb, err := openai.NewEmbeddingService(openai.Config{
				APIKey:            cfg.APIKey(),
				BaseURL:           cfg.BaseURL,
				Model:             cfg.Model,
				Dimensions:        cfg.Dimension,
				BatchSize:         cfg.BatchSize,
				RequestsPerSecond: cfg.RequestsPerSecond,
			})
			if err != nil {
				return nil, err
			}
			return emb, nil
		}
		return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrValidation, cfg.Provider)
	}
}
