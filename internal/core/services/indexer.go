package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Ensure Indexer implements the interface.
var _ driving.IndexerService = (*Indexer)(nil)

// Indexer writes documents into the document store and the three derived
// indexes. There is no shared transaction: once the document row is
// committed, a failure in a later stage is compensated by deleting whatever
// was written for the document.
type Indexer struct {
	docStore     driven.DocumentStore
	vectorIndex  driven.VectorIndex
	lexicalIndex driven.LexicalIndex
	embedder     driven.EmbeddingService
	loaders      driven.LoaderRegistry
	splitters    driven.SplitterFactory
	splitterCfg  domain.SplitterConfig

	// vectorStore is the durable mirror, used for deletes when no index
	// is open in this session.
	vectorStore driven.VectorStore

	entityStore driven.EntityStore
	entities    *EntityPipeline
	labels      []string
}

// NewIndexer creates an indexer. The embedder is optional; without one,
// documents are indexed for lexical search only.
func NewIndexer(
	docStore driven.DocumentStore,
	vectorIndex driven.VectorIndex,
	lexicalIndex driven.LexicalIndex,
	embedder driven.EmbeddingService,
	loaders driven.LoaderRegistry,
	splitters driven.SplitterFactory,
) *Indexer {
	return &Indexer{
		docStore:     docStore,
		vectorIndex:  vectorIndex,
		lexicalIndex: lexicalIndex,
		embedder:     embedder,
		loaders:      loaders,
		splitters:    splitters,
		splitterCfg:  domain.DefaultSplitterConfig(),
	}
}

// SetSplitterConfig sets the splitter configuration used when a request
// carries no overrides.
func (ix *Indexer) SetSplitterConfig(cfg domain.SplitterConfig) {
	ix.splitterCfg = cfg
}

// SetDurableStores sets the stores that removal cleans regardless of
// whether embedding or extraction is configured. A database may hold
// vectors and graph edges written by an earlier run.
func (ix *Indexer) SetDurableStores(vectors driven.VectorStore, entities driven.EntityStore) {
	ix.vectorStore = vectors
	if entities != nil {
		ix.entityStore = entities
	}
}

// SetEntityExtraction enables entity extraction during ingestion. Labels
// are the configured defaults; nil uses domain.DefaultEntityLabels.
func (ix *Indexer) SetEntityExtraction(store driven.EntityStore, pipeline *EntityPipeline, labels []string) {
	ix.entityStore = store
	ix.entities = pipeline
	if len(labels) == 0 {
		labels = domain.DefaultEntityLabels
	}
	ix.labels = labels
}

func (ix *Indexer) entitiesEnabled() bool {
	return ix.entityStore != nil && ix.entities != nil
}

// deleteVectors removes vectors through the open index, or straight from
// the durable mirror when there is none.
func (ix *Indexer) deleteVectors(ctx context.Context, chunkIDs []string) error {
	switch {
	case ix.vectorIndex != nil:
		return ix.vectorIndex.Delete(ctx, chunkIDs)
	case ix.vectorStore != nil:
		return ix.vectorStore.DeleteVectors(ctx, chunkIDs)
	}
	return nil
}

// IndexDocument ingests one file and returns the new document id.
func (ix *Indexer) IndexDocument(
	ctx context.Context,
	path string,
	metadata map[string]any,
	overrides *domain.SplitterOverrides,
) (string, error) {
	defer logger.Elapsed("index "+path, time.Now())

	filename := filepath.Base(path)

	loader, err := ix.loaders.Get(path)
	if err != nil {
		return "", err
	}

	existing, err := ix.docStore.GetDocumentByFilename(ctx, filename)
	switch {
	case err == nil:
		return "", fmt.Errorf("%w: document %q already indexed with id %s; remove it first to re-index",
			domain.ErrAlreadyExists, filename, existing.ID)
	case !errors.Is(err, domain.ErrNotFound):
		return "", fmt.Errorf("check existing document: %w", err)
	}

	splitter, err := ix.splitters.Build(ix.splitterCfg.Apply(overrides))
	if err != nil {
		return "", err
	}

	logger.Debug("Loading %s", filename)
	loaded, err := loader.Load(ctx, path)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", filename, err)
	}

	docMeta := make(map[string]any, len(loaded.Metadata)+len(metadata))
	for k, v := range loaded.Metadata {
		docMeta[k] = v
	}
	for k, v := range metadata {
		docMeta[k] = v
	}

	chunks, err := splitter.Split(ctx, loaded.Content)
	if err != nil {
		return "", fmt.Errorf("split %s: %w", filename, err)
	}
	logger.Debug("Split %s into %d chunks with %s", filename, len(chunks), splitter.Name())

	docID, err := ix.docStore.AddDocument(ctx, filename, loaded.Content, chunks, docMeta)
	if err != nil {
		return "", fmt.Errorf("store document: %w", err)
	}

	chunkIDs := make([]string, len(chunks))
	contents := make([]string, len(chunks))
	for i, c := range chunks {
		chunkIDs[i] = domain.ChunkID(docID, i)
		contents[i] = c.Content
	}

	if stage, err := ix.indexChunks(ctx, filename, chunkIDs, contents, chunks); err != nil {
		ix.compensate(ctx, docID, chunkIDs)
		return "", &domain.PartialIngestError{DocumentID: docID, Stage: stage, Err: err}
	}

	logger.Info("Indexed %s as %s (%d chunks)", filename, docID, len(chunks))
	return docID, nil
}

// indexChunks runs the downstream stages in order and reports the stage
// that failed.
func (ix *Indexer) indexChunks(
	ctx context.Context,
	filename string,
	chunkIDs, contents []string,
	chunks []domain.TextChunk,
) (domain.IngestStage, error) {
	if len(chunkIDs) == 0 {
		return "", nil
	}

	if ix.embedder != nil && ix.vectorIndex != nil {
		start := time.Now()
		vectors, err := ix.embedder.EmbedBatch(ctx, contents, driven.EmbedOptions{
			Task:  domain.TaskRetrievalDocument,
			Title: filename,
		})
		if err != nil {
			return domain.StageEmbedding, fmt.Errorf("embed chunks: %w", err)
		}
		if len(vectors) != len(chunkIDs) {
			return domain.StageEmbedding, fmt.Errorf("embed chunks: got %d vectors for %d chunks",
				len(vectors), len(chunkIDs))
		}
		logger.Elapsed("embedding", start)
		if err := ix.vectorIndex.AddBatch(ctx, chunkIDs, vectors); err != nil {
			return domain.StageEmbedding, fmt.Errorf("add vectors: %w", err)
		}
	}

	entries := make([]domain.LexicalEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = domain.LexicalEntry{ChunkID: chunkIDs[i], Content: c.Content, Metadata: c.Metadata}
	}
	if err := ix.lexicalIndex.IndexChunksBatch(ctx, entries); err != nil {
		return domain.StageLexical, fmt.Errorf("index chunks: %w", err)
	}

	if ix.entitiesEnabled() {
		if _, err := ix.extractEntities(ctx, chunkIDs, contents, nil); err != nil {
			return domain.StageEntities, err
		}
	}
	return "", nil
}

// extractEntities runs the pipeline over chunk contents and stores the
// result. Returns the number of entities stored.
func (ix *Indexer) extractEntities(ctx context.Context, chunkIDs, contents, extraLabels []string) (int, error) {
	start := time.Now()
	found, err := ix.entities.Extract(ctx, contents, ix.labels, extraLabels)
	if err != nil {
		return 0, fmt.Errorf("extract entities: %w", err)
	}
	logger.Elapsed("entity extraction", start)

	total := 0
	for i, chunkID := range chunkIDs {
		if len(found[i]) == 0 {
			continue
		}
		n, err := ix.entityStore.AddEntities(ctx, chunkID, found[i], domain.EntitySourceNER)
		if err != nil {
			return total, fmt.Errorf("store entities: %w", err)
		}
		total += n
	}
	return total, nil
}

// compensate undoes a partial ingestion. Each step runs regardless of the
// others; failures are logged and never replace the triggering error.
func (ix *Indexer) compensate(ctx context.Context, docID string, chunkIDs []string) {
	ctx = context.WithoutCancel(ctx)
	logger.Warn("Rolling back document %s", docID)

	var errs []error
	if ix.entityStore != nil {
		if _, err := ix.entityStore.DeleteChunksEntities(ctx, chunkIDs); err != nil {
			logger.Warn("Cleanup of entity edges for %s failed: %v", docID, err)
			errs = append(errs, err)
		}
	}
	if err := ix.lexicalIndex.DeleteChunksBatch(ctx, chunkIDs); err != nil {
		logger.Warn("Cleanup of lexical entries for %s failed: %v", docID, err)
		errs = append(errs, err)
	}
	if err := ix.deleteVectors(ctx, chunkIDs); err != nil {
		logger.Warn("Cleanup of vectors for %s failed: %v", docID, err)
		errs = append(errs, err)
	}
	if _, err := ix.docStore.DeleteDocument(ctx, docID); err != nil {
		logger.Warn("Cleanup of document %s failed: %v", docID, err)
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		logger.Error("Rollback of %s incomplete: %v", docID, err)
	}
}

// IndexBatch ingests files in order.
func (ix *Indexer) IndexBatch(
	ctx context.Context,
	reqs []domain.IngestRequest,
	failFast bool,
) domain.BatchIngestResult {
	result := domain.BatchIngestResult{
		Results: make([]domain.IngestResult, 0, len(reqs)),
		Summary: domain.BatchSummary{Total: len(reqs)},
	}

	stopped := false
	for _, req := range reqs {
		item := domain.IngestResult{FilePath: req.FilePath, Filename: filepath.Base(req.FilePath)}

		if stopped {
			item.Status = domain.IngestSkipped
			result.Results = append(result.Results, item)
			continue
		}

		id, err := ix.IndexDocument(ctx, req.FilePath, req.Metadata, req.Overrides)
		if err != nil {
			logger.Warn("Indexing %s failed: %v", req.FilePath, err)
			item.Status = domain.IngestError
			item.Err = err
			result.Summary.Failed++
			stopped = failFast
		} else {
			item.Status = domain.IngestSuccess
			item.DocumentID = id
			result.Summary.Succeeded++
		}
		result.Results = append(result.Results, item)
	}
	return result
}

// IndexDirectory ingests every file under dir that has a loader, in
// lexical path order. Failures are recorded per file.
func (ix *Indexer) IndexDirectory(
	ctx context.Context,
	dir string,
	recursive bool,
	metadata map[string]any,
) (domain.BatchIngestResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.BatchIngestResult{}, fmt.Errorf("%w: directory %s", domain.ErrNotFound, dir)
		}
		return domain.BatchIngestResult{}, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return domain.BatchIngestResult{}, fmt.Errorf("%w: not a directory: %s", domain.ErrValidation, dir)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && ix.loaders.Supported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return domain.BatchIngestResult{}, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(paths)

	logger.Info("Found %d supported files in %s", len(paths), dir)

	reqs := make([]domain.IngestRequest, len(paths))
	for i, p := range paths {
		reqs[i] = domain.IngestRequest{FilePath: p, Metadata: metadata}
	}
	return ix.IndexBatch(ctx, reqs, false), nil
}

// RemoveDocument deletes the document, then its vectors, lexical entries
// and entity edges. Derived-index failures are reported after all of them
// have been attempted.
func (ix *Indexer) RemoveDocument(ctx context.Context, documentID string) (bool, error) {
	chunks, err := ix.docStore.GetChunksByDocument(ctx, documentID)
	if err != nil {
		return false, fmt.Errorf("get chunks: %w", err)
	}
	chunkIDs := make([]string, len(chunks))
	for i, c := range chunks {
		chunkIDs[i] = c.ID
	}

	deleted, err := ix.docStore.DeleteDocument(ctx, documentID)
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	if !deleted {
		return false, nil
	}
	if len(chunkIDs) == 0 {
		return true, nil
	}

	var errs []error
	if err := ix.deleteVectors(ctx, chunkIDs); err != nil {
		errs = append(errs, fmt.Errorf("delete vectors: %w", err))
	}
	if err := ix.lexicalIndex.DeleteChunksBatch(ctx, chunkIDs); err != nil {
		errs = append(errs, fmt.Errorf("delete lexical entries: %w", err))
	}
	if ix.entityStore != nil {
		if _, err := ix.entityStore.DeleteChunksEntities(ctx, chunkIDs); err != nil {
			errs = append(errs, fmt.Errorf("delete entity edges: %w", err))
		}
	}

	logger.Info("Removed document %s and %d chunks", documentID, len(chunkIDs))
	return true, errors.Join(errs...)
}

// ReprocessEntities re-runs extraction for one document, or for every
// document when documentID is empty. Extra labels are added to the
// configured defaults for this pass.
func (ix *Indexer) ReprocessEntities(
	ctx context.Context,
	documentID string,
	extraLabels []string,
) (*domain.ReprocessResult, error) {
	if !ix.entitiesEnabled() {
		return nil, domain.ErrExtractorUnavailable
	}

	var docIDs []string
	if documentID != "" {
		if _, err := ix.docStore.GetDocument(ctx, documentID); err != nil {
			return nil, err
		}
		docIDs = []string{documentID}
	} else {
		docs, err := ix.docStore.ListDocuments(ctx)
		if err != nil {
			return nil, fmt.Errorf("list documents: %w", err)
		}
		for _, d := range docs {
			docIDs = append(docIDs, d.ID)
		}
	}

	result := &domain.ReprocessResult{}
	for _, id := range docIDs {
		chunks, err := ix.docStore.GetChunksByDocument(ctx, id)
		if err != nil {
			return result, fmt.Errorf("get chunks for %s: %w", id, err)
		}
		if len(chunks) > 0 {
			chunkIDs := make([]string, len(chunks))
			contents := make([]string, len(chunks))
			for i, c := range chunks {
				chunkIDs[i] = c.ID
				contents[i] = c.Content
			}

			if _, err := ix.entityStore.DeleteChunksEntities(ctx, chunkIDs); err != nil {
				return result, fmt.Errorf("clear entities for %s: %w", id, err)
			}
			n, err := ix.extractEntities(ctx, chunkIDs, contents, extraLabels)
			result.TotalEntities += n
			if err != nil {
				return result, fmt.Errorf("reprocess %s: %w", id, err)
			}
		}
		result.DocumentsProcessed++
	}
	return result, nil
}
