package driving

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// IndexerService ingests and removes documents across every store.
type IndexerService interface {
	// IndexDocument ingests one file and returns the new document id.
	IndexDocument(ctx context.Context, path string, metadata map[string]any,
		overrides *domain.SplitterOverrides) (string, error)

	// IndexBatch ingests files in order. With failFast the batch stops at
	// the first error and the remaining files are reported as skipped.
	IndexBatch(ctx context.Context, reqs []domain.IngestRequest, failFast bool) domain.BatchIngestResult

	// IndexDirectory ingests every supported file under dir.
	IndexDirectory(ctx context.Context, dir string, recursive bool,
		metadata map[string]any) (domain.BatchIngestResult, error)

	// RemoveDocument deletes a document from every store.
	// Returns false if it did not exist.
	RemoveDocument(ctx context.Context, documentID string) (bool, error)
}
