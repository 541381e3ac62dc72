package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested document, chunk or entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a document with the same filename is already indexed.
	ErrAlreadyExists = errors.New("already exists")

	// ErrDimensionMismatch indicates a vector width differs from the database's width.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidQuery indicates malformed boolean, phrase or prefix syntax.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrValidation indicates conflicting or incomplete request fields.
	ErrValidation = errors.New("validation error")

	// ErrUnsupportedFileType indicates no loader is registered for an extension.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrUnknownStrategy indicates no splitter is registered for a strategy name.
	ErrUnknownStrategy = errors.New("unknown splitter strategy")

	// ErrStorageFailure indicates the underlying persistence layer failed.
	ErrStorageFailure = errors.New("storage failure")

	// ErrPartialIngest indicates a downstream ingestion stage failed after
	// the document row was committed.
	ErrPartialIngest = errors.New("partial ingest failure")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Vector/semantic search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrExtractorUnavailable indicates entity extraction is not configured.
	ErrExtractorUnavailable = errors.New("entity extractor unavailable")

	// Worker Errors.

	// ErrWorkerNotReady indicates a worker process did not answer readiness polling.
	ErrWorkerNotReady = errors.New("worker not ready")

	// ErrWorkerClosed indicates the worker process has been stopped.
	ErrWorkerClosed = errors.New("worker closed")
)

// DimensionMismatchError reports a vector whose width differs from the
// width configured for the database.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Is lets errors.Is match ErrDimensionMismatch.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// IngestStage names the pipeline stage where an ingestion failed.
type IngestStage string

// Ingestion stages that can fail after the document is persisted.
const (
	StageEmbedding IngestStage = "embedding"
	StageLexical   IngestStage = "lexical"
	StageEntities  IngestStage = "entities"
)

// PartialIngestError wraps the original cause of a failed ingestion.
// The compensating cleanup has already run when this is returned.
type PartialIngestError struct {
	DocumentID string
	Stage      IngestStage
	Err        error
}

func (e *PartialIngestError) Error() string {
	return fmt.Sprintf("ingest of %s failed at %s stage: %v", e.DocumentID, e.Stage, e.Err)
}

// Unwrap returns the original cause.
func (e *PartialIngestError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrPartialIngest as well as the cause.
func (e *PartialIngestError) Is(target error) bool {
	return target == ErrPartialIngest
}
