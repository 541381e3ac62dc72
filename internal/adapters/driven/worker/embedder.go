package worker

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// caller sends one request to a worker.
type caller interface {
	Call(ctx context.Context, req, resp any) error
	Close() error
}

// Ensure Embedder implements the interfaces.
var (
	_ driven.EmbeddingService = (*Embedder)(nil)
	_ driven.TokenCounter     = (*Embedder)(nil)
)

// dimensionProbe is embedded once when the width is not configured.
const dimensionProbe = "dimension probe"

// Embedder is an embedding service backed by a worker process.
type Embedder struct {
	proc  caller
	model string
	dim   int
}

// NewEmbedder wraps a started worker. When dimensions is zero the width is
// learned by embedding a probe text.
func NewEmbedder(ctx context.Context, proc caller, model string, dimensions int) (*Embedder, error) {
	e := &Embedder{proc: proc, model: model, dim: dimensions}
	if e.dim > 0 {
		return e, nil
	}

	vectors, err := e.EmbedBatch(ctx, []string{dimensionProbe}, driven.EmbedOptions{})
	if err != nil {
		return nil, fmt.Errorf("probe embedding width: %w", err)
	}
	e.dim = len(vectors[0])
	if e.dim == 0 {
		return nil, fmt.Errorf("probe embedding width: worker returned an empty vector")
	}
	return e, nil
}

// Embed generates a vector embedding for the given text.
func (e *Embedder) Embed(ctx context.Context, text string, opts driven.EmbedOptions) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text}, opts)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in one request.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string, opts driven.EmbedOptions) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embedResponse
	err := e.proc.Call(ctx, request{Texts: texts, TaskType: opts.Task, Title: opts.Title}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Vectors) != len(texts) {
		return nil, fmt.Errorf("worker returned %d vectors for %d texts", len(resp.Vectors), len(texts))
	}
	return resp.Vectors, nil
}

// CountTokens counts tokens with the model's tokenizer.
func (e *Embedder) CountTokens(ctx context.Context, texts []string) ([]int, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embedResponse
	if err := e.proc.Call(ctx, request{Command: commandCountTokens, Texts: texts}, &resp); err != nil {
		return nil, err
	}
	if len(resp.TokenCounts) != len(texts) {
		return nil, fmt.Errorf("worker returned %d token counts for %d texts", len(resp.TokenCounts), len(texts))
	}
	return resp.TokenCounts, nil
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dim
}

// ModelName returns the name of the embedding model being used.
func (e *Embedder) ModelName() string {
	return e.model
}

// Ping checks the worker still answers.
func (e *Embedder) Ping(ctx context.Context) error {
	var resp embedResponse
	return e.proc.Call(ctx, request{Command: commandPing}, &resp)
}

// Close stops the worker.
func (e *Embedder) Close() error {
	return e.proc.Close()
}
