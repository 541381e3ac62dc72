package worker

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// Ensure EntityExtractor implements the interface.
var _ driven.EntityExtractor = (*EntityExtractor)(nil)

// EntityExtractor finds named entities with a NER worker process.
type EntityExtractor struct {
	proc caller
}

// NewEntityExtractor wraps a started NER worker.
func NewEntityExtractor(proc caller) *EntityExtractor {
	return &EntityExtractor{proc: proc}
}

// Extract returns the entities found in each text, in input order.
// Offsets are relative to each text.
func (x *EntityExtractor) Extract(ctx context.Context, texts, labels []string) ([][]domain.Entity, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp nerResponse
	if err := x.proc.Call(ctx, request{Texts: texts, Labels: labels}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) != len(texts) {
		return nil, fmt.Errorf("worker returned %d results for %d texts", len(resp.Results), len(texts))
	}

	out := make([][]domain.Entity, len(resp.Results))
	for i, found := range resp.Results {
		for _, e := range found {
			out[i] = append(out[i], domain.Entity{
				Text:  e.Text,
				Label: e.Label,
				Start: e.Start,
				End:   e.End,
				Score: e.Score,
			})
		}
	}
	return out, nil
}

// Close stops the worker.
func (x *EntityExtractor) Close() error {
	return x.proc.Close()
}
