// Package tokens estimates how many model tokens a text will use.
package tokens

import (
	"context"
	"unicode/utf8"

	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Estimator returns the token count of text.
type Estimator func(ctx context.Context, text string) int

// Estimate is the conservative default: four characters per token.
func Estimate(_ context.Context, text string) int {
	return utf8.RuneCountInString(text) / 4
}

// FromCounter uses the model tokenizer behind c, falling back to Estimate
// when counting fails.
func FromCounter(c driven.TokenCounter) Estimator {
	if c == nil {
		return Estimate
	}
	return func(ctx context.Context, text string) int {
		counts, err := c.CountTokens(ctx, []string{text})
		if err != nil || len(counts) != 1 {
			logger.Warn("token counting failed, using estimate: %v", err)
			return Estimate(ctx, text)
		}
		return counts[0]
	}
}
