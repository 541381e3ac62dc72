// Package recursive splits text into fixed-size windows that end on the
// strongest nearby boundary and overlap their predecessor.
package recursive

import (
	"context"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/splitters/tokens"
)

// Name is the strategy name.
const Name = domain.StrategyRecursive

// separators in priority order: paragraph, line, sentence, clause.
var separators = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune(". "),
	[]rune("! "),
	[]rune("? "),
	[]rune("; "),
	[]rune(", "),
}

// A separator is only used when it falls past this share of the window.
const minBreakRatio = 0.7

// Ensure Splitter implements the interface.
var _ driven.Splitter = (*Splitter)(nil)

// Splitter is the recursive character splitter.
type Splitter struct {
	chunkSize int
	overlap   int
	maxTokens int
	estimate  tokens.Estimator
}

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the window size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between windows in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// WithMaxTokens sets the token ceiling per chunk.
func WithMaxTokens(n int) Option {
	return func(s *Splitter) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithEstimator sets the token estimator.
func WithEstimator(est tokens.Estimator) Option {
	return func(s *Splitter) {
		if est != nil {
			s.estimate = est
		}
	}
}

// New creates a recursive splitter.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize: domain.DefaultChunkSize,
		overlap:   domain.DefaultChunkOverlap,
		maxTokens: domain.DefaultMaxTokens,
		estimate:  tokens.Estimate,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Overlap must leave room to advance.
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}
	return s
}

// Name returns the strategy name.
func (s *Splitter) Name() string {
	return Name
}

// Split walks the text window by window. Whitespace-only windows are
// dropped; every other window becomes a trimmed chunk whose offsets cover
// the untrimmed span.
func (s *Splitter) Split(ctx context.Context, content string) ([]domain.TextChunk, error) {
	text := []rune(content)
	n := len(text)

	var chunks []domain.TextChunk
	for start := 0; start < n; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+s.chunkSize, n)
		if end < n {
			end = s.breakPoint(text, start, end)
		}

		window := string(text[start:end])
		est := s.estimate(ctx, window)
		for est > s.maxTokens && end-start > 1 {
			end = s.shrink(text, start, end)
			window = string(text[start:end])
			est = s.estimate(ctx, window)
		}

		if trimmed := strings.TrimSpace(window); trimmed != "" {
			chunks = append(chunks, domain.TextChunk{
				Content:   trimmed,
				StartChar: start,
				EndChar:   end,
				Metadata: map[string]any{
					"estimated_tokens": est,
					"splitter":         Name,
				},
			})
		}

		if end >= n {
			break
		}
		next := end - s.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks, nil
}

// breakPoint moves end back to the best boundary in text[start:end].
func (s *Splitter) breakPoint(text []rune, start, end int) int {
	window := text[start:end]
	threshold := int(float64(s.chunkSize) * minBreakRatio)

	for _, sep := range separators {
		if i := lastIndex(window, sep); i > threshold {
			return start + i + len(sep)
		}
	}
	if i := lastWhitespace(window); i > 0 {
		return start + i + 1
	}
	return end
}

// shrink cuts a tenth of the chunk size and backs off to whitespace.
func (s *Splitter) shrink(text []rune, start, end int) int {
	end -= max(s.chunkSize/10, 1)
	if end <= start {
		return start + 1
	}
	if i := lastWhitespace(text[start:end]); i > 0 {
		return start + i + 1
	}
	return end
}

func lastIndex(s, sep []rune) int {
outer:
	for i := len(s) - len(sep); i >= 0; i-- {
		for j, r := range sep {
			if s[i+j] != r {
				continue outer
			}
		}
		return i
	}
	return -1
}

func lastWhitespace(s []rune) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ' ' || s[i] == '\n' || s[i] == '\t' {
			return i
		}
	}
	return -1
}
