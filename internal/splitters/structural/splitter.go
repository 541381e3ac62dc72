// Package structural groups whole paragraphs into chunks, falling back to
// the recursive splitter for paragraphs too large to keep whole.
package structural

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/splitters/recursive"
	"github.com/custodia-labs/ragcore/internal/splitters/tokens"
)

// Name is the strategy name.
const Name = domain.StrategyStructural

var paragraphBreak = regexp.MustCompile(`\n\n+`)

// Ensure Splitter implements the interface.
var _ driven.Splitter = (*Splitter)(nil)

// Splitter is the paragraph-accumulating splitter.
type Splitter struct {
	minSize   int
	maxSize   int
	maxTokens int
	estimate  tokens.Estimator
	fallback  *recursive.Splitter
}

// Config holds the structural splitter limits. Zero values use defaults.
type Config struct {
	MinChunkSize int
	MaxChunkSize int
	MaxTokens    int
	Estimator    tokens.Estimator
}

// New creates a structural splitter.
func New(cfg Config) *Splitter {
	s := &Splitter{
		minSize:   domain.DefaultMinChunkSize,
		maxSize:   domain.DefaultMaxChunkSize,
		maxTokens: domain.DefaultMaxTokens,
		estimate:  tokens.Estimate,
	}
	if cfg.MinChunkSize > 0 {
		s.minSize = cfg.MinChunkSize
	}
	if cfg.MaxChunkSize > 0 {
		s.maxSize = cfg.MaxChunkSize
	}
	if cfg.MaxTokens > 0 {
		s.maxTokens = cfg.MaxTokens
	}
	if cfg.Estimator != nil {
		s.estimate = cfg.Estimator
	}

	s.fallback = recursive.New(
		recursive.WithChunkSize(s.maxSize),
		recursive.WithMaxTokens(s.maxTokens),
		recursive.WithEstimator(s.estimate),
	)
	return s
}

// Name returns the strategy name.
func (s *Splitter) Name() string {
	return Name
}

// span is a half-open character range.
type span struct {
	start, end int
}

// Split accumulates paragraphs until the next one would exceed the
// character or token limit. Chunk content is the trimmed source text of
// its span, so paragraph separators are preserved. A final group shorter
// than the minimum size is folded into the preceding paragraph group,
// which may then exceed the character limit but never the token ceiling.
func (s *Splitter) Split(ctx context.Context, content string) ([]domain.TextChunk, error) {
	text := []rune(content)
	var chunks []domain.TextChunk

	var cur span
	curTokens := 0
	open := false
	// lastGrouped is the index of the last chunk built from paragraphs, or
	// -1 when the previous chunk came from the fallback.
	lastGrouped := -1

	flush := func() {
		if !open {
			return
		}
		chunks = append(chunks, s.chunk(string(text[cur.start:cur.end]), cur, curTokens))
		lastGrouped = len(chunks) - 1
		open = false
	}

	for _, sec := range paragraphs(content) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		secTokens := s.estimate(ctx, string(text[sec.start:sec.end]))

		if secTokens > s.maxTokens || sec.end-sec.start > s.maxSize {
			flush()
			sub, err := s.fallback.Split(ctx, string(text[sec.start:sec.end]))
			if err != nil {
				return nil, err
			}
			for _, c := range sub {
				c.StartChar += sec.start
				c.EndChar += sec.start
				chunks = append(chunks, c)
			}
			lastGrouped = -1
			continue
		}

		if open && (curTokens+secTokens > s.maxTokens || sec.end-cur.start > s.maxSize) {
			flush()
		}
		if !open {
			cur = sec
			curTokens = 0
			open = true
		}
		cur.end = sec.end
		curTokens += secTokens
	}

	if open && cur.end-cur.start < s.minSize && lastGrouped == len(chunks)-1 && lastGrouped >= 0 {
		prev := chunks[lastGrouped]
		merged := span{start: prev.StartChar, end: cur.end}
		mergedTokens := prev.Metadata["estimated_tokens"].(int) + curTokens
		if mergedTokens <= s.maxTokens {
			chunks[lastGrouped] = s.chunk(string(text[merged.start:merged.end]), merged, mergedTokens)
			open = false
		}
	}
	flush()

	return chunks, nil
}

func (s *Splitter) chunk(raw string, sp span, est int) domain.TextChunk {
	return domain.TextChunk{
		Content:   strings.TrimSpace(raw),
		StartChar: sp.start,
		EndChar:   sp.end,
		Metadata: map[string]any{
			"split_type":       "structural",
			"estimated_tokens": est,
			"splitter":         Name,
		},
	}
}

// paragraphs returns the character spans of the non-blank paragraphs.
func paragraphs(content string) []span {
	var spans []span
	bytePos, runePos := 0, 0

	add := func(byteEnd int) {
		segment := content[bytePos:byteEnd]
		length := utf8.RuneCountInString(segment)
		if strings.TrimSpace(segment) != "" {
			spans = append(spans, span{start: runePos, end: runePos + length})
		}
		runePos += length
		bytePos = byteEnd
	}

	for _, m := range paragraphBreak.FindAllStringIndex(content, -1) {
		add(m[0])
		runePos += utf8.RuneCountInString(content[m[0]:m[1]])
		bytePos = m[1]
	}
	add(len(content))
	return spans
}
