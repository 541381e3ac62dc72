package services

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Entity extraction limits. NER models take a few hundred tokens of context
// and a handful of labels per pass.
const (
	DefaultSubChunkWords   = 320
	DefaultSubChunkOverlap = 10
	DefaultLabelsPerPass   = 10

	// A trailing label batch smaller than this is merged into the previous one.
	minLabelBatch = 5
)

// EntityPipeline runs an EntityExtractor over chunks of any size. Chunks
// are cut into overlapping word windows, every window is sent once per
// label batch, and results are shifted back to chunk offsets and
// deduplicated by (lower-cased text, label).
type EntityPipeline struct {
	extractor     driven.EntityExtractor
	words         int
	overlap       int
	labelsPerPass int
}

// NewEntityPipeline creates a pipeline with the default limits.
func NewEntityPipeline(extractor driven.EntityExtractor) *EntityPipeline {
	return &EntityPipeline{
		extractor:     extractor,
		words:         DefaultSubChunkWords,
		overlap:       DefaultSubChunkOverlap,
		labelsPerPass: DefaultLabelsPerPass,
	}
}

// Extract returns the entities found in each text, in input order.
// Default labels form the first pass; extra labels not already among the
// defaults follow in batches.
func (p *EntityPipeline) Extract(
	ctx context.Context,
	texts []string,
	defaults, extra []string,
) ([][]domain.Entity, error) {
	out := make([][]domain.Entity, len(texts))

	batches := batchLabels(defaults, extra, p.labelsPerPass)
	if len(batches) == 0 {
		logger.Warn("No labels configured for entity extraction")
		return out, nil
	}

	// Flatten every window of every text into one request per label batch.
	type window struct {
		text   int
		offset int
	}
	var windows []window
	var windowTexts []string
	for i, text := range texts {
		for _, sc := range subChunks(text, p.words, p.overlap) {
			windows = append(windows, window{text: i, offset: sc.start})
			windowTexts = append(windowTexts, sc.content)
		}
	}
	if len(windowTexts) == 0 {
		return out, nil
	}

	logger.Debug("Extracting entities from %d windows in %d label passes", len(windowTexts), len(batches))

	for _, labels := range batches {
		results, err := p.extractor.Extract(ctx, windowTexts, labels)
		if err != nil {
			return nil, err
		}
		if len(results) != len(windowTexts) {
			return nil, fmt.Errorf("extractor returned %d results for %d texts", len(results), len(windowTexts))
		}
		for j, found := range results {
			w := windows[j]
			for _, e := range found {
				e.Start += w.offset
				e.End += w.offset
				out[w.text] = append(out[w.text], e)
			}
		}
	}

	for i := range out {
		out[i] = dedupeEntities(out[i])
	}
	return out, nil
}

// batchLabels puts up to size defaults in the first batch, then any
// remaining defaults and the extra labels not among them in batches of
// size. A final batch smaller than minLabelBatch is merged into the one
// before it.
func batchLabels(defaults, extra []string, size int) [][]string {
	var batches [][]string
	first := min(len(defaults), size)
	if first > 0 {
		batches = append(batches, defaults[:first:first])
	}

	seen := make(map[string]bool, len(defaults)+len(extra))
	for _, l := range defaults {
		seen[strings.ToLower(l)] = true
	}
	remaining := append([]string(nil), defaults[first:]...)
	for _, l := range extra {
		key := strings.ToLower(strings.TrimSpace(l))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		remaining = append(remaining, l)
	}

	for len(remaining) > 0 {
		n := min(len(remaining), size)
		batch := remaining[:n:n]
		remaining = remaining[n:]
		if len(remaining) > 0 && len(remaining) < minLabelBatch {
			batch = append(batch, remaining...)
			remaining = nil
		}
		batches = append(batches, batch)
	}
	return batches
}

// subChunk is a window of a text, with its character offset.
type subChunk struct {
	content string
	start   int
}

// subChunks cuts text into windows of at most size words, each starting
// overlap words before the previous one ended. Offsets are in characters.
func subChunks(text string, size, overlap int) []subChunk {
	runes := []rune(text)

	type word struct{ start, end int }
	var words []word
	for i := 0; i < len(runes); {
		if unicode.IsSpace(runes[i]) {
			i++
			continue
		}
		j := i
		for j < len(runes) && !unicode.IsSpace(runes[j]) {
			j++
		}
		words = append(words, word{i, j})
		i = j
	}

	if len(words) == 0 {
		return nil
	}
	if len(words) <= size {
		return []subChunk{{content: text, start: 0}}
	}

	step := max(size-overlap, 1)
	var out []subChunk
	for first := 0; first < len(words); first += step {
		last := min(first+size, len(words)) - 1
		start, end := words[first].start, words[last].end
		out = append(out, subChunk{content: string(runes[start:end]), start: start})
		if last == len(words)-1 {
			break
		}
	}
	return out
}

// dedupeEntities keeps the highest scoring entity per (lower-cased text,
// label), in first-seen order.
func dedupeEntities(entities []domain.Entity) []domain.Entity {
	if len(entities) == 0 {
		return nil
	}

	type key struct{ text, label string }
	index := make(map[key]int, len(entities))
	out := make([]domain.Entity, 0, len(entities))
	for _, e := range entities {
		k := key{strings.ToLower(e.Text), e.Label}
		if i, ok := index[k]; ok {
			if e.Score > out[i].Score {
				out[i] = e
			}
			continue
		}
		index[k] = len(out)
		out = append(out, e)
	}
	return out
}
