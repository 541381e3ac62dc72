package structural

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

func runeLen(_ context.Context, s string) int {
	return utf8.RuneCountInString(s)
}

func spanText(text string, c domain.TextChunk) string {
	return strings.TrimSpace(string([]rune(text)[c.StartChar:c.EndChar]))
}

func TestParagraphs(t *testing.T) {
	text := "one\n\ntwo\n\n\n\nthree\n\n   \n\nfour"
	spans := paragraphs(text)

	require.Len(t, spans, 4)
	runes := []rune(text)
	var got []string
	for _, sp := range spans {
		got = append(got, strings.TrimSpace(string(runes[sp.start:sp.end])))
	}
	assert.Equal(t, []string{"one", "two", "three", "four"}, got)
}

func TestParagraphs_Multibyte(t *testing.T) {
	text := "café\n\nnaïve"
	spans := paragraphs(text)

	require.Len(t, spans, 2)
	assert.Equal(t, span{0, 4}, spans[0])
	assert.Equal(t, span{6, 11}, spans[1])
}

func TestSplit_SmallDocumentIsOneChunk(t *testing.T) {
	text := "First paragraph.\n\nSecond paragraph."

	chunks, err := New(Config{}).Split(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, text, chunks[0].Content)
	assert.Equal(t, 0, chunks[0].StartChar)
	assert.Equal(t, len(text), chunks[0].EndChar)
	assert.Equal(t, "structural", chunks[0].Metadata["splitter"])
	assert.Equal(t, "structural", chunks[0].Metadata["split_type"])
}

func TestSplit_GroupsUpToMaxSize(t *testing.T) {
	para := strings.Repeat("p", 40)
	text := strings.Join([]string{para, para, para, para, para}, "\n\n")

	s := New(Config{MinChunkSize: 10, MaxChunkSize: 100})
	chunks, err := s.Split(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	// Two paragraphs plus their separator fit in 100 characters.
	assert.Equal(t, para+"\n\n"+para, chunks[0].Content)
	assert.Equal(t, para+"\n\n"+para, chunks[1].Content)
	assert.Equal(t, para, chunks[2].Content)
	for _, c := range chunks {
		assert.Equal(t, spanText(text, c), c.Content)
	}
}

func TestSplit_TokenLimitFlushes(t *testing.T) {
	para := strings.Repeat("w", 30)
	text := strings.Join([]string{para, para, para}, "\n\n")

	s := New(Config{MinChunkSize: 1, MaxChunkSize: 1000, MaxTokens: 50, Estimator: runeLen})
	chunks, err := s.Split(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, 30, chunks[0].Metadata["estimated_tokens"])
}

func TestSplit_OversizedParagraphFallsBack(t *testing.T) {
	big := strings.Repeat("word ", 60)
	text := "intro\n\n" + big + "\n\noutro"

	s := New(Config{MinChunkSize: 1, MaxChunkSize: 100})
	chunks, err := s.Split(context.Background(), text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 3)

	assert.Equal(t, "intro", chunks[0].Content)
	assert.Equal(t, "outro", chunks[len(chunks)-1].Content)

	middle := chunks[1 : len(chunks)-1]
	for _, c := range middle {
		assert.Equal(t, "recursive", c.Metadata["splitter"])
		assert.Equal(t, spanText(text, c), c.Content)
		assert.GreaterOrEqual(t, c.StartChar, 7)
	}
}

func TestSplit_SmallTailMerged(t *testing.T) {
	para := strings.Repeat("m", 60)
	text := para + "\n\n" + "tail"

	s := New(Config{MinChunkSize: 20, MaxChunkSize: 62})
	chunks, err := s.Split(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Content)
	assert.Equal(t, 16, chunks[0].Metadata["estimated_tokens"])
}

func TestSplit_SmallTailKeptAtTokenCeiling(t *testing.T) {
	para := strings.Repeat("m", 18)
	text := para + "\n\n" + "tail"

	s := New(Config{MinChunkSize: 20, MaxChunkSize: 1000, MaxTokens: 20, Estimator: runeLen})
	chunks, err := s.Split(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "tail", chunks[1].Content)
}

func TestSplit_Empty(t *testing.T) {
	chunks, err := New(Config{}).Split(context.Background(), "\n\n\n")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplit_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{}).Split(ctx, "a\n\nb")
	assert.ErrorIs(t, err, context.Canceled)
}
