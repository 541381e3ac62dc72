package recursive

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// runeLen counts characters so tests can use a 1:1 token estimate.
func runeLen(_ context.Context, s string) int {
	return utf8.RuneCountInString(s)
}

// assertSpans checks that every chunk is the trimmed text of its span and
// that consecutive spans leave no gap.
func assertSpans(t *testing.T, text string, chunks []domain.TextChunk) {
	t.Helper()
	runes := []rune(text)
	for i, c := range chunks {
		require.LessOrEqual(t, c.EndChar, len(runes))
		assert.Equal(t, strings.TrimSpace(string(runes[c.StartChar:c.EndChar])), c.Content, "chunk %d", i)
		if i > 0 {
			assert.LessOrEqual(t, c.StartChar, chunks[i-1].EndChar, "gap before chunk %d", i)
			assert.Greater(t, c.StartChar, chunks[i-1].StartChar, "chunk %d did not advance", i)
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	s := New()
	assert.Equal(t, domain.DefaultChunkSize, s.chunkSize)
	assert.Equal(t, domain.DefaultChunkOverlap, s.overlap)
	assert.Equal(t, domain.DefaultMaxTokens, s.maxTokens)
	assert.Equal(t, "recursive", s.Name())
}

func TestNew_OverlapClamped(t *testing.T) {
	s := New(WithChunkSize(100), WithOverlap(150))
	assert.Equal(t, 25, s.overlap)
}

func TestSplit_ShortText(t *testing.T) {
	chunks, err := New().Split(context.Background(), "  The quick brown fox.  ")
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, "The quick brown fox.", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].StartChar)
	assert.Equal(t, 24, chunks[0].EndChar)
	assert.Equal(t, "recursive", chunks[0].Metadata["splitter"])
	assert.Equal(t, 6, chunks[0].Metadata["estimated_tokens"])
}

func TestSplit_EmptyAndBlank(t *testing.T) {
	for _, in := range []string{"", "   \n\n\t "} {
		chunks, err := New().Split(context.Background(), in)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestSplit_PrefersParagraphBreak(t *testing.T) {
	first := strings.Repeat("a", 80)
	text := first + "\n\n" + strings.Repeat("b ", 40)

	s := New(WithChunkSize(100), WithOverlap(10))
	chunks, err := s.Split(context.Background(), text)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)

	assert.Equal(t, first, chunks[0].Content)
	assert.Equal(t, 82, chunks[0].EndChar)
	assert.Equal(t, 72, chunks[1].StartChar)
	assertSpans(t, text, chunks)
}

func TestSplit_IgnoresEarlySeparator(t *testing.T) {
	// The only sentence break sits before 70% of the window, so the
	// splitter falls back to the last space.
	text := "Hi. " + strings.Repeat("word ", 40)

	s := New(WithChunkSize(50), WithOverlap(0))
	chunks, err := s.Split(context.Background(), text)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	assert.Equal(t, 49, chunks[0].EndChar)
	assert.True(t, strings.HasSuffix(chunks[0].Content, "word"))
	assertSpans(t, text, chunks)
}

func TestSplit_NoWhitespaceHardBreak(t *testing.T) {
	text := strings.Repeat("x", 250)

	s := New(WithChunkSize(100), WithOverlap(0))
	chunks, err := s.Split(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, 100, chunks[0].EndChar)
	assert.Equal(t, 200, chunks[1].EndChar)
	assert.Equal(t, 250, chunks[2].EndChar)
	assertSpans(t, text, chunks)
}

func TestSplit_TokenCeilingShrinksWindow(t *testing.T) {
	text := strings.Repeat("token ", 100)

	s := New(WithChunkSize(200), WithOverlap(0), WithMaxTokens(60), WithEstimator(runeLen))
	chunks, err := s.Split(context.Background(), text)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for _, c := range chunks {
		assert.LessOrEqual(t, c.EndChar-c.StartChar, 60)
		assert.LessOrEqual(t, c.Metadata["estimated_tokens"].(int), 60)
	}
	assertSpans(t, text, chunks)
}

func TestSplit_MultibyteOffsets(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 30)

	s := New(WithChunkSize(50), WithOverlap(5))
	chunks, err := s.Split(context.Background(), text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	assertSpans(t, text, chunks)
	assert.Equal(t, utf8.RuneCountInString(text), chunks[len(chunks)-1].EndChar)
}

func TestSplit_CoversWholeText(t *testing.T) {
	text := strings.Repeat("Sentence one is here. Another follows! Is this a question? Yes; it is, indeed.\n", 200)

	chunks, err := New().Split(context.Background(), text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	assert.Equal(t, 0, chunks[0].StartChar)
	assert.Equal(t, len([]rune(text)), chunks[len(chunks)-1].EndChar)
	assertSpans(t, text, chunks)
}

func TestSplit_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Split(ctx, "some text")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLastIndex(t *testing.T) {
	assert.Equal(t, 6, lastIndex([]rune("ab. cd. ef"), []rune(". ")))
	assert.Equal(t, -1, lastIndex([]rune("abc"), []rune("\n\n")))
	assert.Equal(t, -1, lastIndex([]rune("a"), []rune("ab")))
}
