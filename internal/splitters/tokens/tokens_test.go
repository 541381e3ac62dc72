package tokens

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeCounter struct {
	counts []int
	err    error
}

func (f *fakeCounter) CountTokens(_ context.Context, _ []string) ([]int, error) {
	return f.counts, f.err
}

func TestEstimate(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, 0, Estimate(ctx, ""))
	assert.Equal(t, 0, Estimate(ctx, "abc"))
	assert.Equal(t, 2, Estimate(ctx, "abcdefgh"))
	assert.Equal(t, 1, Estimate(ctx, "éééé"))
}

func TestFromCounter(t *testing.T) {
	ctx := context.Background()

	est := FromCounter(&fakeCounter{counts: []int{7}})
	assert.Equal(t, 7, est(ctx, "anything"))
}

func TestFromCounter_FallsBackOnError(t *testing.T) {
	est := FromCounter(&fakeCounter{err: errors.New("worker down")})
	assert.Equal(t, 2, est(context.Background(), "abcdefgh"))
}

func TestFromCounter_Nil(t *testing.T) {
	est := FromCounter(nil)
	assert.Equal(t, 2, est(context.Background(), "abcdefgh"))
}
