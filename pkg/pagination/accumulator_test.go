package pagination

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingFlusher records every batch it receives.
type recordingFlusher struct {
	batches [][]int
	err     error
}

func (f *recordingFlusher) UpsertMany(_ context.Context, items []int) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, items)
	return nil
}

func (f *recordingFlusher) sizes() []int {
	sizes := make([]int, len(f.batches))
	for i, b := range f.batches {
		sizes[i] = len(b)
	}
	return sizes
}

func seq(from, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = from + i
	}
	return out
}

func TestAccumulator_FlushBoundary(t *testing.T) {
	const threshold = 10
	flusher := &recordingFlusher{}
	acc := NewAccumulator[int](flusher, threshold)
	ctx := context.Background()

	// 2T + k records in pages of 5, k = 5
	for i := 0; i < 5; i++ {
		require.NoError(t, acc.Add(ctx, seq(i*5, 5)))
	}
	require.NoError(t, acc.Drain(ctx))

	assert.Equal(t, []int{10, 10, 5}, flusher.sizes())

	stats := acc.Stats()
	assert.Equal(t, 3, stats.Flushes)
	assert.Equal(t, 25, stats.RecordsFlushed)
	assert.Zero(t, stats.Pending)
}

func TestAccumulator_FlushesWholeBufferWhenPageOvershoots(t *testing.T) {
	flusher := &recordingFlusher{}
	acc := NewAccumulator[int](flusher, 10)
	ctx := context.Background()

	require.NoError(t, acc.Add(ctx, seq(0, 7)))
	require.NoError(t, acc.Add(ctx, seq(7, 7)))

	assert.Equal(t, []int{14}, flusher.sizes(), "buffer is flushed in full once it crosses the threshold")
	assert.Zero(t, acc.Stats().Pending)
}

func TestAccumulator_EveryRecordFlushedOnce(t *testing.T) {
	flusher := &recordingFlusher{}
	acc := NewAccumulator[int](flusher, 100)
	ctx := context.Background()

	next := 0
	for _, size := range []int{33, 71, 5, 100, 0, 42, 99} {
		require.NoError(t, acc.Add(ctx, seq(next, size)))
		next += size
	}
	require.NoError(t, acc.Drain(ctx))

	seen := make(map[int]int)
	for _, b := range flusher.batches {
		for _, v := range b {
			seen[v]++
		}
	}
	assert.Len(t, seen, next)
	for v, count := range seen {
		assert.Equal(t, 1, count, "record %d flushed %d times", v, count)
	}
}

func TestAccumulator_DrainEmpty(t *testing.T) {
	flusher := &recordingFlusher{}
	acc := NewAccumulator[int](flusher, 10)

	require.NoError(t, acc.Drain(context.Background()))
	require.NoError(t, acc.Add(context.Background(), seq(0, 10)))
	require.NoError(t, acc.Drain(context.Background()))

	assert.Equal(t, []int{10}, flusher.sizes(), "drain after an exact flush has nothing to do")
}

func TestAccumulator_FlushError(t *testing.T) {
	boom := errors.New("bulk write failed")
	flusher := &recordingFlusher{err: boom}
	acc := NewAccumulator[int](flusher, 3)

	require.NoError(t, acc.Add(context.Background(), seq(0, 2)))

	err := acc.Add(context.Background(), seq(2, 2))
	assert.Same(t, boom, err)
	assert.Zero(t, acc.Stats().Flushes)
}

func TestAccumulator_NoAliasingAfterHandoff(t *testing.T) {
	flusher := &recordingFlusher{}
	acc := NewAccumulator[int](flusher, 4)
	ctx := context.Background()

	require.NoError(t, acc.Add(ctx, []int{1, 2, 3, 4}))
	require.NoError(t, acc.Add(ctx, []int{9, 9, 9}))

	assert.Equal(t, []int{1, 2, 3, 4}, flusher.batches[0])
}

func TestNewAccumulator_DefaultThreshold(t *testing.T) {
	acc := NewAccumulator[int](&recordingFlusher{}, 0)
	assert.Equal(t, DefaultBatchSize, acc.threshold)
}
