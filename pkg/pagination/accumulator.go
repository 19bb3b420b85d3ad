package pagination

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// DefaultBatchSize is the flush threshold used when none is configured.
const DefaultBatchSize = 1000

var (
	flushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collector_flushes_total",
		Help: "Total number of batch flushes",
	})

	flushedRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collector_records_flushed_total",
		Help: "Total number of records handed to the flusher",
	})
)

// Flusher persists one batch.
type Flusher[T any] interface {
	UpsertMany(ctx context.Context, items []T) error
}

// AccumulatorStats summarizes what an accumulator has flushed so far.
type AccumulatorStats struct {
	Flushes        int
	RecordsFlushed int
	Pending        int
}

// Accumulator folds pages into a buffer and flushes it in batches.
// It is not safe for concurrent use: a single consumer owns it.
type Accumulator[T any] struct {
	flusher   Flusher[T]
	threshold int
	buf       []T

	flushes int
	flushed int
}

// NewAccumulator creates an accumulator flushing to flusher whenever the
// buffer holds at least threshold items.
func NewAccumulator[T any](flusher Flusher[T], threshold int) *Accumulator[T] {
	if threshold <= 0 {
		threshold = DefaultBatchSize
	}
	return &Accumulator[T]{
		flusher:   flusher,
		threshold: threshold,
		buf:       make([]T, 0, threshold),
	}
}

// Add appends items to the buffer and flushes the whole buffer once it
// reaches the threshold.
func (a *Accumulator[T]) Add(ctx context.Context, items []T) error {
	a.buf = append(a.buf, items...)
	if len(a.buf) < a.threshold {
		return nil
	}

	log.Info().
		Int("records_in_batch", len(a.buf)).
		Msg("Saving batch")
	return a.flush(ctx)
}

// Drain flushes whatever is left in the buffer. No-op on an empty buffer.
func (a *Accumulator[T]) Drain(ctx context.Context) error {
	if len(a.buf) == 0 {
		return nil
	}

	log.Info().
		Int("records_in_batch", len(a.buf)).
		Msg("Saving final batch")
	return a.flush(ctx)
}

// Stats returns flush counters and the number of buffered items.
func (a *Accumulator[T]) Stats() AccumulatorStats {
	return AccumulatorStats{
		Flushes:        a.flushes,
		RecordsFlushed: a.flushed,
		Pending:        len(a.buf),
	}
}

// flush hands the buffer to the flusher and starts a fresh one, so the
// flusher may keep the slice it was given.
func (a *Accumulator[T]) flush(ctx context.Context) error {
	batch := a.buf
	a.buf = make([]T, 0, a.threshold)

	if err := a.flusher.UpsertMany(ctx, batch); err != nil {
		return err
	}

	a.flushes++
	a.flushed += len(batch)
	flushesTotal.Inc()
	flushedRecordsTotal.Add(float64(len(batch)))

	return nil
}
