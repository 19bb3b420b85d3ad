package pagination

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxConcurrency is the fetch ceiling used when none is configured.
const DefaultMaxConcurrency = 25

var fetchesInFlight = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "collector_fetches_in_flight",
	Help: "Number of page fetches currently in flight",
})

// Config holds bounded fetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of fetches in flight at any instant
	MaxConcurrency int
}

// DefaultConfig returns the default fetcher configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: DefaultMaxConcurrency,
	}
}

// PageFetcher fetches the items of a single page.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, pageNum int) ([]T, error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc[T any] func(ctx context.Context, pageNum int) ([]T, error)

// FetchPage implements PageFetcher.
func (f PageFetcherFunc[T]) FetchPage(ctx context.Context, pageNum int) ([]T, error) {
	return f(ctx, pageNum)
}

// PageResult is one successfully fetched page
type PageResult[T any] struct {
	PageNumber int
	Items      []T
}

// BoundedFetcher fetches many pages concurrently under a fixed ceiling
type BoundedFetcher[T any] struct {
	fetcher PageFetcher[T]
	config  Config
}

// NewBoundedFetcher creates a new bounded fetcher
func NewBoundedFetcher[T any](fetcher PageFetcher[T], config Config) *BoundedFetcher[T] {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = DefaultMaxConcurrency
	}

	return &BoundedFetcher[T]{
		fetcher: fetcher,
		config:  config,
	}
}

// MaxConcurrency returns the effective concurrency ceiling.
func (bf *BoundedFetcher[T]) MaxConcurrency() int {
	return bf.config.MaxConcurrency
}

// FetchPages fetches every page in pages and calls consume once per page, in
// arrival order, from the calling goroutine. consume is never called
// concurrently.
//
// The first error, from a fetch or from consume, stops dispatching, cancels
// in-flight fetches through ctx and is returned unchanged. Pages that arrive
// after that point are dropped without reaching consume.
func (bf *BoundedFetcher[T]) FetchPages(ctx context.Context, pages []int, consume func(PageResult[T]) error) error {
	if len(pages) == 0 {
		return nil
	}

	start := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// firstErr is the error that aborted the run. Recording it before
	// cancelling keeps fetches that fail because of the cancellation from
	// taking its place.
	var (
		abortOnce sync.Once
		firstErr  error
	)
	abort := func(err error) {
		abortOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	var g errgroup.Group
	g.SetLimit(bf.config.MaxConcurrency)

	results := make(chan PageResult[T])

	log.Debug().
		Int("pages", len(pages)).
		Int("max_concurrency", bf.config.MaxConcurrency).
		Msg("Starting bounded page fetch")

	// Dispatcher: g.Go blocks while MaxConcurrency fetches are in flight,
	// so the next page goes out as soon as a slot frees up.
	go func() {
		defer close(results)

		for _, pageNum := range pages {
			if ctx.Err() != nil {
				break
			}
			pageNum := pageNum
			g.Go(func() error {
				// g.Go may have waited for a slot past an abort
				if ctx.Err() != nil {
					return nil
				}
				if err := bf.fetchOne(ctx, pageNum, results); err != nil {
					abort(err)
					return err
				}
				return nil
			})
		}

		_ = g.Wait()
	}()

	fetched := 0
	for result := range results {
		// Keep draining so the workers can exit, but never hand results
		// to consume once the run is aborted.
		if ctx.Err() != nil {
			continue
		}

		if err := consume(result); err != nil {
			abort(err)
			continue
		}
		fetched++

		if fetched%50 == 0 {
			log.Info().
				Int("fetched", fetched).
				Int("total", len(pages)).
				Float64("progress_pct", float64(fetched)/float64(len(pages))*100).
				Msg("Fetch progress")
		}
	}

	// results is closed after g.Wait, every abort happened before that.
	if firstErr != nil {
		log.Warn().
			Err(firstErr).
			Int("fetched_pages", fetched).
			Int("total_pages", len(pages)).
			Msg("Bounded page fetch aborted")
		return firstErr
	}
	// Parent context cancelled between dispatches
	if err := ctx.Err(); err != nil {
		return err
	}

	log.Debug().
		Int("pages", fetched).
		Dur("duration", time.Since(start)).
		Msg("Bounded page fetch complete")

	return nil
}

// fetchOne fetches a single page and hands it to the consumer loop.
func (bf *BoundedFetcher[T]) fetchOne(ctx context.Context, pageNum int, results chan<- PageResult[T]) error {
	fetchesInFlight.Inc()
	items, err := bf.fetcher.FetchPage(ctx, pageNum)
	fetchesInFlight.Dec()

	if err != nil {
		// Fetches cut short by an abort already in progress are not
		// worth a warning of their own.
		if ctx.Err() == nil {
			log.Warn().
				Err(err).
				Int("page", pageNum).
				Msg("Page fetch failed")
		}
		return err
	}

	select {
	case results <- PageResult[T]{PageNumber: pageNum, Items: items}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
