// Package collector runs the full catalog collection: fetch page 1, plan the
// remaining pages, fetch them with bounded concurrency and upsert everything
// in batches.
package collector

import (
	"context"
	"time"

	"github.com/Sternrassler/tunecore-collector/pkg/catalog"
	"github.com/Sternrassler/tunecore-collector/pkg/logging"
	"github.com/Sternrassler/tunecore-collector/pkg/pagination"
	"github.com/Sternrassler/tunecore-collector/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collector_pages_fetched_total",
		Help: "Total number of catalog pages fetched by collection runs",
	})

	recordsUpsertedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collector_records_upserted_total",
		Help: "Total number of records written by collection runs",
	})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collector_runs_total",
		Help: "Total number of collection runs by outcome",
	}, []string{"outcome"})
)

// PageSource fetches one page of the catalog. *catalog.Client implements it.
type PageSource interface {
	FetchPage(ctx context.Context, q catalog.SongQuery, page int) (*catalog.Page, error)
}

// Config holds collector configuration.
type Config struct {
	// Query is the base request; its page is overridden per fetch
	Query catalog.SongQuery

	// BatchSize is the accumulator flush threshold
	BatchSize int
}

// DefaultConfig returns the default collector configuration.
func DefaultConfig() Config {
	return Config{
		Query:     catalog.SongQuery{PerPage: catalog.DefaultPerPage},
		BatchSize: pagination.DefaultBatchSize,
	}
}

// Collector copies the whole catalog into a repository.
type Collector struct {
	source PageSource
	repo   store.Repository
	config Config
	logger zerolog.Logger
}

// New creates a collector reading from source and writing to repo.
func New(source PageSource, repo store.Repository, config Config) *Collector {
	if config.BatchSize <= 0 {
		config.BatchSize = pagination.DefaultBatchSize
	}

	return &Collector{
		source: source,
		repo:   repo,
		config: config,
		logger: logging.NewLogger(logging.ComponentCollector),
	}
}

// CollectAll fetches every page of the catalog and upserts all songs.
//
// Page 1 is fetched and written before anything else; its total and size
// decide how many more pages exist. Pages 2..N are fetched with at most
// maxConcurrency requests in flight and written in batches. The first
// failure stops the run and is returned as is: a *catalog.TransportError,
// *catalog.DecodeError or *store.PersistenceError. Batches flushed before a
// failure stay written.
//
// Cancelling ctx is not a failure of the catalog or the store. When it ends
// the run between operations, ctx.Err() (context.Canceled or
// context.DeadlineExceeded) is returned bare. An operation interrupted by it
// reports it through its own error type instead, so check with errors.Is.
func (c *Collector) CollectAll(ctx context.Context, maxConcurrency int) (*Report, error) {
	start := time.Now()

	report, err := c.collect(ctx, maxConcurrency)
	report.Duration = time.Since(start)

	if err != nil {
		runsTotal.WithLabelValues(string(outcomeFailed)).Inc()
		c.logger.Error().
			Err(err).
			Int("pages_fetched", report.PagesFetched).
			Int("records_upserted", report.RecordsUpserted).
			Dur("duration", report.Duration).
			Msg("Collection failed")
		return report, err
	}

	runsTotal.WithLabelValues(string(report.Outcome)).Inc()
	c.logger.Info().
		Str("outcome", string(report.Outcome)).
		Int("total_pages", report.Plan.TotalPages).
		Int("pages_fetched", report.PagesFetched).
		Int("records_upserted", report.RecordsUpserted).
		Int("flushes", report.Flushes).
		Dur("duration", report.Duration).
		Msg("Collection complete")

	return report, nil
}

func (c *Collector) collect(ctx context.Context, maxConcurrency int) (*Report, error) {
	report := &Report{}

	first, err := c.source.FetchPage(ctx, c.config.Query, catalog.DefaultPage)
	if err != nil {
		return report, err
	}
	report.PagesFetched = 1
	pagesFetchedTotal.Inc()

	if len(first.Songs) == 0 {
		c.logger.Warn().
			Int("total", first.Total).
			Msg("First page is empty, nothing to collect")
		report.Outcome = OutcomeEmptyCatalog
		return report, nil
	}

	if err := c.repo.UpsertMany(ctx, first.Songs); err != nil {
		return report, err
	}
	report.RecordsUpserted = len(first.Songs)
	recordsUpsertedTotal.Add(float64(len(first.Songs)))

	plan := pagination.NewPlan(first.Total, len(first.Songs))
	report.Plan = plan

	c.logger.Info().
		Int("total", plan.TotalRecords).
		Int("per_page", plan.PageSize).
		Int("total_pages", plan.TotalPages).
		Msg("Collection planned")

	if plan.TotalPages <= 1 {
		report.Outcome = OutcomeSinglePage
		return report, nil
	}
	report.Outcome = OutcomeMultiPage

	fetcher := pagination.NewBoundedFetcher[catalog.Song](
		pagination.PageFetcherFunc[catalog.Song](func(ctx context.Context, page int) ([]catalog.Song, error) {
			p, err := c.source.FetchPage(ctx, c.config.Query, page)
			if err != nil {
				return nil, err
			}
			return p.Songs, nil
		}),
		pagination.Config{MaxConcurrency: maxConcurrency},
	)
	acc := pagination.NewAccumulator[catalog.Song](c.repo, c.config.BatchSize)

	err = fetcher.FetchPages(ctx, plan.RemainingPages(), func(r pagination.PageResult[catalog.Song]) error {
		report.PagesFetched++
		pagesFetchedTotal.Inc()

		c.logger.Debug().
			Int("page", r.PageNumber).
			Int("songs", len(r.Items)).
			Msg("Page received")

		return acc.Add(ctx, r.Items)
	})
	if err == nil {
		err = acc.Drain(ctx)
	}

	stats := acc.Stats()
	report.Flushes = stats.Flushes
	report.RecordsUpserted += stats.RecordsFlushed
	recordsUpsertedTotal.Add(float64(stats.RecordsFlushed))

	return report, err
}
