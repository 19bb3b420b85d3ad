package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/tunecore-collector/pkg/catalog"
	"github.com/Sternrassler/tunecore-collector/pkg/collector"
	"github.com/Sternrassler/tunecore-collector/pkg/logging"
	"github.com/Sternrassler/tunecore-collector/pkg/metrics"
	"github.com/Sternrassler/tunecore-collector/pkg/search"
)

// CollectCmd represents the collect command
type CollectCmd struct {
	Concurrency int    `short:"c" help:"Maximum page fetches in flight (default MAX_CONCURRENCY)"`
	BatchSize   int    `short:"b" help:"Records per bulk upsert (default BATCH_SIZE)"`
	MetricsAddr string `help:"Serve Prometheus metrics on this address while collecting, e.g. :9090"`
}

// ListCmd represents the list command
type ListCmd struct {
	Page    int `short:"p" help:"Page number, 1-based" default:"1"`
	PerPage int `short:"n" help:"Songs per page" default:"20"`
}

// PurgeCmd represents the purge command
type PurgeCmd struct {
	Yes bool `help:"Confirm deleting every stored song"`
}

// SearchCmd represents the search command
type SearchCmd struct {
	Keyword       string `arg:"" help:"Song title or artist to search for"`
	PerPage       int    `help:"Results requested from the catalog" default:"50"`
	NoInteractive bool   `help:"Print every result page instead of prompting for navigation"`
	Refresh       bool   `help:"Drop cached search responses before searching"`
}

// Run executes a collection run.
func (c *CollectCmd) Run(rt *runtime) error {
	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = rt.cfg.MaxConcurrency
	}
	batchSize := c.BatchSize
	if batchSize <= 0 {
		batchSize = rt.cfg.BatchSize
	}

	if c.MetricsAddr != "" {
		srv, err := metrics.Listen(c.MetricsAddr)
		if err != nil {
			return fmt.Errorf("metrics listener: %w", err)
		}
		metricsCtx, stopMetrics := context.WithCancel(rt.ctx)
		defer stopMetrics()
		go func() {
			if err := srv.Serve(metricsCtx); err != nil {
				logger := logging.NewLogger(logging.ComponentCLI)
				logger.Warn().Err(err).Msg("Metrics server stopped")
			}
		}()
	}

	repo, err := rt.openRepository()
	if err != nil {
		return err
	}
	defer repo.Close(context.Background())

	client, cleanup, err := rt.catalogClient(false)
	if err != nil {
		return err
	}
	defer cleanup()

	coll := collector.New(client, repo, collector.Config{
		Query:     catalog.SongQuery{PerPage: rt.cfg.CatalogPerPage},
		BatchSize: batchSize,
	})

	report, err := coll.CollectAll(rt.ctx, concurrency)
	if err != nil {
		return err
	}

	fmt.Fprintf(rt.stdout, "outcome=%s total=%d pages=%d records=%d flushes=%d duration=%s\n",
		report.Outcome, report.Plan.TotalRecords, report.PagesFetched,
		report.RecordsUpserted, report.Flushes, report.Duration.Round(time.Millisecond))
	return nil
}

// Run prints one page of stored songs.
func (l *ListCmd) Run(rt *runtime) error {
	repo, err := rt.openRepository()
	if err != nil {
		return err
	}
	defer repo.Close(context.Background())

	songs, err := repo.FindPaged(rt.ctx, l.Page, l.PerPage)
	if err != nil {
		return err
	}
	if len(songs) == 0 {
		fmt.Fprintln(rt.stdout, "No songs stored on this page.")
		return nil
	}

	for _, song := range songs {
		fmt.Fprintf(rt.stdout, "%d\t%s - %s\t%s\n", song.ID, song.DisplayTitle(), song.DisplayArtist(), song.StreetDate)
	}
	return nil
}

// errPurgeNotConfirmed is returned when purge runs without --yes.
var errPurgeNotConfirmed = errors.New("refusing to delete every song without --yes")

// Run deletes every stored song.
func (p *PurgeCmd) Run(rt *runtime) error {
	if !p.Yes {
		return errPurgeNotConfirmed
	}

	repo, err := rt.openRepository()
	if err != nil {
		return err
	}
	defer repo.Close(context.Background())

	deleted, err := repo.DeleteAll(rt.ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(rt.stdout, "Deleted %d songs.\n", deleted)
	return nil
}

// Run searches the catalog and pages through the results.
func (s *SearchCmd) Run(rt *runtime) error {
	client, cleanup, err := rt.catalogClient(true)
	if err != nil {
		return err
	}
	defer cleanup()

	if s.Refresh {
		if _, err := client.ClearSearchCache(rt.ctx); err != nil {
			return fmt.Errorf("refresh search cache: %w", err)
		}
	}

	pager, err := search.Run(rt.ctx, client, s.Keyword, s.PerPage)
	if err != nil {
		return err
	}

	if rt.interactive && !s.NoInteractive {
		return search.Browse(pager, rt.stdin, rt.stdout)
	}

	if pager.Empty() {
		fmt.Fprintln(rt.stdout, search.NoResults)
		return nil
	}
	for {
		fmt.Fprintf(rt.stdout, "%s\n\n", pager.View())
		if !pager.Next() {
			return nil
		}
	}
}
