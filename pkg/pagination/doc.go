// Package pagination provides the building blocks of a paginated collection
// run: planning the page range, fetching pages with bounded concurrency and
// folding them into fixed-size batches.
//
// The catalog reports a total record count on every page, so a run fetches
// page 1 directly, derives a Plan from that total and the observed page
// size, and then fans out over the remaining pages:
//
//	plan := pagination.NewPlan(first.Total, len(first.Songs))
//	fetcher := pagination.NewBoundedFetcher[catalog.Song](source, pagination.Config{MaxConcurrency: 25})
//	acc := pagination.NewAccumulator[catalog.Song](repo, 1000)
//
//	err := fetcher.FetchPages(ctx, plan.RemainingPages(), func(r pagination.PageResult[catalog.Song]) error {
//		return acc.Add(ctx, r.Items)
//	})
//	if err == nil {
//		err = acc.Drain(ctx)
//	}
//
// The fetcher:
//   - Keeps at most MaxConcurrency fetches in flight
//   - Hands results to a single consumer in arrival order (not page order)
//   - Aborts on the first fetch or consumer error and returns it unchanged
//   - Discards results that arrive after the abort
//
// The accumulator flushes its whole buffer as soon as it holds at least the
// threshold, and Drain flushes whatever is left exactly once.
package pagination
