package collector

import (
	"time"

	"github.com/Sternrassler/tunecore-collector/pkg/pagination"
)

// Outcome names the path a successful run took.
type Outcome string

const (
	// OutcomeEmptyCatalog means page 1 had no songs. Nothing was written.
	OutcomeEmptyCatalog Outcome = "empty_catalog"

	// OutcomeSinglePage means page 1 held the whole catalog.
	OutcomeSinglePage Outcome = "single_page"

	// OutcomeMultiPage means pages 2..N were fetched concurrently.
	OutcomeMultiPage Outcome = "multi_page"

	// outcomeFailed labels failed runs in metrics only.
	outcomeFailed Outcome = "failed"
)

// Report summarizes a completed collection run.
type Report struct {
	Outcome Outcome
	Plan    pagination.Plan

	// PagesFetched counts page 1 plus every concurrently fetched page
	PagesFetched int

	// RecordsUpserted counts records handed to the repository, duplicates
	// included
	RecordsUpserted int

	// Flushes counts accumulator flushes, not the page 1 write
	Flushes int

	Duration time.Duration
}
