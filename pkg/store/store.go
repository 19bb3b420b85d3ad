// Package store defines the record repository the collector writes into and
// the error type every backend reports failures with.
//
// Backends live in subpackages:
//   - mongostore: MongoDB collection, bulk replace-with-upsert keyed on id
//   - redisstore: Redis hash plus sorted set for id ordering
//   - memstore:   in-process map for dry runs and tests
package store

import (
	"context"

	"github.com/Sternrassler/tunecore-collector/pkg/catalog"
)

// Backend names used in configuration, logs and metric labels.
const (
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Repository persists catalog records keyed by their id.
type Repository interface {
	// UpsertMany inserts or replaces every song by id in a single bulk
	// round trip. Empty input is a no-op. The write is not atomic: on
	// failure some documents may already be persisted.
	UpsertMany(ctx context.Context, songs []catalog.Song) error

	// FindPaged returns page (1-based, values below 1 are treated as 1) of
	// perPage songs ordered by id.
	FindPaged(ctx context.Context, page, perPage int) ([]catalog.Song, error)

	// DeleteAll removes every stored song and returns how many were removed.
	DeleteAll(ctx context.Context) (int64, error)

	// Count returns the number of stored songs.
	Count(ctx context.Context) (int64, error)

	// Close releases the backend connection.
	Close(ctx context.Context) error
}

// Skip returns the number of documents to skip for a FindPaged request,
// with page clamped to at least 1.
func Skip(page, perPage int) int64 {
	if page < 1 {
		page = 1
	}
	if perPage < 0 {
		perPage = 0
	}
	return int64(page-1) * int64(perPage)
}
