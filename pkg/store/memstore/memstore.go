// Package memstore keeps songs in process memory. It backs dry runs and tests.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/Sternrassler/tunecore-collector/pkg/catalog"
	"github.com/Sternrassler/tunecore-collector/pkg/store"
)

// Store is a map-backed store.Repository. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	songs map[uint64]catalog.Song
}

var _ store.Repository = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{songs: make(map[uint64]catalog.Song)}
}

// UpsertMany implements store.Repository.
func (s *Store) UpsertMany(ctx context.Context, songs []catalog.Song) error {
	if len(songs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return store.Observe(store.BackendMemory, store.OpUpsertMany, len(songs), err)
	}

	s.mu.Lock()
	for _, song := range songs {
		s.songs[song.ID] = song
	}
	s.mu.Unlock()

	return store.Observe(store.BackendMemory, store.OpUpsertMany, len(songs), nil)
}

// FindPaged implements store.Repository.
func (s *Store) FindPaged(ctx context.Context, page, perPage int) ([]catalog.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.Observe(store.BackendMemory, store.OpFindPaged, 0, err)
	}

	s.mu.RLock()
	ids := make([]uint64, 0, len(s.songs))
	for id := range s.songs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	skip := store.Skip(page, perPage)
	result := []catalog.Song{}
	for i := skip; i < int64(len(ids)) && len(result) < perPage; i++ {
		result = append(result, s.songs[ids[i]])
	}
	s.mu.RUnlock()

	return result, store.Observe(store.BackendMemory, store.OpFindPaged, 0, nil)
}

// DeleteAll implements store.Repository.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, store.Observe(store.BackendMemory, store.OpDeleteAll, 0, err)
	}

	s.mu.Lock()
	n := int64(len(s.songs))
	s.songs = make(map[uint64]catalog.Song)
	s.mu.Unlock()

	return n, store.Observe(store.BackendMemory, store.OpDeleteAll, 0, nil)
}

// Count implements store.Repository.
func (s *Store) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, store.Observe(store.BackendMemory, store.OpCount, 0, err)
	}

	s.mu.RLock()
	n := int64(len(s.songs))
	s.mu.RUnlock()

	return n, store.Observe(store.BackendMemory, store.OpCount, 0, nil)
}

// Get returns the stored song with the given id.
func (s *Store) Get(id uint64) (catalog.Song, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	song, ok := s.songs[id]
	return song, ok
}

// Close implements store.Repository. It is a no-op.
func (s *Store) Close(context.Context) error {
	return nil
}
