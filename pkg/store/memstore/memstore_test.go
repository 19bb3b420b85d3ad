package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/Sternrassler/tunecore-collector/internal/testutil"
	"github.com/Sternrassler/tunecore-collector/pkg/catalog"
	"github.com/Sternrassler/tunecore-collector/pkg/store"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()
	songs := testutil.GenerateSongs(20)

	require.NoError(t, s.UpsertMany(ctx, songs))
	require.NoError(t, s.UpsertMany(ctx, songs))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20), count)
}

func TestStore_UpsertReplacesByID(t *testing.T) {
	ctx := context.Background()
	s := New()

	first := catalog.Song{ID: 7, SongTitle: catalog.SongTitle{Ja: "old"}}
	second := catalog.Song{ID: 7, SongTitle: catalog.SongTitle{Ja: "new"}}

	require.NoError(t, s.UpsertMany(ctx, []catalog.Song{first}))
	require.NoError(t, s.UpsertMany(ctx, []catalog.Song{second}))

	got, ok := s.Get(7)
	require.True(t, ok)
	assert.Equal(t, "new", got.SongTitle.Ja)
}

func TestStore_DuplicateIDsWithinBatch(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.UpsertMany(ctx, []catalog.Song{{ID: 1}, {ID: 2}, {ID: 1}}))

	count, _ := s.Count(ctx)
	assert.Equal(t, int64(2), count)
}

func TestStore_UpsertEmpty(t *testing.T) {
	s := New()
	assert.NoError(t, s.UpsertMany(context.Background(), nil))

	count, _ := s.Count(context.Background())
	assert.Zero(t, count)
}

func TestStore_FindPaged(t *testing.T) {
	ctx := context.Background()
	s := New()

	// Insert out of order, reads come back ordered by id
	songs := testutil.GenerateSongs(25)
	for i, j := 0, len(songs)-1; i < j; i, j = i+1, j-1 {
		songs[i], songs[j] = songs[j], songs[i]
	}
	require.NoError(t, s.UpsertMany(ctx, songs))

	tests := []struct {
		name    string
		page    int
		perPage int
		wantIDs []uint64
	}{
		{"first page", 1, 10, idRange(1, 10)},
		{"second page", 2, 10, idRange(11, 20)},
		{"partial last page", 3, 10, idRange(21, 25)},
		{"past the end", 4, 10, nil},
		{"page zero is page one", 0, 5, idRange(1, 5)},
		{"negative page is page one", -3, 5, idRange(1, 5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.FindPaged(ctx, tt.page, tt.perPage)
			require.NoError(t, err)

			var ids []uint64
			for _, song := range got {
				ids = append(ids, song.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestStore_DeleteAll(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.UpsertMany(ctx, testutil.GenerateSongs(12)))

	deleted, err := s.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), deleted)

	deleted, err = s.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New().UpsertMany(ctx, testutil.GenerateSongs(3))

	var persistErr *store.PersistenceError
	require.True(t, errors.As(err, &persistErr))
	assert.Equal(t, store.BackendMemory, persistErr.Backend)
	assert.Equal(t, 3, persistErr.Records)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_CountIsObserved(t *testing.T) {
	ok := store.OperationsTotal.WithLabelValues(store.BackendMemory, store.OpCount, "ok")
	failed := store.OperationsTotal.WithLabelValues(store.BackendMemory, store.OpCount, "error")
	okBefore, failedBefore := promtest.ToFloat64(ok), promtest.ToFloat64(failed)

	s := New()
	require.NoError(t, s.UpsertMany(context.Background(), testutil.GenerateSongs(4)))

	count, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
	assert.Equal(t, okBefore+1, promtest.ToFloat64(ok))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Count(ctx)

	var persistErr *store.PersistenceError
	require.True(t, errors.As(err, &persistErr))
	assert.Equal(t, store.OpCount, persistErr.Op)
	assert.Equal(t, failedBefore+1, promtest.ToFloat64(failed))
}

func idRange(from, to uint64) []uint64 {
	var ids []uint64
	for id := from; id <= to; id++ {
		ids = append(ids, id)
	}
	return ids
}
