package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSongQuery_Values_Defaults(t *testing.T) {
	v := SongQuery{}.Values()

	assert.Equal(t, "1", v.Get("page"))
	assert.Equal(t, "100", v.Get("per_page"))
	assert.Len(t, v, 2, "only page and per_page are always present")
}

func TestSongQuery_Values_Filters(t *testing.T) {
	vocal := true
	instrumental := false
	var durFrom, durTo uint16 = 60, 240
	var shareFrom, shareTo uint8 = 10, 90
	var bpmFrom, bpmTo uint16 = 80, 140

	q := SongQuery{
		Page:          3,
		PerPage:       50,
		Keyword:       "summer",
		ArtistIDs:     []uint64{123, 456},
		GenreIDs:      []uint16{7},
		MoodIDs:       []uint16{1, 2, 3},
		Vocal:         &vocal,
		Instrumental:  &instrumental,
		DurationFrom:  &durFrom,
		DurationTo:    &durTo,
		ShareRateFrom: &shareFrom,
		ShareRateTo:   &shareTo,
		BPMFrom:       &bpmFrom,
		BPMTo:         &bpmTo,
		Sort:          SortPopularity,
	}

	v := q.Values()

	assert.Equal(t, "3", v.Get("page"))
	assert.Equal(t, "50", v.Get("per_page"))
	assert.Equal(t, "summer", v.Get("keyword"))
	assert.Equal(t, []string{"123", "456"}, v["artist_ids"])
	assert.Equal(t, []string{"7"}, v["genre_ids"])
	assert.Equal(t, []string{"1", "2", "3"}, v["mood_ids"])
	assert.Equal(t, "true", v.Get("vocal"))
	assert.Equal(t, "false", v.Get("instrumental"))
	assert.Equal(t, "60", v.Get("duration_from"))
	assert.Equal(t, "240", v.Get("duration_to"))
	assert.Equal(t, "10", v.Get("share_rate_from"))
	assert.Equal(t, "90", v.Get("share_rate_to"))
	assert.Equal(t, "80", v.Get("bpm_from"))
	assert.Equal(t, "140", v.Get("bpm_to"))
	assert.Equal(t, "popular_rank:desc", v.Get("sort"))
}

func TestSongQuery_WithPage_DoesNotMutate(t *testing.T) {
	base := SongQuery{PerPage: 25, Keyword: "x"}

	next := base.WithPage(4)

	assert.Equal(t, 0, base.Page)
	assert.Equal(t, 4, next.Page)
	assert.Equal(t, base.Keyword, next.Keyword)
	assert.Equal(t, 25, next.PerPage)
	assert.Equal(t, 10, base.WithPerPage(10).PerPage)
	assert.Equal(t, 25, base.PerPage)
}

func TestSortBy_Strings(t *testing.T) {
	tests := map[SortBy]string{
		SortPopularity:          "popular_rank:desc",
		SortShareRateDescending: "share_rate:desc",
		SortShareRateAscending:  "share_rate:asc",
	}
	for sort, want := range tests {
		v := SongQuery{Sort: sort}.Values()
		assert.Equal(t, want, v.Get("sort"))
	}
}
