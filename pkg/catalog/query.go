package catalog

import (
	"net/url"
	"strconv"
)

const (
	// DefaultPage is the first page of every paginated listing.
	DefaultPage = 1

	// DefaultPerPage is the page size used when a query does not set one.
	DefaultPerPage = 100
)

// SortBy selects the server-side ordering of a songs listing.
type SortBy string

const (
	// SortNone leaves ordering to the API.
	SortNone SortBy = ""

	// SortPopularity orders by popularity rank, most popular first.
	SortPopularity SortBy = "popular_rank:desc"

	// SortShareRateDescending orders by revenue share rate, highest first.
	SortShareRateDescending SortBy = "share_rate:desc"

	// SortShareRateAscending orders by revenue share rate, lowest first.
	SortShareRateAscending SortBy = "share_rate:asc"
)

// SongQuery describes one request against the songs endpoint.
// It is a plain value: build it once and pass it around, use WithPage to
// derive the query for another page.
type SongQuery struct {
	Page    int
	PerPage int

	// Keyword is a free-text match on song title or artist
	Keyword string

	// Multi-valued filters, serialized as repeated query keys
	ArtistIDs []uint64
	GenreIDs  []uint16
	MoodIDs   []uint16

	Vocal        *bool
	Instrumental *bool

	// Duration bounds in seconds
	DurationFrom *uint16
	DurationTo   *uint16

	ShareRateFrom *uint8
	ShareRateTo   *uint8

	BPMFrom *uint16
	BPMTo   *uint16

	Sort SortBy
}

// WithPage returns a copy of the query targeting the given page.
func (q SongQuery) WithPage(page int) SongQuery {
	q.Page = page
	return q
}

// WithPerPage returns a copy of the query with the given page size.
func (q SongQuery) WithPerPage(perPage int) SongQuery {
	q.PerPage = perPage
	return q
}

// Values serializes the query into URL query pairs.
// page and per_page are always present; optional filters only when set.
func (q SongQuery) Values() url.Values {
	page := q.Page
	if page <= 0 {
		page = DefaultPage
	}
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	v.Set("per_page", strconv.Itoa(perPage))

	if q.Keyword != "" {
		v.Set("keyword", q.Keyword)
	}

	for _, id := range q.ArtistIDs {
		v.Add("artist_ids", strconv.FormatUint(id, 10))
	}
	for _, id := range q.GenreIDs {
		v.Add("genre_ids", strconv.FormatUint(uint64(id), 10))
	}
	for _, id := range q.MoodIDs {
		v.Add("mood_ids", strconv.FormatUint(uint64(id), 10))
	}

	setBool(v, "vocal", q.Vocal)
	setBool(v, "instrumental", q.Instrumental)
	setUint16(v, "duration_from", q.DurationFrom)
	setUint16(v, "duration_to", q.DurationTo)
	if q.ShareRateFrom != nil {
		v.Set("share_rate_from", strconv.FormatUint(uint64(*q.ShareRateFrom), 10))
	}
	if q.ShareRateTo != nil {
		v.Set("share_rate_to", strconv.FormatUint(uint64(*q.ShareRateTo), 10))
	}
	setUint16(v, "bpm_from", q.BPMFrom)
	setUint16(v, "bpm_to", q.BPMTo)

	if q.Sort != SortNone {
		v.Set("sort", string(q.Sort))
	}

	return v
}

func setBool(v url.Values, key string, b *bool) {
	if b != nil {
		v.Set(key, strconv.FormatBool(*b))
	}
}

func setUint16(v url.Values, key string, n *uint16) {
	if n != nil {
		v.Set(key, strconv.FormatUint(uint64(*n), 10))
	}
}
