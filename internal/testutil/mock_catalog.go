// Package testutil provides testing utilities for the catalog client and
// the collection pipeline.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/tunecore-collector/pkg/catalog"
)

// MockCatalogResponse defines a canned response for one page.
type MockCatalogResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockCatalog is a configurable mock of the community songs endpoint.
// By default it pages through Songs honoring page and per_page.
type MockCatalog struct {
	server *httptest.Server
	mu     sync.RWMutex

	songs     []catalog.Song
	total     int
	overrides map[int]MockCatalogResponse
	delay     time.Duration

	// Tracking
	requestCount int
	pages        []int
	inFlight     int
	maxInFlight  int
	lastQuery    map[string][]string
}

// NewMockCatalog creates a mock catalog serving songs.
func NewMockCatalog(songs []catalog.Song) *MockCatalog {
	mock := &MockCatalog{
		songs:     songs,
		total:     len(songs),
		overrides: make(map[int]MockCatalogResponse),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/songs", mock.handleSongs)
	mock.server = httptest.NewServer(mux)

	return mock
}

// URL returns the base URL to configure the catalog client with.
func (m *MockCatalog) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// SetTotal overrides the reported total, e.g. to simulate a catalog that
// claims more songs than it serves.
func (m *MockCatalog) SetTotal(total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = total
}

// SetDelay delays every response.
func (m *MockCatalog) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// SetPageResponse replaces the response for one page number.
func (m *MockCatalog) SetPageResponse(page int, resp MockCatalogResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[page] = resp
}

// GetRequestCount returns the number of requests served.
func (m *MockCatalog) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// RequestedPages returns the requested page numbers, sorted.
func (m *MockCatalog) RequestedPages() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pages := append([]int(nil), m.pages...)
	sort.Ints(pages)
	return pages
}

// MaxInFlight returns the highest number of concurrent requests observed.
func (m *MockCatalog) MaxInFlight() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.maxInFlight
}

// LastQuery returns the query parameters of the most recent request.
func (m *MockCatalog) LastQuery() map[string][]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastQuery
}

func (m *MockCatalog) handleSongs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(query.Get("per_page"))
	if perPage < 1 {
		perPage = catalog.DefaultPerPage
	}

	m.mu.Lock()
	m.requestCount++
	m.pages = append(m.pages, page)
	m.lastQuery = query
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	override, hasOverride := m.overrides[page]
	delay := m.delay
	total := m.total
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if hasOverride && override.Delay > 0 {
		delay = override.Delay
	}
	if delay > 0 {
		time.Sleep(delay)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if hasOverride {
		status := override.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if override.Body != "" {
			w.Write([]byte(override.Body))
		}
		return
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > len(m.songs) {
		start = len(m.songs)
	}
	if end > len(m.songs) {
		end = len(m.songs)
	}

	// An empty page must still encode as [] rather than null
	songs := make([]catalog.Song, 0, end-start)
	songs = append(songs, m.songs[start:end]...)

	body, err := json.Marshal(catalog.Page{
		Songs: songs,
		Total: total,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// GenerateSongs returns n songs with IDs 1..n.
func GenerateSongs(n int) []catalog.Song {
	songs := make([]catalog.Song, n)
	for i := range songs {
		id := uint64(i + 1)
		en := fmt.Sprintf("Song %d", id)
		songs[i] = catalog.Song{
			ID:          id,
			Index:       i,
			LinkcoreURL: fmt.Sprintf("https://linkco.re/%d", id),
			BPM:         120,
			Duration:    180,
			GenreIDs:    []uint16{1},
			MoodID:      2,
			JacketURL:   fmt.Sprintf("https://example.com/jacket/%d.jpg", id),
			StreetDate:  "2024-01-01",
			SongTitle: catalog.SongTitle{
				Ja: fmt.Sprintf("曲 %d", id),
				En: &en,
			},
			ArtistName: catalog.ArtistName{
				Ja: "アーティスト",
				En: "Artist",
			},
			ChannelSharePercentStr: "50%",
		}
	}
	return songs
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockCatalogResponse {
	return MockCatalogResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
	}
}

// NewMalformedResponse creates a 200 response whose body is not an envelope.
func NewMalformedResponse() MockCatalogResponse {
	return MockCatalogResponse{
		StatusCode: http.StatusOK,
		Body:       `{"songs": "nope"}`,
	}
}
