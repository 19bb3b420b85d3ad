// Package search runs keyword searches against the catalog and pages the
// results in small chunks with previous/next navigation.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/Sternrassler/tunecore-collector/pkg/catalog"
)

const (
	// DefaultPerPage is how many results a search requests.
	DefaultPerPage = 50

	// DefaultChunkSize is how many results one view shows.
	DefaultChunkSize = 5

	// Title heads every rendered view.
	Title = "🎶 Song Search Results"

	// NoResults is shown when a search matches nothing.
	NoResults = "No songs found matching that query."
)

// Searcher runs a single songs query. *catalog.Client implements it.
type Searcher interface {
	Search(ctx context.Context, q catalog.SongQuery) (*catalog.Page, error)
}

// Run searches for keyword and returns a pager over the results.
func Run(ctx context.Context, s Searcher, keyword string, perPage int) (*Pager, error) {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	page, err := s.Search(ctx, catalog.SongQuery{
		Keyword: keyword,
		PerPage: perPage,
	})
	if err != nil {
		return nil, err
	}

	return NewPager(page, DefaultChunkSize), nil
}

// Pager splits one page of results into fixed-size chunks. The current
// chunk index is always within [0, Pages()-1].
type Pager struct {
	songs     []catalog.Song
	total     int
	chunkSize int
	current   int
}

// NewPager creates a pager over page positioned at the first chunk.
func NewPager(page *catalog.Page, chunkSize int) *Pager {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	p := &Pager{chunkSize: chunkSize}
	if page != nil {
		p.songs = page.Songs
		p.total = page.Total
	}
	return p
}

// Empty reports whether the search matched nothing.
func (p *Pager) Empty() bool {
	return len(p.songs) == 0
}

// Pages returns the number of chunks.
func (p *Pager) Pages() int {
	return (len(p.songs) + p.chunkSize - 1) / p.chunkSize
}

// Current returns the 0-based index of the current chunk.
func (p *Pager) Current() int {
	return p.current
}

// HasPrev reports whether Prev would move.
func (p *Pager) HasPrev() bool {
	return p.current > 0
}

// HasNext reports whether Next would move.
func (p *Pager) HasNext() bool {
	return p.current+1 < p.Pages()
}

// Next moves to the following chunk, staying on the last one.
func (p *Pager) Next() bool {
	if !p.HasNext() {
		return false
	}
	p.current++
	return true
}

// Prev moves to the preceding chunk, staying on the first one.
func (p *Pager) Prev() bool {
	if !p.HasPrev() {
		return false
	}
	p.current--
	return true
}

// View is one rendered chunk.
type View struct {
	Title  string
	Lines  []string
	Footer string
}

// String renders the view as plain text.
func (v View) String() string {
	var b strings.Builder
	b.WriteString(v.Title)
	b.WriteString("\n\n")
	for _, line := range v.Lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(v.Footer)
	return b.String()
}

// View renders the current chunk. Songs are numbered across chunks.
func (p *Pager) View() View {
	if p.Empty() {
		return View{Title: Title, Footer: NoResults}
	}

	start := p.current * p.chunkSize
	end := start + p.chunkSize
	if end > len(p.songs) {
		end = len(p.songs)
	}

	lines := make([]string, 0, end-start)
	for i, song := range p.songs[start:end] {
		lines = append(lines, fmt.Sprintf("`%d.` **%s** - *%s*",
			start+i+1, song.DisplayTitle(), song.DisplayArtist()))
	}

	return View{
		Title:  Title,
		Lines:  lines,
		Footer: fmt.Sprintf("Page %d/%d (%d total songs)", p.current+1, p.Pages(), p.total),
	}
}
