package search

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/Sternrassler/tunecore-collector/internal/testutil"
	"github.com/Sternrassler/tunecore-collector/pkg/catalog"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageOf(n, total int) *catalog.Page {
	return &catalog.Page{Songs: testutil.GenerateSongs(n), Total: total}
}

func TestPager_Pages(t *testing.T) {
	tests := []struct {
		songs int
		want  int
	}{
		{0, 0},
		{1, 1},
		{5, 1},
		{6, 2},
		{50, 10},
		{12, 3},
	}

	for _, tt := range tests {
		p := NewPager(pageOf(tt.songs, tt.songs), DefaultChunkSize)
		assert.Equal(t, tt.want, p.Pages(), "songs=%d", tt.songs)
	}
}

func TestPager_NavigationClamps(t *testing.T) {
	p := NewPager(pageOf(12, 12), 5)

	assert.False(t, p.HasPrev())
	assert.False(t, p.Prev(), "previous on the first chunk stays put")
	assert.Equal(t, 0, p.Current())

	assert.True(t, p.Next())
	assert.True(t, p.Next())
	assert.Equal(t, 2, p.Current())

	assert.False(t, p.HasNext())
	assert.False(t, p.Next(), "next on the last chunk stays put")
	assert.Equal(t, 2, p.Current())

	assert.True(t, p.Prev())
	assert.Equal(t, 1, p.Current())
}

func TestPager_View(t *testing.T) {
	p := NewPager(pageOf(7, 134), 5)
	p.Next()

	view := p.View()

	assert.Equal(t, Title, view.Title)
	assert.Equal(t, []string{
		"`6.` **Song 6** - *Artist*",
		"`7.` **Song 7** - *Artist*",
	}, view.Lines)
	assert.Equal(t, "Page 2/2 (134 total songs)", view.Footer)
}

func TestPager_ViewFallsBackToJapanese(t *testing.T) {
	page := &catalog.Page{
		Songs: []catalog.Song{{
			ID:         1,
			SongTitle:  catalog.SongTitle{Ja: "夜に駆ける"},
			ArtistName: catalog.ArtistName{Ja: "YOASOBI"},
		}},
		Total: 1,
	}

	view := NewPager(page, 5).View()
	assert.Equal(t, []string{"`1.` **夜に駆ける** - *YOASOBI*"}, view.Lines)
}

func TestPager_Empty(t *testing.T) {
	p := NewPager(&catalog.Page{Songs: []catalog.Song{}}, 5)

	assert.True(t, p.Empty())
	assert.False(t, p.Next())
	assert.Equal(t, NoResults, p.View().Footer)
}

type fakeSearcher struct {
	page *catalog.Page
	err  error
	got  catalog.SongQuery
}

func (f *fakeSearcher) Search(_ context.Context, q catalog.SongQuery) (*catalog.Page, error) {
	f.got = q
	return f.page, f.err
}

func TestRun(t *testing.T) {
	s := &fakeSearcher{page: pageOf(23, 23)}

	p, err := Run(context.Background(), s, "blue", 0)
	require.NoError(t, err)

	assert.Equal(t, "blue", s.got.Keyword)
	assert.Equal(t, DefaultPerPage, s.got.PerPage)
	assert.Equal(t, 5, p.Pages())
}

func TestRun_Error(t *testing.T) {
	boom := errors.New("catalog down")
	_, err := Run(context.Background(), &fakeSearcher{err: boom}, "blue", 50)
	assert.Same(t, boom, err)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// stubProgram replaces runProgram with one that feeds msgs to the model and
// writes its final view.
func stubProgram(t *testing.T, msgs ...tea.Msg) *int {
	t.Helper()

	calls := 0
	orig := runProgram
	runProgram = func(m tea.Model, _ io.Reader, w io.Writer) (tea.Model, error) {
		calls++
		for _, msg := range msgs {
			next, cmd := m.Update(msg)
			m = next
			if cmd != nil {
				if _, ok := cmd().(tea.QuitMsg); ok {
					break
				}
			}
		}
		_, err := io.WriteString(w, m.View())
		return m, err
	}
	t.Cleanup(func() { runProgram = orig })
	return &calls
}

func TestBrowser_Navigation(t *testing.T) {
	p := NewPager(pageOf(12, 12), 5)
	b := newBrowser(p)

	steps := []struct {
		msg  tea.Msg
		want int
	}{
		{runes("p"), 0}, // clamped at the first chunk
		{runes("n"), 1},
		{tea.KeyMsg{Type: tea.KeyRight}, 2},
		{runes("n"), 2}, // clamped at the last chunk
		{tea.KeyMsg{Type: tea.KeyLeft}, 1},
		{runes("x"), 1},
	}
	for i, step := range steps {
		_, cmd := b.Update(step.msg)
		assert.Nil(t, cmd, "step %d", i)
		assert.Equal(t, step.want, p.Current(), "step %d", i)
	}

	_, cmd := b.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestBrowser_HelpFollowsPosition(t *testing.T) {
	p := NewPager(pageOf(12, 12), 5)
	b := newBrowser(p)

	view := b.View()
	assert.Contains(t, view, Title)
	assert.Contains(t, view, "Page 1/3 (12 total songs)")
	assert.Contains(t, view, "next")
	assert.NotContains(t, view, "previous")

	b.Update(runes("n"))
	view = b.View()
	assert.Contains(t, view, "next")
	assert.Contains(t, view, "previous")

	b.Update(runes("n"))
	view = b.View()
	assert.NotContains(t, view, "next")
	assert.Contains(t, view, "previous")
	assert.Contains(t, view, "Page 3/3 (12 total songs)")
}

func TestBrowse(t *testing.T) {
	calls := stubProgram(t, runes("n"), runes("n"), runes("q"), runes("p"))

	p := NewPager(pageOf(12, 12), 5)
	var out bytes.Buffer
	require.NoError(t, Browse(p, strings.NewReader(""), &out))

	// quit stops the program, the trailing p is never delivered
	assert.Equal(t, 1, *calls)
	assert.Equal(t, 2, p.Current())
	assert.Contains(t, out.String(), "Page 3/3 (12 total songs)")
}

func TestBrowse_ProgramError(t *testing.T) {
	boom := errors.New("no tty")
	orig := runProgram
	runProgram = func(tea.Model, io.Reader, io.Writer) (tea.Model, error) { return nil, boom }
	t.Cleanup(func() { runProgram = orig })

	err := Browse(NewPager(pageOf(12, 12), 5), strings.NewReader(""), io.Discard)
	assert.ErrorIs(t, err, boom)
}

func TestBrowse_NoResults(t *testing.T) {
	calls := stubProgram(t)

	var out bytes.Buffer
	require.NoError(t, Browse(NewPager(nil, 5), strings.NewReader(""), &out))
	assert.Equal(t, NoResults+"\n", out.String())
	assert.Zero(t, *calls)
}

func TestBrowse_SingleChunkPrintsOnce(t *testing.T) {
	calls := stubProgram(t)

	var out bytes.Buffer
	require.NoError(t, Browse(NewPager(pageOf(3, 3), 5), strings.NewReader(""), &out))
	assert.Zero(t, *calls)
	assert.Contains(t, out.String(), "Page 1/1 (3 total songs)")
}
