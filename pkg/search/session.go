package search

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var runProgram = func(m tea.Model, r io.Reader, w io.Writer) (tea.Model, error) {
	return tea.NewProgram(m, tea.WithInput(r), tea.WithOutput(w)).Run()
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	footerStyle = lipgloss.NewStyle().
			MarginTop(1).
			Foreground(lipgloss.Color("244"))
)

type keyMap struct {
	Prev key.Binding
	Next key.Binding
	Quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Prev: key.NewBinding(
			key.WithKeys("p", "left", "h"),
			key.WithHelp("p/←", "previous"),
		),
		Next: key.NewBinding(
			key.WithKeys("n", "right", "l"),
			key.WithHelp("n/→", "next"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// browser is the bubbletea model behind Browse. The previous and next
// bindings are disabled at the first and last chunk.
type browser struct {
	pager *Pager
	keys  keyMap
	help  help.Model
}

func newBrowser(p *Pager) *browser {
	b := &browser{
		pager: p,
		keys:  newKeyMap(),
		help:  help.New(),
	}
	b.syncKeys()
	return b
}

func (b *browser) syncKeys() {
	b.keys.Prev.SetEnabled(b.pager.HasPrev())
	b.keys.Next.SetEnabled(b.pager.HasNext())
}

func (b *browser) Init() tea.Cmd { return nil }

func (b *browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, b.keys.Quit):
			return b, tea.Quit
		case key.Matches(msg, b.keys.Next):
			b.pager.Next()
		case key.Matches(msg, b.keys.Prev):
			b.pager.Prev()
		}
		b.syncKeys()
	case tea.WindowSizeMsg:
		b.help.Width = msg.Width
	}
	return b, nil
}

func (b *browser) View() string {
	v := b.pager.View()
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(v.Title),
		strings.Join(v.Lines, "\n"),
		footerStyle.Render(v.Footer),
		b.help.ShortHelpView([]key.Binding{b.keys.Prev, b.keys.Next, b.keys.Quit}),
	) + "\n"
}

// Browse shows the pager in the terminal and lets the user move between
// chunks with n/p (or the arrow keys) until q. Empty results and a single
// chunk are printed once without starting the program.
func Browse(p *Pager, r io.Reader, w io.Writer) error {
	if p.Empty() {
		_, err := fmt.Fprintln(w, NoResults)
		return err
	}
	if p.Pages() == 1 {
		_, err := fmt.Fprintf(w, "%s\n\n", p.View())
		return err
	}

	if _, err := runProgram(newBrowser(p), r, w); err != nil {
		return fmt.Errorf("browse results: %w", err)
	}
	return nil
}
