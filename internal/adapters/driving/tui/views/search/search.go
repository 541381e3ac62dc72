// Package search provides the query and results view.
package search

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// TopK is the number of results requested per query.
const TopK = 20

var errNoEmbedder = errors.New("similarity search is disabled without an embedding provider; press tab for keyword search")

// View holds the query input, the results and a status bar.
type View struct {
	ctx     context.Context
	styles  *styles.Styles
	keys    *keymap.KeyMap
	input   *input.QueryInput
	results *list.Results
	bar     *status.Bar

	search  driving.SearchService
	keyword driving.KeywordService

	err error
}

// NewView creates a search view.
func NewView(ctx context.Context, s *styles.Styles, km *keymap.KeyMap,
	search driving.SearchService, keyword driving.KeywordService) *View {
	if s == nil {
		s = styles.Default()
	}
	if km == nil {
		km = keymap.Default()
	}
	v := &View{
		ctx:     ctx,
		styles:  s,
		keys:    km,
		input:   input.NewQueryInput(s),
		results: list.NewResults(s),
		bar:     status.NewBar(s),
		search:  search,
		keyword: keyword,
	}
	v.bar.SetBindings(km.InputHelp())
	return v
}

// Init starts the input cursor.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Reset clears the query and results and focuses the input.
func (v *View) Reset() tea.Cmd {
	v.input.SetValue("")
	v.results.SetResults(nil)
	v.err = nil
	v.bar.SetState(status.StateReady)
	return v.focusInput()
}

func (v *View) focusInput() tea.Cmd {
	v.bar.SetBindings(v.keys.InputHelp())
	return v.input.Focus()
}

// Update handles keys and search completions.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case messages.SearchCompleted:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.err = nil
		v.results.SetResults(msg.Results)
		v.bar.SetState(status.StateResults)
		v.bar.SetResultCount(len(msg.Results))
		v.bar.SetBindings(v.keys.ResultsHelp())
		v.input.Blur()
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) setError(err error) {
	if errors.Is(err, domain.ErrEmbeddingUnavailable) {
		err = errNoEmbedder
	}
	v.err = err
	v.bar.SetState(status.StateError)
	v.bar.SetMessage(err.Error())
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	if key.Matches(msg, v.keys.Back) {
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
	}

	if v.input.Focused() {
		switch {
		case key.Matches(msg, v.keys.ToggleMode):
			v.input.ToggleMode()
			return v, nil
		case key.Matches(msg, v.keys.Submit):
			query := strings.TrimSpace(v.input.Value())
			if query == "" {
				return v, nil
			}
			v.bar.SetState(status.StateBusy)
			v.bar.SetMessage("Searching...")
			return v, v.run(v.input.Mode(), query)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case key.Matches(msg, v.keys.Up):
		v.results.MoveUp()
	case key.Matches(msg, v.keys.Down):
		v.results.MoveDown()
	case key.Matches(msg, v.keys.NewSearch):
		return v, v.focusInput()
	case key.Matches(msg, v.keys.ToggleMode):
		v.input.ToggleMode()
		return v, v.focusInput()
	case key.Matches(msg, v.keys.Select):
		if r := v.results.SelectedResult(); r != nil {
			sel := messages.DocumentSelected{Document: r.Document, ChunkIndex: r.Chunk.Index}
			return v, func() tea.Msg { return sel }
		}
	}
	return v, nil
}

// run returns a command executing the query in the given mode.
func (v *View) run(mode messages.SearchMode, query string) tea.Cmd {
	ctx := v.ctx
	search, keyword := v.search, v.keyword
	return func() tea.Msg {
		var (
			results []domain.SearchResult
			err     error
		)
		if mode == messages.ModeKeyword {
			results, err = keyword.Search(ctx, domain.KeywordRequest{Query: query, TopK: TopK, Highlight: true})
		} else {
			results, err = search.Search(ctx, query, domain.SearchOptions{TopK: TopK})
		}
		return messages.SearchCompleted{Mode: mode, Query: query, Results: results, Err: err}
	}
}

// SetDimensions fits the view to the terminal.
func (v *View) SetDimensions(width, height int) {
	v.input.SetWidth(width)
	v.results.SetDimensions(width, height-9)
	v.bar.SetWidth(width)
}

// View renders the view.
func (v *View) View() string {
	sections := []string{v.styles.Title.Render("Search"), "", v.input.View(), ""}
	if v.err != nil {
		sections = append(sections, v.styles.Error.Render(v.err.Error()), "")
	}
	sections = append(sections, v.results.View(), "", v.bar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Query returns the current query text.
func (v *View) Query() string {
	return v.input.Value()
}

// Mode returns the active search mode.
func (v *View) Mode() messages.SearchMode {
	return v.input.Mode()
}

// Results returns the displayed results.
func (v *View) Results() []domain.SearchResult {
	return v.results.Results()
}

// InputFocused reports whether keys go to the query input.
func (v *View) InputFocused() bool {
	return v.input.Focused()
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
