// Package input provides the query input component.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
)

const minWidth = 20

// QueryInput is a text input labelled with the active search mode.
type QueryInput struct {
	ti     textinput.Model
	styles *styles.Styles
	mode   messages.SearchMode
}

// NewQueryInput creates a focused query input.
func NewQueryInput(s *styles.Styles) *QueryInput {
	if s == nil {
		s = styles.Default()
	}
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "Ask about your documents..."
	ti.CharLimit = 512
	ti.Width = 50
	ti.Focus()
	return &QueryInput{ti: ti, styles: s}
}

// Init starts the cursor blinking.
func (q *QueryInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update forwards msg to the text input.
func (q *QueryInput) Update(msg tea.Msg) (*QueryInput, tea.Cmd) {
	var cmd tea.Cmd
	q.ti, cmd = q.ti.Update(msg)
	return q, cmd
}

// View renders the label and the input box.
func (q *QueryInput) View() string {
	label := q.styles.Title.Render(q.label())
	//nolint:misspell // lipgloss.Center is the library constant
	return lipgloss.JoinHorizontal(lipgloss.Center, label, q.styles.Input.Render(q.ti.View()))
}

func (q *QueryInput) label() string {
	if q.mode == messages.ModeKeyword {
		return "Keyword: "
	}
	return "Similar: "
}

// Mode returns the active search mode.
func (q *QueryInput) Mode() messages.SearchMode {
	return q.mode
}

// ToggleMode switches between similarity and keyword search.
func (q *QueryInput) ToggleMode() {
	if q.mode == messages.ModeKeyword {
		q.mode = messages.ModeSimilarity
	} else {
		q.mode = messages.ModeKeyword
	}
}

// Value returns the query text.
func (q *QueryInput) Value() string {
	return q.ti.Value()
}

// SetValue replaces the query text.
func (q *QueryInput) SetValue(v string) {
	q.ti.SetValue(v)
}

// Focus gives the input keyboard focus.
func (q *QueryInput) Focus() tea.Cmd {
	return q.ti.Focus()
}

// Blur removes keyboard focus.
func (q *QueryInput) Blur() {
	q.ti.Blur()
}

// Focused reports whether the input has focus.
func (q *QueryInput) Focused() bool {
	return q.ti.Focused()
}

// SetWidth fits the input to a terminal of the given width.
func (q *QueryInput) SetWidth(width int) {
	q.ti.Width = max(width-lipgloss.Width(q.label())-6, minWidth)
}
