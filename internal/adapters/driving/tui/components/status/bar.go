// Package status provides the status bar component.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
)

// State is what the status bar reports on its left side.
type State string

// Bar states.
const (
	StateReady   State = "ready"
	StateBusy    State = "busy"
	StateResults State = "results"
	StateError   State = "error"
)

// Bar shows the current state on the left and key hints on the right.
type Bar struct {
	styles   *styles.Styles
	help     help.Model
	bindings []key.Binding
	state    State
	message  string
	count    int
	width    int
}

// NewBar creates a status bar in the ready state.
func NewBar(s *styles.Styles) *Bar {
	if s == nil {
		s = styles.Default()
	}
	h := help.New()
	h.Styles.ShortKey = s.Normal
	h.Styles.ShortDesc = s.Muted
	h.Styles.ShortSeparator = s.Muted
	return &Bar{styles: s, help: h, state: StateReady, width: 80}
}

// SetBindings sets the key hints.
func (b *Bar) SetBindings(bindings []key.Binding) {
	b.bindings = bindings
}

// SetState sets the state and clears any message.
func (b *Bar) SetState(state State) {
	b.state = state
	b.message = ""
}

// State returns the current state.
func (b *Bar) State() State {
	return b.state
}

// SetMessage sets the text shown for the busy and error states.
func (b *Bar) SetMessage(msg string) {
	b.message = msg
}

// Message returns the current message.
func (b *Bar) Message() string {
	return b.message
}

// SetResultCount sets the count shown in the results state.
func (b *Bar) SetResultCount(n int) {
	b.count = n
}

// SetWidth sets the bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
	b.help.Width = width / 2
}

// View renders the bar.
func (b *Bar) View() string {
	left := b.left()
	right := b.help.ShortHelpView(b.bindings)
	pad := max(b.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return b.styles.Status.Width(b.width).Render(left + strings.Repeat(" ", pad) + right)
}

func (b *Bar) left() string {
	switch b.state {
	case StateBusy:
		if b.message != "" {
			return b.styles.Muted.Render(b.message)
		}
		return b.styles.Muted.Render("Working...")
	case StateError:
		return b.styles.Error.Render("Error: " + b.message)
	case StateResults:
		return b.styles.Normal.Render(fmt.Sprintf("%d results", b.count))
	case StateReady:
	}
	if b.message != "" {
		return b.styles.Success.Render(b.message)
	}
	return b.styles.Muted.Render("Ready")
}
