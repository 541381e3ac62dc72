// Package menu provides the main navigation menu.
package menu

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
)

// Item is a menu entry. Quit entries exit the program.
type Item struct {
	Label string
	Hint  string
	View  messages.ViewType
	Quit  bool
}

// View is the main menu.
type View struct {
	styles   *styles.Styles
	keys     *keymap.KeyMap
	help     help.Model
	items    []Item
	selected int
}

// NewView creates the menu. The entities entry is shown only when
// withEntities is set.
func NewView(s *styles.Styles, km *keymap.KeyMap, withEntities bool) *View {
	if s == nil {
		s = styles.Default()
	}
	if km == nil {
		km = keymap.Default()
	}
	items := []Item{
		{Label: "Search", Hint: "similarity and keyword search", View: messages.ViewSearch},
		{Label: "Documents", Hint: "browse, read and remove documents", View: messages.ViewDocuments},
	}
	if withEntities {
		items = append(items, Item{Label: "Entities", Hint: "explore the entity graph", View: messages.ViewEntities})
	}
	items = append(items,
		Item{Label: "Help", Hint: "keybindings", View: messages.ViewHelp},
		Item{Label: "Quit", Quit: true},
	)
	h := help.New()
	h.Styles.ShortKey = s.Normal
	h.Styles.ShortDesc = s.Muted
	return &View{styles: s, keys: km, help: h, items: items}
}

// Items returns the menu entries.
func (v *View) Items() []Item {
	return v.items
}

// Selected returns the selected index.
func (v *View) Selected() int {
	return v.selected
}

// Update handles navigation keys.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	switch {
	case key.Matches(km, v.keys.Up):
		if v.selected > 0 {
			v.selected--
		}
	case key.Matches(km, v.keys.Down):
		if v.selected < len(v.items)-1 {
			v.selected++
		}
	case key.Matches(km, v.keys.Select):
		item := v.items[v.selected]
		if item.Quit {
			return v, tea.Quit
		}
		return v, func() tea.Msg { return messages.ViewChanged{View: item.View} }
	case key.Matches(km, v.keys.Quit):
		return v, tea.Quit
	}
	return v, nil
}

// View renders the menu.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("ragcore"))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Local document retrieval"))
	b.WriteString("\n\n")

	for i, item := range v.items {
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + item.Label))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + item.Label))
		}
		if item.Hint != "" {
			b.WriteString(v.styles.Muted.Render("  " + item.Hint))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(v.help.ShortHelpView(v.keys.MenuHelp()))
	return b.String()
}
