// Package entities provides the entity graph view.
package entities

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// Limit is the number of entities listed.
const Limit = 100

// View lists entities by frequency. Selecting one shows its related
// entities; esc returns to the list.
type View struct {
	ctx    context.Context
	styles *styles.Styles
	keys   *keymap.KeyMap
	bar    *status.Bar
	graph  driving.GraphService

	nodes    []domain.EntityNode
	selected int
	offset   int
	height   int
	detail   *domain.EntityDetail
	err      error
}

// NewView creates the entity view.
func NewView(ctx context.Context, s *styles.Styles, km *keymap.KeyMap, graph driving.GraphService) *View {
	if s == nil {
		s = styles.Default()
	}
	if km == nil {
		km = keymap.Default()
	}
	v := &View{ctx: ctx, styles: s, keys: km, bar: status.NewBar(s), graph: graph, height: 24}
	v.bar.SetBindings(km.EntitiesHelp())
	return v
}

// Load returns a command that fetches the top entities.
func (v *View) Load() tea.Cmd {
	v.detail = nil
	v.bar.SetState(status.StateBusy)
	v.bar.SetMessage("Loading entities...")
	ctx, graph := v.ctx, v.graph
	return func() tea.Msg {
		nodes, err := graph.ListEntities(ctx, domain.EntityQuery{Limit: Limit})
		return messages.EntitiesLoaded{Entities: nodes, Err: err}
	}
}

// Update handles keys and loads.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case messages.EntitiesLoaded:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.err = nil
		v.nodes = msg.Entities
		v.selected, v.offset = 0, 0
		v.bar.SetState(status.StateResults)
		v.bar.SetResultCount(len(v.nodes))
		return v, nil

	case messages.EntityDetailLoaded:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.detail = msg.Detail
		return v, nil
	}
	return v, nil
}

func (v *View) setError(err error) {
	v.err = err
	v.bar.SetState(status.StateError)
	v.bar.SetMessage(err.Error())
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.detail != nil {
		if key.Matches(msg, v.keys.Back) {
			v.detail = nil
		}
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
	case key.Matches(msg, v.keys.Up):
		if v.selected > 0 {
			v.selected--
		}
	case key.Matches(msg, v.keys.Down):
		if v.selected < len(v.nodes)-1 {
			v.selected++
		}
	case key.Matches(msg, v.keys.Reload):
		return v, v.Load()
	case key.Matches(msg, v.keys.Select):
		if v.selected < len(v.nodes) {
			n := v.nodes[v.selected]
			ctx, graph := v.ctx, v.graph
			return v, func() tea.Msg {
				d, err := graph.EntityDetail(ctx, n.Name, n.Category)
				return messages.EntityDetailLoaded{Detail: d, Err: err}
			}
		}
	}
	rows := max(v.height-7, 1)
	if v.selected < v.offset {
		v.offset = v.selected
	} else if v.selected >= v.offset+rows {
		v.offset = v.selected - rows + 1
	}
	return v, nil
}

// SetDimensions fits the view to the terminal.
func (v *View) SetDimensions(width, height int) {
	v.height = height
	v.bar.SetWidth(width)
}

// View renders the list or the selected entity.
func (v *View) View() string {
	var b strings.Builder
	if v.detail != nil {
		v.renderDetail(&b)
	} else {
		v.renderList(&b)
	}
	b.WriteString("\n\n")
	b.WriteString(v.bar.View())
	return b.String()
}

func (v *View) renderList(b *strings.Builder) {
	b.WriteString(v.styles.Title.Render("Entities"))
	b.WriteString("\n\n")
	if len(v.nodes) == 0 {
		b.WriteString(v.styles.Muted.Render("No entities. Enable [entities] in the config and reindex."))
		return
	}
	rows := max(v.height-7, 1)
	for i := v.offset; i < len(v.nodes) && i < v.offset+rows; i++ {
		n := v.nodes[i]
		line := fmt.Sprintf("%-32s %-14s %5d", name(n), n.Category, n.Frequency)
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + line))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + line))
		}
		b.WriteString("\n")
	}
}

func (v *View) renderDetail(b *strings.Builder) {
	d := v.detail
	b.WriteString(v.styles.Title.Render(name(d.Entity)))
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  %s, %d mentions in %d chunks",
		d.Entity.Category, d.Entity.Frequency, len(d.ChunkIDs))))
	b.WriteString("\n\n")
	if len(d.RelatedEntities) == 0 {
		b.WriteString(v.styles.Muted.Render("No related entities."))
		return
	}
	b.WriteString(v.styles.Subtitle.Render("Related"))
	b.WriteString("\n")
	for _, r := range d.RelatedEntities {
		b.WriteString(v.styles.Normal.Render(fmt.Sprintf("  %-32s %-14s %5d", name(r.Entity), r.Entity.Category, r.CoOccurrenceCount)))
		b.WriteString("\n")
	}
}

func name(n domain.EntityNode) string {
	if n.DisplayName != "" {
		return n.DisplayName
	}
	return n.Name
}

// Entities returns the listed entities.
func (v *View) Entities() []domain.EntityNode {
	return v.nodes
}

// Detail returns the entity being shown, or nil on the list.
func (v *View) Detail() *domain.EntityDetail {
	return v.detail
}

// Selected returns the selected index.
func (v *View) Selected() int {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
