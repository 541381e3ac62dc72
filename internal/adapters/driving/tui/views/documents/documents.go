// Package documents provides the document list view.
package documents

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

// reservedLines covers the title, the blank lines and the status bar.
const reservedLines = 7

// View lists documents, newest first. Removal asks for confirmation.
type View struct {
	ctx    context.Context
	styles *styles.Styles
	keys   *keymap.KeyMap
	bar    *status.Bar

	documents driving.DocumentService
	indexer   driving.IndexerService

	docs       []domain.Document
	selected   int
	offset     int
	height     int
	width      int
	loading    bool
	confirming bool
	err        error
}

// NewView creates a document list. A nil indexer disables removal.
func NewView(ctx context.Context, s *styles.Styles, km *keymap.KeyMap,
	documents driving.DocumentService, indexer driving.IndexerService) *View {
	if s == nil {
		s = styles.Default()
	}
	if km == nil {
		km = keymap.Default()
	}
	v := &View{
		ctx:       ctx,
		styles:    s,
		keys:      km,
		bar:       status.NewBar(s),
		documents: documents,
		indexer:   indexer,
		width:     80,
		height:    24,
	}
	v.bar.SetBindings(km.DocumentsHelp(indexer != nil))
	return v
}

// Load returns a command that fetches the listing.
func (v *View) Load() tea.Cmd {
	v.loading = true
	v.bar.SetState(status.StateBusy)
	v.bar.SetMessage("Loading documents...")
	ctx, docs := v.ctx, v.documents
	return func() tea.Msg {
		list, err := docs.List(ctx)
		return messages.DocumentsLoaded{Documents: list, Err: err}
	}
}

// Update handles keys and load results.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if v.confirming {
			return v.handleConfirm(msg)
		}
		return v.handleKey(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.err = nil
		v.docs = msg.Documents
		v.selected = min(v.selected, max(len(v.docs)-1, 0))
		v.adjustScroll()
		if v.bar.State() == status.StateBusy {
			v.bar.SetState(status.StateReady)
		}
		return v, nil

	case messages.DocumentRemoved:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		cmd := v.Load()
		v.bar.SetState(status.StateReady)
		v.bar.SetMessage("Removed " + msg.DocumentID)
		return v, cmd

	case messages.ErrorOccurred:
		v.setError(msg.Err)
	}
	return v, nil
}

func (v *View) setError(err error) {
	v.err = err
	v.bar.SetState(status.StateError)
	v.bar.SetMessage(err.Error())
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
	case key.Matches(msg, v.keys.Up):
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case key.Matches(msg, v.keys.Down):
		if v.selected < len(v.docs)-1 {
			v.selected++
			v.adjustScroll()
		}
	case key.Matches(msg, v.keys.Reload):
		return v, v.Load()
	case key.Matches(msg, v.keys.Select):
		if doc := v.SelectedDocument(); doc != nil {
			sel := messages.DocumentSelected{Document: *doc, ChunkIndex: -1}
			return v, func() tea.Msg { return sel }
		}
	case key.Matches(msg, v.keys.Remove):
		if v.indexer != nil && v.SelectedDocument() != nil {
			v.confirming = true
		}
	}
	return v, nil
}

func (v *View) handleConfirm(msg tea.KeyMsg) (*View, tea.Cmd) {
	v.confirming = false
	if msg.String() != "y" {
		return v, nil
	}
	doc := v.SelectedDocument()
	if doc == nil {
		return v, nil
	}
	ctx, indexer, id := v.ctx, v.indexer, doc.ID
	return v, func() tea.Msg {
		removed, err := indexer.RemoveDocument(ctx, id)
		if err == nil && !removed {
			err = fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return messages.DocumentRemoved{DocumentID: id, Err: err}
	}
}

func (v *View) visibleRows() int {
	return max(v.height-reservedLines, 1)
}

func (v *View) adjustScroll() {
	rows := v.visibleRows()
	if v.selected < v.offset {
		v.offset = v.selected
	} else if v.selected >= v.offset+rows {
		v.offset = v.selected - rows + 1
	}
}

// SetDimensions fits the view to the terminal.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.bar.SetWidth(width)
	v.adjustScroll()
}

// View renders the list.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.docs))))
	b.WriteString("\n\n")

	switch {
	case v.loading && len(v.docs) == 0:
		b.WriteString(v.styles.Muted.Render("Loading..."))
	case len(v.docs) == 0:
		b.WriteString(v.styles.Muted.Render("No documents indexed. Run `ragcore index <path>` to add some."))
	default:
		rows := v.visibleRows()
		nameWidth := max(v.width/2, 16)
		for i := v.offset; i < len(v.docs) && i < v.offset+rows; i++ {
			d := v.docs[i]
			name := d.Filename
			if r := []rune(name); len(r) > nameWidth {
				name = string(r[:nameWidth-3]) + "..."
			}
			line := fmt.Sprintf("%-*s %4d chunks  %s", nameWidth, name, d.NumChunks, d.CreatedAt.Format("2006-01-02 15:04"))
			if i == v.selected {
				b.WriteString(v.styles.Selected.Render("> " + line))
			} else {
				b.WriteString(v.styles.Normal.Render("  " + line))
			}
			b.WriteString("\n")
		}
	}

	if v.confirming {
		if doc := v.SelectedDocument(); doc != nil {
			b.WriteString("\n")
			b.WriteString(v.styles.Error.Render(fmt.Sprintf("Remove %s from every index? [y/N]", doc.Filename)))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(v.bar.View())
	return b.String()
}

// Documents returns the listed documents.
func (v *View) Documents() []domain.Document {
	return v.docs
}

// SelectedDocument returns the selected document, or nil when empty.
func (v *View) SelectedDocument() *domain.Document {
	if v.selected < 0 || v.selected >= len(v.docs) {
		return nil
	}
	return &v.docs[v.selected]
}

// Confirming reports whether a removal is awaiting confirmation.
func (v *View) Confirming() bool {
	return v.confirming
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
