// Package content provides the document reader view.
package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// chromeLines covers the header, the metadata line and the status bar.
const chromeLines = 6

// View shows a document's extracted text in a scrollable viewport. When
// opened from a search result it starts at the matched chunk.
type View struct {
	ctx    context.Context
	styles *styles.Styles
	keys   *keymap.KeyMap
	bar    *status.Bar
	vp     viewport.Model

	documents driving.DocumentService

	doc        *domain.Document
	chunkIndex int
	content    string
	chunks     []domain.Chunk
	back       messages.ViewType
	width      int
	err        error
}

// NewView creates a reader.
func NewView(ctx context.Context, s *styles.Styles, km *keymap.KeyMap, documents driving.DocumentService) *View {
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
		vp:        viewport.New(80, 24-chromeLines),
		documents: documents,
		width:     80,
		back:      messages.ViewDocuments,
	}
	v.bar.SetBindings(km.ContentHelp())
	return v
}

// Open loads doc and returns to back on esc. chunkIndex < 0 starts at the
// top.
func (v *View) Open(doc domain.Document, chunkIndex int, back messages.ViewType) tea.Cmd {
	v.doc = &doc
	v.chunkIndex = chunkIndex
	v.back = back
	v.content = ""
	v.chunks = nil
	v.err = nil
	v.vp.SetContent("")
	v.vp.GotoTop()
	v.bar.SetState(status.StateBusy)
	v.bar.SetMessage("Loading " + doc.Filename + "...")

	ctx, docs, id := v.ctx, v.documents, doc.ID
	return func() tea.Msg {
		text, err := docs.GetContent(ctx, id)
		if err != nil {
			return messages.ContentLoaded{DocumentID: id, Err: err}
		}
		chunks, err := docs.Chunks(ctx, id)
		return messages.ContentLoaded{DocumentID: id, Content: text, Chunks: chunks, Err: err}
	}
}

// Update handles scrolling and the loaded content.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, v.keys.Back) {
			back := v.back
			return v, func() tea.Msg { return messages.ViewChanged{View: back} }
		}

	case messages.ContentLoaded:
		if v.doc == nil || msg.DocumentID != v.doc.ID {
			return v, nil
		}
		if msg.Err != nil {
			v.err = msg.Err
			v.bar.SetState(status.StateError)
			v.bar.SetMessage(msg.Err.Error())
			return v, nil
		}
		v.content = msg.Content
		v.chunks = msg.Chunks
		v.render()
		v.bar.SetState(status.StateReady)
		return v, nil
	}

	var cmd tea.Cmd
	v.vp, cmd = v.vp.Update(msg)
	return v, cmd
}

// render wraps the content to the viewport width and scrolls to the
// target chunk.
func (v *View) render() {
	wrap := lipgloss.NewStyle().Width(max(v.vp.Width-1, 10))
	v.vp.SetContent(wrap.Render(v.content))
	v.vp.GotoTop()

	start, ok := v.chunkStart()
	if !ok || start == 0 {
		return
	}
	prefix := wrap.Render(v.content[:start])
	v.vp.SetYOffset(lipgloss.Height(prefix) - 1)
}

// chunkStart returns the byte offset of the target chunk.
func (v *View) chunkStart() (int, bool) {
	if v.chunkIndex < 0 {
		return 0, false
	}
	for _, c := range v.chunks {
		if c.Index != v.chunkIndex {
			continue
		}
		// Offsets are in characters; convert to a byte offset.
		runes := []rune(v.content)
		if c.StartChar > len(runes) {
			return 0, false
		}
		return len(string(runes[:c.StartChar])), true
	}
	return 0, false
}

// SetDimensions fits the viewport to the terminal.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.vp.Width = width
	v.vp.Height = max(height-chromeLines, 1)
	v.bar.SetWidth(width)
	if v.content != "" {
		v.render()
	}
}

// View renders the reader.
func (v *View) View() string {
	if v.doc == nil {
		return v.styles.Muted.Render("No document selected")
	}
	var b strings.Builder
	b.WriteString(v.styles.Title.Render(v.doc.Filename))
	b.WriteString("\n")
	meta := fmt.Sprintf("%s  %d chunks  %3.0f%%", v.doc.ID, len(v.chunks), v.vp.ScrollPercent()*100)
	if v.chunkIndex >= 0 {
		meta += fmt.Sprintf("  at chunk #%d", v.chunkIndex)
	}
	b.WriteString(v.styles.Muted.Render(meta))
	b.WriteString("\n\n")
	if v.err != nil {
		b.WriteString(v.styles.Error.Render(v.err.Error()))
	} else {
		b.WriteString(v.vp.View())
	}
	b.WriteString("\n\n")
	b.WriteString(v.bar.View())
	return b.String()
}

// Document returns the open document.
func (v *View) Document() *domain.Document {
	return v.doc
}

// Content returns the loaded text.
func (v *View) Content() string {
	return v.content
}

// YOffset returns the viewport scroll position in lines.
func (v *View) YOffset() int {
	return v.vp.YOffset
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
