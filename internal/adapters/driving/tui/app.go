package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/views/content"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/views/entities"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/views/search"
)

// App is the root Bubbletea model. It owns the views and routes messages
// to the active one.
type App struct {
	ctx    context.Context
	styles *styles.Styles
	keys   *keymap.KeyMap

	menu      *menu.View
	search    *search.View
	documents *documents.View
	content   *content.View
	entities  *entities.View // nil without a graph service

	current messages.ViewType
	ready   bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the application. ctx bounds every service call.
func NewApp(ctx context.Context, ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	s := styles.Default()
	km := keymap.Default()

	a := &App{
		ctx:       ctx,
		styles:    s,
		keys:      km,
		menu:      menu.NewView(s, km, ports.Graph != nil),
		search:    search.NewView(ctx, s, km, ports.Search, ports.Keyword),
		documents: documents.NewView(ctx, s, km, ports.Documents, ports.Indexer),
		content:   content.NewView(ctx, s, km, ports.Documents),
		current:   messages.ViewMenu,
	}
	if ports.Graph != nil {
		a.entities = entities.NewView(ctx, s, km, ports.Graph)
	}
	return a, nil
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.SetWindowTitle("ragcore")
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.ready = true
		a.search.SetDimensions(msg.Width, msg.Height)
		a.documents.SetDimensions(msg.Width, msg.Height)
		a.content.SetDimensions(msg.Width, msg.Height)
		if a.entities != nil {
			a.entities.SetDimensions(msg.Width, msg.Height)
		}
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
		if a.current == messages.ViewHelp {
			if msg.Type == tea.KeyEsc {
				a.current = messages.ViewMenu
			}
			return a, nil
		}

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.DocumentSelected:
		back := a.current
		a.current = messages.ViewContent
		return a, a.content.Open(msg.Document, msg.ChunkIndex, back)

	case messages.SearchCompleted:
		a.search, cmd = a.search.Update(msg)
		return a, cmd

	case messages.DocumentsLoaded, messages.DocumentRemoved:
		a.documents, cmd = a.documents.Update(msg)
		return a, cmd

	case messages.ContentLoaded:
		a.content, cmd = a.content.Update(msg)
		return a, cmd

	case messages.EntitiesLoaded, messages.EntityDetailLoaded:
		if a.entities != nil {
			a.entities, cmd = a.entities.Update(msg)
		}
		return a, cmd
	}

	return a, a.forward(msg)
}

// switchTo activates view and starts its initial load.
func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	a.current = view
	switch view {
	case messages.ViewSearch:
		return tea.Batch(a.search.Reset(), a.search.Init())
	case messages.ViewDocuments:
		return a.documents.Load()
	case messages.ViewEntities:
		if a.entities == nil {
			a.current = messages.ViewMenu
			return nil
		}
		return a.entities.Load()
	case messages.ViewMenu, messages.ViewContent, messages.ViewHelp:
	}
	return nil
}

// forward passes msg to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.current {
	case messages.ViewMenu:
		a.menu, cmd = a.menu.Update(msg)
	case messages.ViewSearch:
		a.search, cmd = a.search.Update(msg)
	case messages.ViewDocuments:
		a.documents, cmd = a.documents.Update(msg)
	case messages.ViewContent:
		a.content, cmd = a.content.Update(msg)
	case messages.ViewEntities:
		if a.entities != nil {
			a.entities, cmd = a.entities.Update(msg)
		}
	case messages.ViewHelp:
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	switch a.current {
	case messages.ViewSearch:
		return a.search.View()
	case messages.ViewDocuments:
		return a.documents.View()
	case messages.ViewContent:
		return a.content.View()
	case messages.ViewEntities:
		if a.entities != nil {
			return a.entities.View()
		}
	case messages.ViewHelp:
		return a.helpView()
	case messages.ViewMenu:
	}
	return a.menu.View()
}

func (a *App) helpView() string {
	return a.styles.Title.Render("Keys") + `

Menu          ↑/↓ or j/k move, enter open, q quit
Search        type a query, tab switch similarity/keyword, enter search
Results       ↑/↓ move, enter open at the matched chunk, / new search
Documents     enter read, d remove, r reload
Reader        ↑/↓ scroll, pgup/pgdn page
Anywhere      esc back, ctrl+c quit

` + a.styles.Muted.Render("[esc] back to menu")
}

// Run starts the program and blocks until it exits or ctx is cancelled.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && a.ctx.Err() != nil {
		return nil
	}
	return err
}

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType {
	return a.current
}

// Ready reports whether the terminal size is known.
func (a *App) Ready() bool {
	return a.ready
}
