package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/messages"
)

var (
	down  = tea.KeyMsg{Type: tea.KeyDown}
	up    = tea.KeyMsg{Type: tea.KeyUp}
	enter = tea.KeyMsg{Type: tea.KeyEnter}
)

func labels(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label
	}
	return out
}

func TestNewView_Items(t *testing.T) {
	assert.Equal(t, []string{"Search", "Documents", "Help", "Quit"}, labels(NewView(nil, nil, false).Items()))
	assert.Equal(t, []string{"Search", "Documents", "Entities", "Help", "Quit"}, labels(NewView(nil, nil, true).Items()))
}

func TestView_Navigation(t *testing.T) {
	v := NewView(nil, nil, false)

	v, _ = v.Update(up)
	assert.Equal(t, 0, v.Selected())

	for range 10 {
		v, _ = v.Update(down)
	}
	assert.Equal(t, len(v.Items())-1, v.Selected())
	assert.Contains(t, v.View(), "> Quit")
}

func TestView_SelectEmitsViewChanged(t *testing.T) {
	v := NewView(nil, nil, true)
	v, _ = v.Update(down)

	_, cmd := v.Update(enter)
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewDocuments}, cmd())
}

func TestView_Quit(t *testing.T) {
	v := NewView(nil, nil, false)
	for range len(v.Items()) {
		v, _ = v.Update(down)
	}

	_, cmd := v.Update(enter)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView_IgnoresOtherMessages(t *testing.T) {
	v := NewView(nil, nil, false)
	_, cmd := v.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Nil(t, cmd)
}
