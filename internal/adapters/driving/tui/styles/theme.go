// Package styles provides the colour palette and lipgloss styles for the TUI.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette is the set of colours styles are built from.
type Palette struct {
	Accent    lipgloss.Color
	Secondary lipgloss.Color
	Text      lipgloss.Color
	Dim       lipgloss.Color
	Good      lipgloss.Color
	Bad       lipgloss.Color
	Mark      lipgloss.Color
	Border    lipgloss.Color
	Bar       lipgloss.Color
}

// DefaultPalette returns the default colours.
func DefaultPalette() Palette {
	return Palette{
		Accent:    lipgloss.Color("#7C3AED"),
		Secondary: lipgloss.Color("#06B6D4"),
		Text:      lipgloss.Color("#CDD6F4"),
		Dim:       lipgloss.Color("#6C7086"),
		Good:      lipgloss.Color("#A6E3A1"),
		Bad:       lipgloss.Color("#F38BA8"),
		Mark:      lipgloss.Color("#F9E2AF"),
		Border:    lipgloss.Color("#45475A"),
		Bar:       lipgloss.Color("#181825"),
	}
}

// Styles contains the styles views render with.
type Styles struct {
	palette Palette

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Match    lipgloss.Style
	Input    lipgloss.Style
	Status   lipgloss.Style
	Box      lipgloss.Style
}

// New builds styles from p.
func New(p Palette) *Styles {
	return &Styles{
		palette:  p,
		Title:    lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(p.Secondary),
		Normal:   lipgloss.NewStyle().Foreground(p.Text),
		Muted:    lipgloss.NewStyle().Foreground(p.Dim),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(p.Text).Background(p.Accent),
		Error:    lipgloss.NewStyle().Foreground(p.Bad),
		Success:  lipgloss.NewStyle().Foreground(p.Good),
		Match:    lipgloss.NewStyle().Bold(true).Foreground(p.Mark),
		Input: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
		Status: lipgloss.NewStyle().Foreground(p.Dim).Background(p.Bar).Padding(0, 1),
		Box: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
	}
}

// Default returns styles with the default palette.
func Default() *Styles {
	return New(DefaultPalette())
}

// Palette returns the colours the styles were built from.
func (s *Styles) Palette() Palette {
	return s.palette
}

// Marked renders text with spans between open and closeTag in the Match
// style and the rest in base. An unterminated span runs to the end.
func (s *Styles) Marked(text, open, closeTag string, base lipgloss.Style) string {
	var b strings.Builder
	for text != "" {
		i := strings.Index(text, open)
		if i < 0 {
			b.WriteString(base.Render(text))
			break
		}
		if i > 0 {
			b.WriteString(base.Render(text[:i]))
		}
		text = text[i+len(open):]
		j := strings.Index(text, closeTag)
		if j < 0 {
			b.WriteString(s.Match.Render(text))
			break
		}
		b.WriteString(s.Match.Render(text[:j]))
		text = text[j+len(closeTag):]
	}
	return b.String()
}
