// Package list provides the search result list component.
package list

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/services"
)

// linesPerResult is the header line, the preview line and a blank line.
const linesPerResult = 3

// Results displays search hits with a movable selection.
type Results struct {
	styles   *styles.Styles
	results  []domain.SearchResult
	selected int
	width    int
	height   int
}

// NewResults creates an empty result list.
func NewResults(s *styles.Styles) *Results {
	if s == nil {
		s = styles.Default()
	}
	return &Results{styles: s, width: 80, height: 12}
}

// SetResults replaces the results and selects the first.
func (r *Results) SetResults(results []domain.SearchResult) {
	r.results = results
	r.selected = 0
}

// Results returns the displayed results.
func (r *Results) Results() []domain.SearchResult {
	return r.results
}

// Selected returns the selected index.
func (r *Results) Selected() int {
	return r.selected
}

// SelectedResult returns the selected result, or nil when empty.
func (r *Results) SelectedResult() *domain.SearchResult {
	if r.selected < 0 || r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

// MoveUp moves the selection up.
func (r *Results) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves the selection down.
func (r *Results) MoveDown() {
	if r.selected < len(r.results)-1 {
		r.selected++
	}
}

// SetDimensions sets the space the list may use.
func (r *Results) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// View renders the visible window of results around the selection.
func (r *Results) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No results")
	}

	visible := max((r.height-2)/linesPerResult, 1)
	start := 0
	if r.selected >= visible {
		start = r.selected - visible + 1
	}
	end := min(start+visible, len(r.results))

	lines := []string{r.styles.Subtitle.Render(fmt.Sprintf("Results (%d)", len(r.results))), ""}
	for i := start; i < end; i++ {
		lines = append(lines, r.renderResult(i), "")
	}
	return strings.Join(lines, "\n")
}

func (r *Results) renderResult(i int) string {
	res := &r.results[i]
	head := fmt.Sprintf("%s #%d", res.Document.Filename, res.Chunk.Index)
	score := fmt.Sprintf("%.3f", res.Score)
	width := max(r.width-12, 10)
	head = truncate(head, width)

	var line string
	if i == r.selected {
		line = r.styles.Selected.Render(fmt.Sprintf("> %-*s %s", width, head, score))
	} else {
		line = r.styles.Normal.Render(fmt.Sprintf("  %-*s ", width, head)) + r.styles.Muted.Render(score)
	}

	preview := res.Highlight
	if preview == "" {
		preview = res.Chunk.Content
	}
	preview = truncate(strings.Join(strings.Fields(preview), " "), max(r.width-6, 20))
	return line + "\n    " + r.styles.Marked(preview, services.HighlightStart, services.HighlightEnd, r.styles.Muted)
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
