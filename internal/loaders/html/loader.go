// Package html loads HTML files as readable text.
package html

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/loaders/fileinfo"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader handles HTML documents.
type Loader struct{}

// New creates a new HTML loader.
func New() *Loader {
	return &Loader{}
}

// Extensions returns the extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".html", ".htm"}
}

// Load reads the file and strips markup.
func (l *Loader) Load(ctx context.Context, path string) (*domain.LoadedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := fileinfo.Read(path)
	if err != nil {
		return nil, err
	}
	raw := fileinfo.Decode(data)

	meta := fileinfo.Metadata(path, len(data), "text/html")
	meta[fileinfo.KeyFormat] = "html"
	meta[fileinfo.KeyTitle] = extractTitle(raw, path)

	return &domain.LoadedDocument{Content: stripHTML(raw), Metadata: meta}, nil
}

var (
	titleTag    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	droppedTags = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
		regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`),
		regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`),
		regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`),
		regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`),
		regexp.MustCompile(`(?s)<!--.*?-->`),
	}
	blockBreaks = regexp.MustCompile(
		`(?i)</?(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>|<br\s*/?>|<hr\s*/?>`)
	anyTag    = regexp.MustCompile(`<[^>]+>`)
	runSpaces = regexp.MustCompile(`[ \t]+`)
)

// extractTitle returns the <title> text or a name derived from path.
func extractTitle(content, path string) string {
	if m := titleTag.FindStringSubmatch(content); len(m) > 1 {
		if title := strings.TrimSpace(html.UnescapeString(m[1])); title != "" {
			return title
		}
	}
	return fileinfo.TitleFromPath(path)
}

// stripHTML drops non-content elements, turns block boundaries into line
// breaks and removes the remaining tags. Blank lines are dropped.
func stripHTML(content string) string {
	for _, re := range droppedTags {
		content = re.ReplaceAllString(content, "")
	}
	content = blockBreaks.ReplaceAllString(content, "\n")
	content = anyTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = runSpaces.ReplaceAllString(content, " ")

	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
