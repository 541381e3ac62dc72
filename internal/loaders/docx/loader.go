// Package docx extracts paragraph text from Office Open XML documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/loaders/fileinfo"
)

const mimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader handles .docx documents.
type Loader struct{}

// New creates a new DOCX loader.
func New() *Loader {
	return &Loader{}
}

// Extensions returns the extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".docx"}
}

// Load unzips the document and joins its paragraphs with newlines.
func (l *Loader) Load(ctx context.Context, path string) (*domain.LoadedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := fileinfo.Read(path)
	if err != nil {
		return nil, err
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening docx %s: %w", path, err)
	}

	body, err := readPart(reader, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("reading docx %s: %w", path, err)
	}
	content, err := parseDocumentXML(body)
	if err != nil {
		return nil, fmt.Errorf("parsing docx %s: %w", path, err)
	}

	meta := fileinfo.Metadata(path, len(data), mimeType)
	meta[fileinfo.KeyFormat] = "docx"
	meta[fileinfo.KeyTitle] = extractTitle(reader, path)

	return &domain.LoadedDocument{Content: content, Metadata: meta}, nil
}

// readPart returns the bytes of a named archive member, or nil if absent.
func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, nil
}

type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []string `xml:"t"`
}

// parseDocumentXML returns one line per paragraph.
func parseDocumentXML(content []byte) (string, error) {
	if len(content) == 0 {
		return "", nil
	}

	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", err
	}

	lines := make([]string, 0, len(doc.Body.Paragraphs))
	for _, para := range doc.Body.Paragraphs {
		var b strings.Builder
		for _, r := range para.Runs {
			for _, t := range r.Text {
				b.WriteString(t)
			}
		}
		lines = append(lines, b.String())
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

type coreXML struct {
	Title string `xml:"title"`
}

// extractTitle reads docProps/core.xml, falling back to the file name.
func extractTitle(reader *zip.Reader, path string) string {
	data, err := readPart(reader, "docProps/core.xml")
	if err == nil && len(data) > 0 {
		var core coreXML
		if xml.Unmarshal(data, &core) == nil {
			if title := strings.TrimSpace(core.Title); title != "" {
				return title
			}
		}
	}
	return fileinfo.TitleFromPath(path)
}
