// Package eml loads RFC 5322 email messages. Headers become metadata and
// a short preamble; the body prefers text/plain parts over text/html.
package eml

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/loaders/fileinfo"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader handles .eml files.
type Loader struct{}

// New creates a new email loader.
func New() *Loader {
	return &Loader{}
}

// Extensions returns the extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".eml"}
}

// Load parses the message.
func (l *Loader) Load(ctx context.Context, path string) (*domain.LoadedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := fileinfo.Read(path)
	if err != nil {
		return nil, err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing email %s: %w", path, err)
	}

	subject := decodeHeader(msg.Header.Get("Subject"))
	from := decodeHeader(msg.Header.Get("From"))
	to := decodeHeader(msg.Header.Get("To"))
	date := msg.Header.Get("Date")

	body, err := extractBody(msg.Header, msg.Body)
	if err != nil {
		return nil, fmt.Errorf("reading email body %s: %w", path, err)
	}

	var b strings.Builder
	for _, h := range [][2]string{{"From", from}, {"To", to}, {"Date", date}, {"Subject", subject}} {
		if h[1] != "" {
			fmt.Fprintf(&b, "%s: %s\n", h[0], h[1])
		}
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(strings.TrimSpace(body))

	meta := fileinfo.Metadata(path, len(data), "message/rfc822")
	meta[fileinfo.KeyFormat] = "email"
	if subject != "" {
		meta[fileinfo.KeyTitle] = subject
	} else {
		meta[fileinfo.KeyTitle] = fileinfo.TitleFromPath(path)
	}
	for key, value := range map[string]string{"from": from, "to": to, "date": date} {
		if value != "" {
			meta[key] = value
		}
	}

	return &domain.LoadedDocument{Content: strings.TrimSpace(b.String()), Metadata: meta}, nil
}

// decodeHeader decodes RFC 2047 encoded words, returning the input on failure.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	decoded, err := new(mime.WordDecoder).DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

// headerGetter is satisfied by mail.Header and textproto.MIMEHeader.
type headerGetter interface {
	Get(key string) string
}

// extractBody returns the readable text of a message or part.
func extractBody(header headerGetter, body io.Reader) (string, error) {
	contentType := header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return extractMultipart(body, params["boundary"])
	}

	data, err := io.ReadAll(decodeTransfer(header.Get("Content-Transfer-Encoding"), body))
	if err != nil {
		return "", err
	}
	text := fileinfo.Decode(data)
	if mediaType == "text/html" {
		return stripTags(text), nil
	}
	return text, nil
}

// decodeTransfer undoes base64 and quoted-printable encodings.
func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

// extractMultipart walks parts recursively. Plain text wins over HTML.
func extractMultipart(r io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", nil
	}

	mr := multipart.NewReader(r, boundary)
	var textParts, htmlParts []string

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		mediaType, _, parseErr := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if parseErr != nil {
			mediaType = "text/plain"
		}
		if part.FileName() != "" {
			part.Close()
			continue
		}

		switch {
		case strings.HasPrefix(mediaType, "multipart/"), mediaType == "text/plain":
			text, err := extractBody(part.Header, part)
			if err == nil && strings.TrimSpace(text) != "" {
				textParts = append(textParts, text)
			}
		case mediaType == "text/html":
			text, err := extractBody(part.Header, part)
			if err == nil && strings.TrimSpace(text) != "" {
				htmlParts = append(htmlParts, text)
			}
		}
		part.Close()
	}

	if len(textParts) > 0 {
		return strings.Join(textParts, "\n"), nil
	}
	return strings.Join(htmlParts, "\n"), nil
}

// stripTags removes markup and blank lines from an HTML body.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
