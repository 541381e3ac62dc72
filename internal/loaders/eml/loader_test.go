package eml

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMessage(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "message.eml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\r\n")), 0o600))
	return path
}

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{".eml"}, New().Extensions())
}

func TestLoad_PlainText(t *testing.T) {
	path := writeMessage(t,
		"From: Alice <alice@example.com>",
		"To: bob@example.com",
		"Date: Mon, 2 Jan 2006 15:04:05 -0700",
		"Subject: Launch plan",
		"",
		"We ship on Friday.",
	)

	doc, err := New().Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "From: Alice <alice@example.com>\n"+
		"To: bob@example.com\n"+
		"Date: Mon, 2 Jan 2006 15:04:05 -0700\n"+
		"Subject: Launch plan\n\n"+
		"We ship on Friday.", doc.Content)
	assert.Equal(t, "Launch plan", doc.Metadata["title"])
	assert.Equal(t, "Alice <alice@example.com>", doc.Metadata["from"])
	assert.Equal(t, "bob@example.com", doc.Metadata["to"])
	assert.Equal(t, "email", doc.Metadata["format"])
	assert.Equal(t, "message/rfc822", doc.Metadata["mime_type"])
}

func TestLoad_EncodedSubject(t *testing.T) {
	path := writeMessage(t,
		"Subject: =?UTF-8?B?Q2Fmw6kgbWVldGluZw==?=",
		"",
		"body",
	)

	doc, err := New().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Café meeting", doc.Metadata["title"])
}

func TestLoad_MultipartPrefersPlainText(t *testing.T) {
	path := writeMessage(t,
		"Subject: Alternatives",
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="XYZ"`,
		"",
		"--XYZ",
		"Content-Type: text/html",
		"",
		"<p>html body</p>",
		"--XYZ",
		"Content-Type: text/plain",
		"",
		"plain body",
		"--XYZ--",
	)

	doc, err := New().Load(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(doc.Content, "plain body"))
	assert.NotContains(t, doc.Content, "html body")
}

func TestLoad_HTMLOnlyBase64(t *testing.T) {
	path := writeMessage(t,
		"Subject: Html",
		"Content-Type: text/html",
		"Content-Transfer-Encoding: base64",
		"",
		"PHA+SGVsbG8gPGI+d29ybGQ8L2I+PC9wPg==",
	)

	doc, err := New().Load(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(doc.Content, "Hello world"))
}

func TestLoad_SkipsAttachments(t *testing.T) {
	path := writeMessage(t,
		"Subject: With file",
		`Content-Type: multipart/mixed; boundary="B"`,
		"",
		"--B",
		"Content-Type: text/plain",
		"",
		"see attached",
		"--B",
		"Content-Type: text/plain",
		`Content-Disposition: attachment; filename="notes.txt"`,
		"",
		"secret attachment text",
		"--B--",
	)

	doc, err := New().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, doc.Content, "see attached")
	assert.NotContains(t, doc.Content, "secret attachment text")
}

func TestLoad_NoSubjectUsesFilename(t *testing.T) {
	path := writeMessage(t, "From: a@example.com", "", "hi")

	doc, err := New().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "message", doc.Metadata["title"])
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "one\ntwo", stripTags("<div>one</div>\n\n<p>two</p>"))
}
