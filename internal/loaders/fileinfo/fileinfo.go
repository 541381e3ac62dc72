// Package fileinfo holds the file reading and metadata helpers shared by
// the loaders.
package fileinfo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// Metadata keys set by every loader.
const (
	KeyFilename = "filename"
	KeyFileSize = "file_size"
	KeyFileType = "file_type"
	KeyMIMEType = "mime_type"
	KeyFormat   = "format"
	KeyTitle    = "title"
)

// Read returns the bytes of path. A missing file is domain.ErrNotFound.
func Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: file %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// Metadata returns the common file metadata for path.
func Metadata(path string, size int, mimeType string) map[string]any {
	return map[string]any{
		KeyFilename: filepath.Base(path),
		KeyFileSize: size,
		KeyFileType: filepath.Ext(path),
		KeyMIMEType: mimeType,
	}
}

// Decode returns data as UTF-8 text. Bytes that are not valid UTF-8 are
// read as Latin-1, which maps every byte to a code point.
func Decode(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	var b strings.Builder
	b.Grow(len(data) * 2)
	for _, c := range data {
		b.WriteRune(rune(c))
	}
	return b.String()
}

// TitleFromPath derives a readable title from a file name.
func TitleFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ReplaceAll(name, "-", " ")
}
