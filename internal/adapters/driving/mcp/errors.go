// Package mcp provides an MCP (Model Context Protocol) server adapter for ragcore.
// It lets AI assistants search and browse the indexed documents.
package mcp

import "errors"

// Missing port errors returned by Ports.Validate.
var (
	ErrMissingSearchService   = errors.New("mcp: search service is required")
	ErrMissingKeywordService  = errors.New("mcp: keyword service is required")
	ErrMissingDocumentService = errors.New("mcp: document service is required")
)
