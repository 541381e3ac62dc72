package tui

import "errors"

var (
	// ErrMissingSearchService is returned when the search service is not provided.
	ErrMissingSearchService = errors.New("tui: search service is required")

	// ErrMissingKeywordService is returned when the keyword service is not provided.
	ErrMissingKeywordService = errors.New("tui: keyword service is required")

	// ErrMissingDocumentService is returned when the document service is not provided.
	ErrMissingDocumentService = errors.New("tui: document service is required")

	// ErrInvalidPorts is returned when no ports are given.
	ErrInvalidPorts = errors.New("tui: invalid ports configuration")
)
