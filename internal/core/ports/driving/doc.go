// Package driving holds the interfaces the CLI, REST API, MCP server,
// TUI and directory watcher call into:
//
//   - IndexerService: ingest files, batches and directories; remove documents
//   - DocumentService: list documents and read their text and chunks
//   - SearchService / KeywordService: similarity and lexical retrieval
//   - GraphService: entity listing, co-occurrence detail and re-extraction
//
// Implementations live in internal/core/services.
package driving
