// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentStore: Canonical documents and chunks (SQLite)
//   - VectorIndex / VectorStore: Similarity search and its durable mirror
//   - LexicalIndex: Ranked keyword search (SQLite FTS5)
//   - LoaderRegistry / SplitterFactory: Text extraction and chunking
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Without it, similarity search and ingestion embeddings are disabled.
//   - EntityStore / EntityExtractor: Without them, no entity graph is built.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, loader, or splitter package
package driven
