// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - DocumentStore: Canonical documents and ordered chunks
//   - SettingsStore: Per-database settings (vector width, provider identity)
//   - VectorStore: Durable mirror of the in-memory similarity index
//   - LexicalIndex: FTS5 full-text search with bm25 ranking and highlighting
//   - EntityStore: Entity nodes and chunk edges of the co-occurrence graph
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.ragcore/data/ragcore.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
