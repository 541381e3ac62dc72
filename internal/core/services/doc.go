// Package services implements the driving port interfaces.
//
// The Indexer writes a document to the canonical store and then to the
// similarity index, the lexical index and the entity graph. The Searcher,
// KeywordService and GraphService read those indexes back and enrich hits
// from the canonical store. Services depend only on ports; adapters are
// wired in by the composition root.
package services
