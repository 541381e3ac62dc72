package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// lexicalIndex implements driven.LexicalIndex over the chunks_fts FTS5 table.
// Ranking is FTS5's built-in bm25; scores are returned as abs(rank).
type lexicalIndex struct {
	store *Store
}

var _ driven.LexicalIndex = (*lexicalIndex)(nil)

// ftsReplacer drops characters that break FTS5 query parsing.
// Apostrophes are removed outright so contractions stay one word.
var ftsReplacer = strings.NewReplacer(
	`"`, " ",
	"'", "",
	`\`, " ",
	"/", " ",
	"(", " ",
	")", " ",
)

// SanitizeQuery strips FTS5 syntax characters from user text and collapses
// whitespace. Boolean keywords and trailing * survive.
func SanitizeQuery(text string) string {
	return strings.Join(strings.Fields(ftsReplacer.Replace(text)), " ")
}

// exactPhrase quotes the whole query as one FTS5 phrase.
func exactPhrase(query string) string {
	return `"` + strings.ReplaceAll(query, `"`, `""`) + `"`
}

// BuildQuery turns a free-form query and options into an FTS5 MATCH string.
func BuildQuery(query string, opts domain.LexicalOptions) string {
	var fts string
	switch {
	case opts.ExactMatch:
		fts = exactPhrase(query)
	case opts.EscapeSpecialChars:
		fts = SanitizeQuery(query)
	default:
		fts = query
	}

	if strings.TrimSpace(fts) == "" {
		return fts
	}
	for _, term := range opts.ExcludeTerms {
		if opts.EscapeSpecialChars {
			term = SanitizeQuery(term)
		}
		if term == "" {
			continue
		}
		fts += " NOT " + term
	}
	return fts
}

// BuildKeywordQuery builds (r1 AND r2) AND (o1 OR o2) from sanitized terms.
// Returns "" when there is nothing to match.
func BuildKeywordQuery(required, optional []string) string {
	var parts []string
	if group := joinTerms(required, " AND "); group != "" {
		parts = append(parts, "("+group+")")
	}
	if group := joinTerms(optional, " OR "); group != "" {
		parts = append(parts, "("+group+")")
	}
	return strings.Join(parts, " AND ")
}

func joinTerms(terms []string, sep string) string {
	clean := make([]string, 0, len(terms))
	for _, t := range terms {
		if s := SanitizeQuery(t); s != "" {
			clean = append(clean, s)
		}
	}
	return strings.Join(clean, sep)
}

// IndexChunk adds or replaces one chunk.
func (l *lexicalIndex) IndexChunk(ctx context.Context, entry domain.LexicalEntry) error {
	return l.IndexChunksBatch(ctx, []domain.LexicalEntry{entry})
}

// IndexChunksBatch adds or replaces chunks. FTS5 has no unique key on
// chunk_id so replacement is delete then insert.
func (l *lexicalIndex) IndexChunksBatch(ctx context.Context, entries []domain.LexicalEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := l.store.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	del, err := tx.PrepareContext(ctx, "DELETE FROM chunks_fts WHERE chunk_id = ?")
	if err != nil {
		return storageErr("preparing statement", err)
	}
	defer del.Close()

	ins, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks_fts (chunk_id, content, metadata) VALUES (?, ?, ?)")
	if err != nil {
		return storageErr("preparing statement", err)
	}
	defer ins.Close()

	for _, e := range entries {
		metadataJSON, err := marshalMetadata(e.Metadata)
		if err != nil {
			return err
		}
		if _, err := del.ExecContext(ctx, e.ChunkID); err != nil {
			return storageErr("replacing lexical entry", err)
		}
		if _, err := ins.ExecContext(ctx, e.ChunkID, e.Content, metadataJSON); err != nil {
			return storageErr("indexing chunk", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("committing transaction", err)
	}
	return nil
}

// Search runs a free-form query.
func (l *lexicalIndex) Search(
	ctx context.Context,
	query string,
	opts domain.LexicalOptions,
) ([]domain.LexicalHit, error) {
	fts := BuildQuery(query, opts)
	if strings.TrimSpace(fts) == "" {
		return nil, nil
	}
	return l.match(ctx, fts, opts.TopK)
}

// SearchWithKeywords runs a structured query. Terms are sanitized here so
// the assembled query is passed through unescaped.
func (l *lexicalIndex) SearchWithKeywords(
	ctx context.Context,
	required, optional, exclude []string,
	topK int,
) ([]domain.LexicalHit, error) {
	query := BuildKeywordQuery(required, optional)
	if query == "" {
		return nil, nil
	}

	excluded := make([]string, 0, len(exclude))
	for _, t := range exclude {
		excluded = append(excluded, SanitizeQuery(t))
	}

	return l.Search(ctx, query, domain.LexicalOptions{
		TopK:         topK,
		ExcludeTerms: excluded,
	})
}

// match executes an FTS5 MATCH. Any parse failure is an invalid query.
func (l *lexicalIndex) match(ctx context.Context, fts string, topK int) ([]domain.LexicalHit, error) {
	if topK <= 0 {
		topK = 10
	}

	rows, err := l.store.db.QueryContext(ctx, `
		SELECT chunk_id, rank
		FROM chunks_fts
		WHERE chunks_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, fts, topK)
	if err != nil {
		return nil, queryErr(ctx, fts, err)
	}
	defer rows.Close()

	var hits []domain.LexicalHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var hit domain.LexicalHit
		var rank float64
		if err := rows.Scan(&hit.ChunkID, &rank); err != nil {
			return nil, storageErr("scanning lexical hit", err)
		}
		hit.Score = math.Abs(rank)
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, queryErr(ctx, fts, err)
	}

	return hits, nil
}

// queryErr classifies a MATCH failure.
func queryErr(ctx context.Context, fts string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %q: %v", domain.ErrInvalidQuery, fts, err)
}

// Highlight returns content with matched spans wrapped in tags. The query
// is built exactly as Search builds it. Any query error is reported as no
// match.
func (l *lexicalIndex) Highlight(
	ctx context.Context,
	chunkID, query string,
	opts domain.LexicalOptions,
	startTag, endTag string,
) (string, bool, error) {
	fts := BuildQuery(query, opts)
	if strings.TrimSpace(fts) == "" {
		return "", false, nil
	}

	var out string
	err := l.store.db.QueryRowContext(ctx, `
		SELECT highlight(chunks_fts, 1, ?, ?)
		FROM chunks_fts
		WHERE chunk_id = ? AND chunks_fts MATCH ?
	`, startTag, endTag, chunkID, fts).Scan(&out)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || ctx.Err() == nil {
			return "", false, nil
		}
		return "", false, ctx.Err()
	}
	return out, true, nil
}

// DeleteChunk removes one chunk.
func (l *lexicalIndex) DeleteChunk(ctx context.Context, chunkID string) error {
	return l.DeleteChunksBatch(ctx, []string{chunkID})
}

// DeleteChunksBatch removes chunks immediately.
func (l *lexicalIndex) DeleteChunksBatch(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	_, err := l.store.db.ExecContext(ctx,
		"DELETE FROM chunks_fts WHERE chunk_id IN ("+placeholders(len(chunkIDs))+")",
		stringArgs(chunkIDs)...)
	if err != nil {
		return storageErr("deleting lexical entries", err)
	}
	return nil
}

// Count returns the number of indexed chunks.
func (l *lexicalIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks_fts").Scan(&n); err != nil {
		return 0, storageErr("counting lexical entries", err)
	}
	return n, nil
}

// RebuildIndex repopulates the index from the chunks table.
func (l *lexicalIndex) RebuildIndex(ctx context.Context) error {
	tx, err := l.store.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks_fts"); err != nil {
		return storageErr("clearing lexical index", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chunks_fts (chunk_id, content, metadata)
		SELECT id, content, metadata FROM chunks
	`); err != nil {
		return storageErr("repopulating lexical index", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("committing transaction", err)
	}
	return nil
}
