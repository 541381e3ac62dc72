package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// Metadata keys added to every stored chunk.
const (
	metaDocumentID = "document_id"
	metaChunkIndex = "chunk_index"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// AddDocument persists a document and its chunks in one transaction.
func (s *documentStore) AddDocument(
	ctx context.Context,
	filename, content string,
	chunks []domain.TextChunk,
	metadata map[string]any,
) (string, error) {
	docID := uuid.New().String()
	now := time.Now().UTC()

	metadataJSON, err := marshalMetadata(metadata)
	if err != nil {
		return "", err
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return "", storageErr("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (id, filename, content, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, docID, filename, content, metadataJSON, now, now); err != nil {
		return "", storageErr("saving document", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, chunk_index, content, start_char, end_char, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", storageErr("preparing statement", err)
	}
	defer stmt.Close()

	for i, chunk := range chunks {
		chunkMeta := make(map[string]any, len(chunk.Metadata)+2)
		for k, v := range chunk.Metadata {
			chunkMeta[k] = v
		}
		chunkMeta[metaDocumentID] = docID
		chunkMeta[metaChunkIndex] = i

		chunkMetaJSON, err := marshalMetadata(chunkMeta)
		if err != nil {
			return "", err
		}

		if _, err := stmt.ExecContext(ctx, domain.ChunkID(docID, i), docID, i,
			chunk.Content, chunk.StartChar, chunk.EndChar, chunkMetaJSON); err != nil {
			return "", storageErr("saving chunk", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", storageErr("committing transaction", err)
	}
	return docID, nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, filename, content, metadata, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	return scanDocument(row)
}

// GetDocumentByFilename retrieves the most recent document with filename.
func (s *documentStore) GetDocumentByFilename(ctx context.Context, filename string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, filename, content, metadata, created_at, updated_at
		FROM documents WHERE filename = ?
		ORDER BY created_at DESC LIMIT 1
	`, filename)

	return scanDocument(row)
}

// ListDocuments returns all documents newest first with chunk counts.
// Content is omitted from listings.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT d.id, d.filename, d.metadata, d.created_at, d.updated_at, COUNT(c.id)
		FROM documents d
		LEFT JOIN chunks c ON c.document_id = d.id
		GROUP BY d.id
		ORDER BY d.created_at DESC, d.rowid DESC
	`)
	if err != nil {
		return nil, storageErr("querying documents", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		var doc domain.Document
		var metadataJSON string
		if err := rows.Scan(&doc.ID, &doc.Filename, &metadataJSON,
			&doc.CreatedAt, &doc.UpdatedAt, &doc.NumChunks); err != nil {
			return nil, storageErr("scanning document", err)
		}
		if doc.Metadata, err = unmarshalMetadata(metadataJSON); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating documents", err)
	}

	return docs, nil
}

// DeleteDocument removes a document; chunks cascade.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) (bool, error) {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return false, storageErr("deleting document", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("deleting document", err)
	}
	return n > 0, nil
}

// GetChunksByDocument retrieves all chunks for a document in order.
func (s *documentStore) GetChunksByDocument(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, content, start_char, end_char, metadata
		FROM chunks WHERE document_id = ?
		ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, storageErr("querying chunks", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating chunks", err)
	}

	return chunks, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *documentStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, chunk_index, content, start_char, end_char, metadata
		FROM chunks WHERE id = ?
	`, id)

	chunk, err := scanChunk(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return chunk, err
}

// GetAllChunkIDs returns every chunk id.
func (s *documentStore) GetAllChunkIDs(ctx context.Context) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT id FROM chunks ORDER BY document_id, chunk_index")
	if err != nil {
		return nil, storageErr("querying chunk ids", err)
	}
	defer rows.Close()

	var ids []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr("scanning chunk id", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating chunk ids", err)
	}

	return ids, nil
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var metadataJSON string

	if err := row.Scan(&doc.ID, &doc.Filename, &doc.Content, &metadataJSON,
		&doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("scanning document", err)
	}

	var err error
	if doc.Metadata, err = unmarshalMetadata(metadataJSON); err != nil {
		return nil, err
	}

	return &doc, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanChunk scans a chunk. sql.ErrNoRows is returned unwrapped.
func scanChunk(row rowScanner) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var metadataJSON string

	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Index, &chunk.Content,
		&chunk.StartChar, &chunk.EndChar, &metadataJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, storageErr("scanning chunk", err)
	}

	var err error
	if chunk.Metadata, err = unmarshalMetadata(metadataJSON); err != nil {
		return nil, err
	}

	return &chunk, nil
}
