package sqlite

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// vectorStore implements driven.VectorStore over chunk_vectors.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// SaveVectors upserts raw vectors. A replaced row takes a new seq so
// load order matches the in-memory append order.
func (s *vectorStore) SaveVectors(ctx context.Context, vectors []driven.StoredVector) error {
	if len(vectors) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO chunk_vectors (chunk_id, vector) VALUES (?, ?)")
	if err != nil {
		return storageErr("preparing statement", err)
	}
	defer stmt.Close()

	for _, v := range vectors {
		if _, err := stmt.ExecContext(ctx, v.ChunkID, float32SliceToBytes(v.Vector)); err != nil {
			return storageErr("saving vector", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("committing transaction", err)
	}
	return nil
}

// DeleteVectors removes vectors by chunk id.
func (s *vectorStore) DeleteVectors(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM chunk_vectors WHERE chunk_id IN ("+placeholders(len(chunkIDs))+")",
		stringArgs(chunkIDs)...)
	if err != nil {
		return storageErr("deleting vectors", err)
	}
	return nil
}

// LoadVectors returns every stored vector in insertion order.
func (s *vectorStore) LoadVectors(ctx context.Context) ([]driven.StoredVector, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT chunk_id, vector FROM chunk_vectors ORDER BY seq")
	if err != nil {
		return nil, storageErr("querying vectors", err)
	}
	defer rows.Close()

	var vectors []driven.StoredVector //nolint:prealloc // size unknown from query
	for rows.Next() {
		var v driven.StoredVector
		var blob []byte
		if err := rows.Scan(&v.ChunkID, &blob); err != nil {
			return nil, storageErr("scanning vector", err)
		}
		v.Vector = bytesToFloat32Slice(blob)
		vectors = append(vectors, v)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating vectors", err)
	}

	return vectors, nil
}
