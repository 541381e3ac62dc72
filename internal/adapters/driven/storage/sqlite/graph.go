package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// entityStore implements driven.EntityStore over graph_nodes and chunk_edges.
type entityStore struct {
	store *Store
}

var _ driven.EntityStore = (*entityStore)(nil)

const nodeColumns = "id, name, display_name, category, frequency"

// AddEntities upserts a node per entity and replaces the (chunk, node) edge.
// A repeated mention bumps frequency and keeps the longest display name.
func (s *entityStore) AddEntities(
	ctx context.Context,
	chunkID string,
	entities []domain.Entity,
	source string,
) (int, error) {
	if len(entities) == 0 {
		return 0, nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageErr("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	upsert, err := tx.PrepareContext(ctx, `
		INSERT INTO graph_nodes (name, display_name, category, frequency)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(name, category) DO UPDATE SET
			frequency = frequency + 1,
			display_name = CASE
				WHEN length(excluded.display_name) > length(display_name)
				THEN excluded.display_name
				ELSE display_name
			END
		RETURNING id
	`)
	if err != nil {
		return 0, storageErr("preparing statement", err)
	}
	defer upsert.Close()

	edge, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO chunk_edges (chunk_id, node_id, weight, source)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, storageErr("preparing statement", err)
	}
	defer edge.Close()

	added := 0
	for _, e := range entities {
		name := domain.NormalizeEntityName(e.Text)
		if name == "" {
			continue
		}

		var nodeID int64
		if err := upsert.QueryRowContext(ctx, name, strings.TrimSpace(e.Text), e.Label).Scan(&nodeID); err != nil {
			return 0, storageErr("upserting entity", err)
		}
		if _, err := edge.ExecContext(ctx, chunkID, nodeID, e.Score, source); err != nil {
			return 0, storageErr("saving edge", err)
		}
		added++
	}

	if err := tx.Commit(); err != nil {
		return 0, storageErr("committing transaction", err)
	}
	return added, nil
}

// QueryEntities lists nodes by descending frequency.
func (s *entityStore) QueryEntities(ctx context.Context, q domain.EntityQuery) ([]domain.EntityNode, error) {
	query := "SELECT " + nodeColumns + " FROM graph_nodes WHERE 1=1"
	var args []any

	if q.Category != "" {
		query += " AND category = ?"
		args = append(args, q.Category)
	}
	if q.MinFrequency > 0 {
		query += " AND frequency >= ?"
		args = append(args, q.MinFrequency)
	}
	query += " ORDER BY frequency DESC, id"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("querying entities", err)
	}
	defer rows.Close()

	return scanNodes(rows)
}

// GetEntityByID retrieves a node by id.
func (s *entityStore) GetEntityByID(ctx context.Context, id int64) (*domain.EntityNode, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT "+nodeColumns+" FROM graph_nodes WHERE id = ?", id)
	return scanNode(row)
}

// GetEntityByName retrieves a node by normalized name. With no category
// the most frequent match wins.
func (s *entityStore) GetEntityByName(ctx context.Context, name, category string) (*domain.EntityNode, error) {
	name = domain.NormalizeEntityName(name)

	var row *sql.Row
	if category != "" {
		row = s.store.db.QueryRowContext(ctx,
			"SELECT "+nodeColumns+" FROM graph_nodes WHERE name = ? AND category = ?", name, category)
	} else {
		row = s.store.db.QueryRowContext(ctx,
			"SELECT "+nodeColumns+" FROM graph_nodes WHERE name = ? ORDER BY frequency DESC LIMIT 1", name)
	}
	return scanNode(row)
}

// GetEntityChunks returns chunk ids mentioning the entity.
func (s *entityStore) GetEntityChunks(ctx context.Context, name, category string) ([]string, error) {
	query := `
		SELECT DISTINCT e.chunk_id
		FROM chunk_edges e
		JOIN graph_nodes n ON e.node_id = n.id
		WHERE n.name = ?`
	args := []any{domain.NormalizeEntityName(name)}
	if category != "" {
		query += " AND n.category = ?"
		args = append(args, category)
	}
	query += " ORDER BY e.chunk_id"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("querying entity chunks", err)
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
		return nil, storageErr("iterating entity chunks", err)
	}
	return ids, nil
}

// GetChunkEntities returns the entities a chunk mentions, strongest first.
func (s *entityStore) GetChunkEntities(ctx context.Context, chunkID string) ([]domain.ChunkEntity, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT n.id, n.name, n.display_name, n.category, n.frequency, e.weight, e.source
		FROM chunk_edges e
		JOIN graph_nodes n ON e.node_id = n.id
		WHERE e.chunk_id = ?
		ORDER BY e.weight DESC
	`, chunkID)
	if err != nil {
		return nil, storageErr("querying chunk entities", err)
	}
	defer rows.Close()

	var out []domain.ChunkEntity //nolint:prealloc // size unknown from query
	for rows.Next() {
		var ce domain.ChunkEntity
		if err := rows.Scan(&ce.Node.ID, &ce.Node.Name, &ce.Node.DisplayName, &ce.Node.Category,
			&ce.Node.Frequency, &ce.Weight, &ce.Source); err != nil {
			return nil, storageErr("scanning chunk entity", err)
		}
		out = append(out, ce)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating chunk entities", err)
	}
	return out, nil
}

// GetRelatedEntities ranks nodes by the number of distinct chunks they
// share with nodeID.
func (s *entityStore) GetRelatedEntities(
	ctx context.Context,
	nodeID int64,
	limit int,
) ([]domain.RelatedEntity, error) {
	query := `
		SELECT n.id, n.name, n.display_name, n.category, n.frequency,
			COUNT(DISTINCT e2.chunk_id) AS co_occurrence_count
		FROM chunk_edges e1
		JOIN chunk_edges e2 ON e1.chunk_id = e2.chunk_id
		JOIN graph_nodes n ON e2.node_id = n.id
		WHERE e1.node_id = ? AND e2.node_id != ?
		GROUP BY n.id
		ORDER BY co_occurrence_count DESC, n.frequency DESC`
	args := []any{nodeID, nodeID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("querying related entities", err)
	}
	defer rows.Close()

	var out []domain.RelatedEntity //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.RelatedEntity
		if err := rows.Scan(&r.Entity.ID, &r.Entity.Name, &r.Entity.DisplayName, &r.Entity.Category,
			&r.Entity.Frequency, &r.CoOccurrenceCount); err != nil {
			return nil, storageErr("scanning related entity", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating related entities", err)
	}
	return out, nil
}

// GetStats returns totals, the category histogram and the topN nodes.
func (s *entityStore) GetStats(ctx context.Context, topN int) (*domain.GraphStats, error) {
	stats := &domain.GraphStats{ByCategory: map[string]int{}}

	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM graph_nodes").
		Scan(&stats.TotalEntities); err != nil {
		return nil, storageErr("counting entities", err)
	}
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunk_edges").
		Scan(&stats.TotalEdges); err != nil {
		return nil, storageErr("counting edges", err)
	}

	rows, err := s.store.db.QueryContext(ctx,
		"SELECT category, COUNT(*) FROM graph_nodes GROUP BY category")
	if err != nil {
		return nil, storageErr("querying categories", err)
	}
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			rows.Close()
			return nil, storageErr("scanning category", err)
		}
		stats.ByCategory[category] = n
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, storageErr("iterating categories", err)
	}
	rows.Close()

	if topN <= 0 {
		topN = 10
	}
	top, err := s.QueryEntities(ctx, domain.EntityQuery{Limit: topN})
	if err != nil {
		return nil, err
	}
	stats.TopEntities = top

	return stats, nil
}

// DeleteChunkEntities drops a chunk's edges and prunes orphaned nodes.
func (s *entityStore) DeleteChunkEntities(ctx context.Context, chunkID string) (int, error) {
	return s.DeleteChunksEntities(ctx, []string{chunkID})
}

// DeleteChunksEntities drops edges for chunkIDs, then removes only those
// previously linked nodes that no longer have any edge. The recheck walks
// idx_edges_node per candidate instead of scanning every node.
func (s *entityStore) DeleteChunksEntities(ctx context.Context, chunkIDs []string) (int, error) {
	if len(chunkIDs) == 0 {
		return 0, nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageErr("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	in := placeholders(len(chunkIDs))
	args := stringArgs(chunkIDs)

	if _, err := tx.ExecContext(ctx, `
		CREATE TEMP TABLE IF NOT EXISTS prune_candidates (node_id INTEGER PRIMARY KEY)
	`); err != nil {
		return 0, storageErr("preparing prune", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM temp.prune_candidates"); err != nil {
		return 0, storageErr("preparing prune", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO temp.prune_candidates (node_id) SELECT node_id FROM chunk_edges WHERE chunk_id IN ("+in+")",
		args...); err != nil {
		return 0, storageErr("collecting prune candidates", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM chunk_edges WHERE chunk_id IN ("+in+")", args...)
	if err != nil {
		return 0, storageErr("deleting edges", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("deleting edges", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM graph_nodes
		WHERE id IN (SELECT node_id FROM temp.prune_candidates)
		AND NOT EXISTS (SELECT 1 FROM chunk_edges WHERE chunk_edges.node_id = graph_nodes.id)
	`); err != nil {
		return 0, storageErr("pruning entities", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM temp.prune_candidates"); err != nil {
		return 0, storageErr("clearing prune candidates", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, storageErr("committing transaction", err)
	}
	return int(removed), nil
}

// scanNode scans a single node row.
func scanNode(row *sql.Row) (*domain.EntityNode, error) {
	var n domain.EntityNode
	if err := row.Scan(&n.ID, &n.Name, &n.DisplayName, &n.Category, &n.Frequency); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("scanning entity", err)
	}
	return &n, nil
}

// scanNodes scans multiple node rows.
func scanNodes(rows *sql.Rows) ([]domain.EntityNode, error) {
	var nodes []domain.EntityNode //nolint:prealloc // size unknown from query
	for rows.Next() {
		var n domain.EntityNode
		if err := rows.Scan(&n.ID, &n.Name, &n.DisplayName, &n.Category, &n.Frequency); err != nil {
			return nil, storageErr("scanning entity", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating entities", err)
	}
	return nodes, nil
}
