package pgx

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/ikbp/dave/backend/internal/util"
	"github.com/ikbp/dave/backend/pkg/logger"
	"github.com/ikbp/dave/backend/pkg/store"
)

// ReplaceChunks swaps the indexed chunks of a document atomically.
func (s *Storage) ReplaceChunks(ctx context.Context, docID string, chunks []store.Chunk) error {
	logger.Debug("[Store][ReplaceChunks] Re-indexing document", "id", docID, "chunks", len(chunks))

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE doc_id = $1`, docID); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}

	for _, chunk := range chunks {
		_, err := tx.Exec(ctx, `
			INSERT INTO chunks (doc_id, idx, text, text_anonymized, embedding)
			VALUES ($1, $2, $3, $4, $5)`,
			docID, chunk.Index,
			util.SanitizePostgresText(chunk.Text),
			util.SanitizePostgresText(chunk.TextAnonymized),
			pgvector.NewVector(chunk.Embedding),
		)
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", chunk.Index, err)
		}
	}

	return tx.Commit(ctx)
}

// SearchChunksByVector returns the k nearest chunks by cosine distance,
// optionally restricted to the given documents. Score is cosine similarity.
func (s *Storage) SearchChunksByVector(ctx context.Context, embedding []float32, k int, docIDs []string) ([]store.ChunkHit, error) {
	if k <= 0 {
		k = 10
	}

	sql := `
		SELECT doc_id, idx, text, text_anonymized, 1 - (embedding <=> $1) AS score
		FROM chunks
		WHERE embedding IS NOT NULL`
	args := []any{pgvector.NewVector(embedding)}
	if len(docIDs) > 0 {
		sql += fmt.Sprintf(" AND doc_id = ANY($%d)", len(args)+1)
		args = append(args, docIDs)
	}
	sql += fmt.Sprintf(" ORDER BY embedding <=> $1 LIMIT $%d", len(args)+1)
	args = append(args, k)

	return s.queryHits(ctx, sql, args)
}

// SearchChunksByText runs a fulltext query over chunk texts, ranked by
// ts_rank.
func (s *Storage) SearchChunksByText(ctx context.Context, query string, limit int, docIDs []string) ([]store.ChunkHit, error) {
	if limit <= 0 {
		limit = 10
	}

	sql := `
		SELECT doc_id, idx, text, text_anonymized,
			ts_rank(to_tsvector('simple', text), plainto_tsquery('simple', $1)) AS score
		FROM chunks
		WHERE to_tsvector('simple', text) @@ plainto_tsquery('simple', $1)`
	args := []any{query}
	if len(docIDs) > 0 {
		sql += fmt.Sprintf(" AND doc_id = ANY($%d)", len(args)+1)
		args = append(args, docIDs)
	}
	sql += fmt.Sprintf(" ORDER BY score DESC, doc_id, idx LIMIT $%d", len(args)+1)
	args = append(args, limit)

	return s.queryHits(ctx, sql, args)
}

func (s *Storage) queryHits(ctx context.Context, sql string, args []any) ([]store.ChunkHit, error) {
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.ChunkHit
	for rows.Next() {
		var hit store.ChunkHit
		if err := rows.Scan(&hit.DocID, &hit.Index, &hit.Text, &hit.TextAnonymized, &hit.Score); err != nil {
			return nil, err
		}
		out = append(out, hit)
	}
	return out, rows.Err()
}
