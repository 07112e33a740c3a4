package pgx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/ikbp/dave/backend/internal/util"
	"github.com/ikbp/dave/backend/pkg/annotation"
	"github.com/ikbp/dave/backend/pkg/cluster"
	"github.com/ikbp/dave/backend/pkg/document"
	"github.com/ikbp/dave/backend/pkg/logger"
	"github.com/ikbp/dave/backend/pkg/store"
)

const annotationBatchSize = 1000

// SaveDocument upserts a full snapshot in one transaction: the document row,
// its annotation sets, their annotations, and the cluster registry. Clusters
// are stored relationally, so they are stripped from the features column to
// avoid a second copy.
func (s *Storage) SaveDocument(ctx context.Context, doc document.Document) error {
	logger.Debug("[Store][SaveDocument] Saving snapshot", "id", doc.ID, "sets", len(doc.AnnotationSets))

	features := doc.Features
	features.Clusters = nil
	featuresJSON, err := json.Marshal(features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO documents (id, name, text, preview, offset_type, features)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			text = EXCLUDED.text,
			preview = EXCLUDED.preview,
			offset_type = EXCLUDED.offset_type,
			features = EXCLUDED.features,
			updated_at = now()`,
		doc.ID, doc.Name, util.SanitizePostgresText(doc.Text), doc.Preview, doc.OffsetType, featuresJSON,
	)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}

	// Replacing the sets cascades over annotations; clusters are keyed by
	// document and cleared explicitly.
	if _, err := tx.Exec(ctx, `DELETE FROM annotation_sets WHERE doc_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("clear annotation sets: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM clusters WHERE doc_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("clear clusters: %w", err)
	}

	for name, set := range doc.AnnotationSets {
		_, err := tx.Exec(ctx, `
			INSERT INTO annotation_sets (doc_id, name, next_annid)
			VALUES ($1, $2, $3)`,
			doc.ID, name, set.NextAnnID,
		)
		if err != nil {
			return fmt.Errorf("insert set %s: %w", name, err)
		}
		if err := s.insertAnnotations(ctx, tx, doc.ID, name, set.Annotations); err != nil {
			return err
		}
	}

	for setName, clusters := range doc.Features.Clusters {
		for _, c := range clusters {
			mentionsJSON, err := json.Marshal(c.Mentions)
			if err != nil {
				return fmt.Errorf("marshal mentions: %w", err)
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO clusters (doc_id, set_name, cluster_id, title, type, mentions)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				doc.ID, setName, c.ID, c.Title, c.Type, mentionsJSON,
			)
			if err != nil {
				return fmt.Errorf("insert cluster %d: %w", c.ID, err)
			}
		}
	}

	return tx.Commit(ctx)
}

func (s *Storage) insertAnnotations(ctx context.Context, tx pgxv5.Tx, docID, setName string, anns []annotation.Annotation) error {
	return store.ChunkRange(len(anns), annotationBatchSize, func(start, end int) error {
		rows := make([][]any, 0, end-start)
		for _, ann := range anns[start:end] {
			featuresJSON, err := json.Marshal(ann.Features)
			if err != nil {
				return fmt.Errorf("marshal annotation features: %w", err)
			}
			rows = append(rows, []any{docID, setName, ann.ID, ann.Start, ann.End, ann.Type, featuresJSON})
		}
		_, err := tx.CopyFrom(ctx,
			pgxv5.Identifier{"annotations"},
			[]string{"doc_id", "set_name", "ann_id", "start_offset", "end_offset", "type", "features"},
			pgxv5.CopyFromRows(rows),
		)
		return err
	})
}

// GetDocument loads a full snapshot, reassembling annotation sets and the
// cluster registry.
func (s *Storage) GetDocument(ctx context.Context, id string) (document.Document, error) {
	var (
		doc          document.Document
		featuresJSON []byte
	)
	err := s.conn.QueryRow(ctx, `
		SELECT id, name, text, preview, offset_type, features
		FROM documents WHERE id = $1`, id,
	).Scan(&doc.ID, &doc.Name, &doc.Text, &doc.Preview, &doc.OffsetType, &featuresJSON)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return document.Document{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	if err != nil {
		return document.Document{}, err
	}
	if err := json.Unmarshal(featuresJSON, &doc.Features); err != nil {
		return document.Document{}, fmt.Errorf("unmarshal features: %w", err)
	}

	doc.AnnotationSets = map[string]*annotation.Set{}
	rows, err := s.conn.Query(ctx, `
		SELECT name, next_annid FROM annotation_sets WHERE doc_id = $1`, id)
	if err != nil {
		return document.Document{}, err
	}
	for rows.Next() {
		set := &annotation.Set{}
		if err := rows.Scan(&set.Name, &set.NextAnnID); err != nil {
			rows.Close()
			return document.Document{}, err
		}
		doc.AnnotationSets[set.Name] = set
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return document.Document{}, err
	}

	rows, err = s.conn.Query(ctx, `
		SELECT set_name, ann_id, start_offset, end_offset, type, features
		FROM annotations WHERE doc_id = $1
		ORDER BY set_name, start_offset, ann_id`, id)
	if err != nil {
		return document.Document{}, err
	}
	for rows.Next() {
		var (
			setName string
			ann     annotation.Annotation
			annJSON []byte
		)
		if err := rows.Scan(&setName, &ann.ID, &ann.Start, &ann.End, &ann.Type, &annJSON); err != nil {
			rows.Close()
			return document.Document{}, err
		}
		if err := json.Unmarshal(annJSON, &ann.Features); err != nil {
			rows.Close()
			return document.Document{}, fmt.Errorf("unmarshal annotation features: %w", err)
		}
		if set, ok := doc.AnnotationSets[setName]; ok {
			set.Annotations = append(set.Annotations, ann)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return document.Document{}, err
	}

	doc.Features.Clusters = map[string][]cluster.Cluster{}
	rows, err = s.conn.Query(ctx, `
		SELECT set_name, cluster_id, title, type, mentions
		FROM clusters WHERE doc_id = $1
		ORDER BY set_name, cluster_id`, id)
	if err != nil {
		return document.Document{}, err
	}
	for rows.Next() {
		var (
			setName      string
			c            cluster.Cluster
			mentionsJSON []byte
		)
		if err := rows.Scan(&setName, &c.ID, &c.Title, &c.Type, &mentionsJSON); err != nil {
			rows.Close()
			return document.Document{}, err
		}
		if err := json.Unmarshal(mentionsJSON, &c.Mentions); err != nil {
			rows.Close()
			return document.Document{}, fmt.Errorf("unmarshal mentions: %w", err)
		}
		doc.Features.Clusters[setName] = append(doc.Features.Clusters[setName], c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return document.Document{}, err
	}

	return doc, nil
}

// DeleteDocument removes a document and everything hanging off it.
func (s *Storage) DeleteDocument(ctx context.Context, id string) error {
	tag, err := s.conn.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return nil
}

// ListDocuments pages over document summaries ordered by name.
func (s *Storage) ListDocuments(ctx context.Context, offset, limit int) ([]store.DocumentSummary, int, error) {
	if limit <= 0 {
		limit = 20
	}

	var total int
	if err := s.conn.QueryRow(ctx, `SELECT count(*) FROM documents`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.conn.Query(ctx, `
		SELECT id, name, preview FROM documents
		ORDER BY name, id OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []store.DocumentSummary
	for rows.Next() {
		var d store.DocumentSummary
		if err := rows.Scan(&d.ID, &d.Name, &d.Preview); err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

// GetDocumentTexts fetches the raw text of the given documents.
func (s *Storage) GetDocumentTexts(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	rows, err := s.conn.Query(ctx, `SELECT id, text FROM documents WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string, len(ids))
	for rows.Next() {
		var id, text string
		if err := rows.Scan(&id, &text); err != nil {
			return nil, err
		}
		out[id] = text
	}
	return out, rows.Err()
}
