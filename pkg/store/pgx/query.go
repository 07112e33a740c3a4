package pgx

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ikbp/dave/backend/pkg/anonymize"
	"github.com/ikbp/dave/backend/pkg/store"
)

const facetLimit = 200

// QueryDocuments runs a faceted document search: fulltext over the document
// body plus annotation and metadata filters, with paginated summaries and
// aggregated facet counts over the matching set.
func (s *Storage) QueryDocuments(ctx context.Context, q store.DocumentQuery) (store.QueryResult, error) {
	if q.Limit <= 0 {
		q.Limit = 20
	}

	where, args := buildDocumentWhere(q)

	var result store.QueryResult
	if err := s.conn.QueryRow(ctx,
		`SELECT count(*) FROM documents d`+where, args...,
	).Scan(&result.Total); err != nil {
		return store.QueryResult{}, err
	}

	pageSQL := fmt.Sprintf(
		`SELECT d.id, d.name, d.preview FROM documents d%s ORDER BY d.name, d.id OFFSET $%d LIMIT $%d`,
		where, len(args)+1, len(args)+2,
	)
	rows, err := s.conn.Query(ctx, pageSQL, append(append([]any{}, args...), q.Offset, q.Limit)...)
	if err != nil {
		return store.QueryResult{}, err
	}
	for rows.Next() {
		var d store.DocumentSummary
		if err := rows.Scan(&d.ID, &d.Name, &d.Preview); err != nil {
			rows.Close()
			return store.QueryResult{}, err
		}
		result.Documents = append(result.Documents, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return store.QueryResult{}, err
	}

	result.AnnotationFacets, err = s.annotationFacets(ctx, where, args)
	if err != nil {
		return store.QueryResult{}, err
	}
	result.MetadataFacets, err = s.metadataFacets(ctx, where, args)
	if err != nil {
		return store.QueryResult{}, err
	}
	return result, nil
}

// buildDocumentWhere renders the WHERE clause for a query over documents d.
func buildDocumentWhere(q store.DocumentQuery) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	next := func() int { return len(args) + 1 }

	if strings.TrimSpace(q.Text) != "" {
		clauses = append(clauses, fmt.Sprintf(
			"to_tsvector('simple', d.text) @@ plainto_tsquery('simple', $%d)", next()))
		args = append(args, q.Text)
	}
	for _, f := range q.Filters {
		switch f.Kind {
		case "annotation":
			clauses = append(clauses, fmt.Sprintf(
				"EXISTS (SELECT 1 FROM annotations a WHERE a.doc_id = d.id AND a.type = $%d AND a.features->>'mention' = $%d)",
				next(), next()+1))
			args = append(args, f.Key, f.Value)
		case "metadata":
			clauses = append(clauses, fmt.Sprintf("d.features->>$%d = $%d", next(), next()+1))
			args = append(args, f.Key, f.Value)
		}
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// annotationFacets aggregates mention values per annotation type over the
// matching documents. Person mentions are masked in the display form.
func (s *Storage) annotationFacets(ctx context.Context, where string, args []any) ([]store.Facet, error) {
	sql := fmt.Sprintf(`
		SELECT a.type, a.features->>'mention' AS value, count(DISTINCT a.doc_id) AS docs
		FROM annotations a
		JOIN documents d ON d.id = a.doc_id%s
		%s a.features->>'mention' IS NOT NULL AND a.features->>'mention' <> ''
		GROUP BY 1, 2
		ORDER BY docs DESC, 1, 2
		LIMIT %d`,
		where, whereOrAnd(where), facetLimit,
	)
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Facet
	for rows.Next() {
		var f store.Facet
		if err := rows.Scan(&f.Key, &f.Value, &f.Count); err != nil {
			return nil, err
		}
		f.Display = anonymize.MentionText(f.Value, f.Key, false)
		out = append(out, f)
	}
	return out, rows.Err()
}

// metadataFacets aggregates scalar string metadata values over the matching
// documents' features.
func (s *Storage) metadataFacets(ctx context.Context, where string, args []any) ([]store.Facet, error) {
	rows, err := s.conn.Query(ctx, `SELECT d.features FROM documents d`+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var featureRows []map[string]any
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var features map[string]any
		if err := json.Unmarshal(raw, &features); err != nil {
			return nil, fmt.Errorf("unmarshal features: %w", err)
		}
		featureRows = append(featureRows, features)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return aggregateMetadataFacets(featureRows), nil
}

// aggregateMetadataFacets counts scalar string values per metadata key,
// skipping the reserved feature keys.
func aggregateMetadataFacets(featureRows []map[string]any) []store.Facet {
	type key struct{ k, v string }
	counts := map[key]int{}
	for _, features := range featureRows {
		for k, v := range features {
			if k == "clusters" || k == "anonymized" {
				continue
			}
			s, ok := v.(string)
			if !ok || s == "" {
				continue
			}
			counts[key{k, s}]++
		}
	}

	out := make([]store.Facet, 0, len(counts))
	for k, count := range counts {
		out = append(out, store.Facet{Key: k.k, Value: k.v, Display: k.v, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Key != out[j].Key {
			return out[i].Key < out[j].Key
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > facetLimit {
		out = out[:facetLimit]
	}
	return out
}

func whereOrAnd(where string) string {
	if where == "" {
		return "WHERE"
	}
	return "AND"
}
