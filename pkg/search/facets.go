package search

import (
	"context"

	"github.com/ikbp/dave/backend/pkg/store"
)

// FacetGroup collects the facet values of one entity type.
type FacetGroup struct {
	Type   string        `json:"type"`
	Values []store.Facet `json:"values"`
}

// DocumentResult is a faceted document search outcome with annotation
// facets grouped per entity type.
type DocumentResult struct {
	Documents        []store.DocumentSummary `json:"documents"`
	Total            int                     `json:"total"`
	AnnotationFacets []FacetGroup            `json:"annotation_facets"`
	MetadataFacets   []store.Facet           `json:"metadata_facets"`
}

// QueryDocuments runs a faceted document search. The store returns a flat
// facet list ordered by document count; groups keep that order, both among
// types (by each type's best value) and within a type.
func (s *Service) QueryDocuments(ctx context.Context, q store.DocumentQuery) (DocumentResult, error) {
	res, err := s.store.QueryDocuments(ctx, q)
	if err != nil {
		return DocumentResult{}, err
	}
	return DocumentResult{
		Documents:        res.Documents,
		Total:            res.Total,
		AnnotationFacets: groupFacets(res.AnnotationFacets),
		MetadataFacets:   res.MetadataFacets,
	}, nil
}

func groupFacets(facets []store.Facet) []FacetGroup {
	var groups []FacetGroup
	index := map[string]int{}
	for _, f := range facets {
		i, ok := index[f.Key]
		if !ok {
			i = len(groups)
			index[f.Key] = i
			groups = append(groups, FacetGroup{Type: f.Key})
		}
		groups[i].Values = append(groups[i].Values, f)
	}
	return groups
}
