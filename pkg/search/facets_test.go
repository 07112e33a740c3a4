package search

import (
	"context"
	"reflect"
	"testing"

	"github.com/ikbp/dave/backend/pkg/store"
)

type facetStore struct {
	store.DocumentStorage

	result store.QueryResult
	lastQ  store.DocumentQuery
}

func (m *facetStore) QueryDocuments(_ context.Context, q store.DocumentQuery) (store.QueryResult, error) {
	m.lastQ = q
	return m.result, nil
}

func TestQueryDocumentsGroupsFacetsByType(t *testing.T) {
	st := &facetStore{result: store.QueryResult{
		Documents: []store.DocumentSummary{{ID: "d1", Name: "Sentenza 1"}},
		Total:     7,
		AnnotationFacets: []store.Facet{
			{Key: "persona", Value: "Mario Rossi", Display: "M**** R****", Count: 5},
			{Key: "giudice", Value: "Anna Bianchi", Display: "A**** B****", Count: 4},
			{Key: "persona", Value: "Luca Verdi", Display: "L**** V****", Count: 2},
		},
		MetadataFacets: []store.Facet{{Key: "anno", Value: "2021", Display: "2021", Count: 3}},
	}}
	svc := NewService(st, &mockEmbedder{}, WithTokenCounter(wordCounter))

	q := store.DocumentQuery{Text: "ricorso", Limit: 10}
	res, err := svc.QueryDocuments(context.Background(), q)
	if err != nil {
		t.Fatalf("QueryDocuments: %v", err)
	}
	if !reflect.DeepEqual(st.lastQ, q) {
		t.Fatalf("query not passed through: %+v", st.lastQ)
	}
	if res.Total != 7 || len(res.Documents) != 1 {
		t.Fatalf("unexpected page: total %d, %d documents", res.Total, len(res.Documents))
	}

	if len(res.AnnotationFacets) != 2 {
		t.Fatalf("expected 2 facet groups, got %d", len(res.AnnotationFacets))
	}
	persona := res.AnnotationFacets[0]
	if persona.Type != "persona" || len(persona.Values) != 2 {
		t.Fatalf("unexpected first group: %+v", persona)
	}
	if persona.Values[0].Display != "M**** R****" || persona.Values[1].Display != "L**** V****" {
		t.Fatalf("group lost store ordering: %+v", persona.Values)
	}
	if res.AnnotationFacets[1].Type != "giudice" {
		t.Fatalf("unexpected second group: %+v", res.AnnotationFacets[1])
	}
	if len(res.MetadataFacets) != 1 || res.MetadataFacets[0].Key != "anno" {
		t.Fatalf("metadata facets not passed through: %+v", res.MetadataFacets)
	}
}

func TestGroupFacetsEmpty(t *testing.T) {
	if got := groupFacets(nil); got != nil {
		t.Fatalf("expected nil groups, got %+v", got)
	}
}
