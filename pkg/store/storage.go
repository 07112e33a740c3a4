// Package store defines the persistence interface for annotated documents
// and their retrieval index.
package store

import (
	"context"
	"errors"

	"github.com/ikbp/dave/backend/pkg/document"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("store: document not found")

// Chunk is one indexed slice of a document, carrying the raw text, its
// anonymized twin used for masked retrieval, and the embedding vector.
type Chunk struct {
	DocID          string
	Index          int
	Text           string
	TextAnonymized string
	Embedding      []float32
}

// ChunkHit is a chunk together with its retrieval score. Higher is better
// for both vector similarity and fulltext rank.
type ChunkHit struct {
	Chunk
	Score float64
}

// DocumentSummary is the listing view of a document, without its text and
// annotation payload.
type DocumentSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Preview string `json:"preview"`
}

// Filter restricts a document query. Kind is "annotation" (Key is the
// annotation type, Value the mention) or "metadata" (Key is the metadata
// field).
type Filter struct {
	Kind  string `json:"kind" validate:"required,oneof=annotation metadata"`
	Key   string `json:"key" validate:"required"`
	Value string `json:"value" validate:"required"`
}

// DocumentQuery is a faceted document search request.
type DocumentQuery struct {
	Text    string   `json:"text"`
	Filters []Filter `json:"filters" validate:"dive"`
	Offset  int      `json:"offset" validate:"gte=0"`
	Limit   int      `json:"limit" validate:"gte=0,lte=500"`
}

// Facet is one aggregated filter value with its document count. Display is
// the user-visible form, masked for person mentions.
type Facet struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Display string `json:"display"`
	Count   int    `json:"count"`
}

// QueryResult is the paginated outcome of a faceted document query.
type QueryResult struct {
	Documents        []DocumentSummary `json:"documents"`
	Total            int               `json:"total"`
	AnnotationFacets []Facet           `json:"annotation_facets"`
	MetadataFacets   []Facet           `json:"metadata_facets"`
}

// DocumentStorage persists document snapshots and serves the chunk index.
type DocumentStorage interface {
	SaveDocument(ctx context.Context, doc document.Document) error
	GetDocument(ctx context.Context, id string) (document.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context, offset, limit int) ([]DocumentSummary, int, error)
	QueryDocuments(ctx context.Context, q DocumentQuery) (QueryResult, error)
	GetDocumentTexts(ctx context.Context, ids []string) (map[string]string, error)

	ReplaceChunks(ctx context.Context, docID string, chunks []Chunk) error
	SearchChunksByVector(ctx context.Context, embedding []float32, k int, docIDs []string) ([]ChunkHit, error)
	SearchChunksByText(ctx context.Context, query string, limit int, docIDs []string) ([]ChunkHit, error)
}
