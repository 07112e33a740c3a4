// Package annotation defines the entity annotation data model shared by the
// projection engine, the cluster registry, and the document store, together
// with the ordering operations that keep annotation lists sorted.
package annotation

// Candidate is a knowledge-base linking candidate for a mention.
type Candidate struct {
	Title string  `json:"title,omitempty"`
	URL   string  `json:"url,omitempty"`
	Score float64 `json:"score,omitempty"`
}

// Linking carries entity-linking output attached to an annotation.
type Linking struct {
	IsNil        bool       `json:"is_nil"`
	TopCandidate *Candidate `json:"top_candidate,omitempty"`
	Candidates   []Candidate `json:"candidates,omitempty"`
}

// Features holds the open feature set of an annotation. Field names follow
// the wire format produced by the extraction pipeline.
type Features struct {
	Mention              string         `json:"mention,omitempty"`
	Cluster              *int           `json:"cluster,omitempty"`
	Title                string         `json:"title,omitempty"`
	URL                  string         `json:"url,omitempty"`
	IsNil                bool           `json:"is_nil,omitempty"`
	AdditionalCandidates []Candidate    `json:"additional_candidates,omitempty"`
	Types                []string       `json:"types,omitempty"`
	NER                  map[string]any `json:"ner,omitempty"`
	Linking              *Linking       `json:"linking,omitempty"`
}

// Annotation is a typed span [Start, End) over document text, addressed in
// zero-based rune offsets. Start < End holds for every well-formed
// annotation; zero-width spans are tolerated as no-ops by the projection
// engine.
type Annotation struct {
	ID       int      `json:"id"`
	Start    int      `json:"start"`
	End      int      `json:"end"`
	Type     string   `json:"type"`
	Features Features `json:"features"`
}

// Section is a structural region of a document (heading, body, dispositive
// part, ...). Sections are non-overlapping by construction.
type Section struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Type  string `json:"type"`
}

// Set is a named annotation set. Annotations are kept sorted ascending by
// Start, ties in insertion order. NextAnnID is the counter used to assign
// ids to new annotations; it only ever grows.
type Set struct {
	Name        string       `json:"name"`
	Annotations []Annotation `json:"annotations"`
	NextAnnID   int          `json:"next_annid"`
}

// EntitySetPrefix marks annotation sets that hold entity annotations, as
// opposed to structural sets such as SectionsSetName.
const EntitySetPrefix = "entities_"

// SectionsSetName is the reserved annotation set holding section regions.
const SectionsSetName = "Sections"
