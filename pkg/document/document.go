// Package document holds the document snapshot model and the reducer that
// applies editing actions to it. Snapshots are immutable: every action
// produces a new snapshot with structural sharing of the untouched parts.
package document

import (
	"encoding/json"
	"strings"

	"github.com/ikbp/dave/backend/pkg/annotation"
	"github.com/ikbp/dave/backend/pkg/cluster"
)

// Features carries document-level metadata next to the cluster registry. On
// the wire the Metadata entries sit flat alongside the fixed keys, the way
// corpus exports store them.
type Features struct {
	Clusters   map[string][]cluster.Cluster
	Anonymized bool
	Metadata   map[string]any
}

// Document is one annotated document snapshot.
type Document struct {
	ID             string                     `json:"id"`
	Name           string                     `json:"name"`
	Text           string                     `json:"text"`
	Preview        string                     `json:"preview,omitempty"`
	OffsetType     string                     `json:"offset_type,omitempty"`
	AnnotationSets map[string]*annotation.Set `json:"annotation_sets"`
	Features       Features                   `json:"features"`
}

// Set returns the named annotation set, or nil.
func (d *Document) Set(name string) *annotation.Set {
	return d.AnnotationSets[name]
}

// Sections returns the structural regions of the document, if any.
func (d *Document) Sections() []annotation.Section {
	set := d.AnnotationSets[annotation.SectionsSetName]
	if set == nil {
		return nil
	}
	sections := make([]annotation.Section, 0, len(set.Annotations))
	for _, a := range set.Annotations {
		sections = append(sections, annotation.Section{Start: a.Start, End: a.End, Type: a.Type})
	}
	return sections
}

// EntitySetNames lists the entity annotation sets in map order.
func (d *Document) EntitySetNames() []string {
	var names []string
	for name := range d.AnnotationSets {
		if strings.HasPrefix(name, annotation.EntitySetPrefix) {
			names = append(names, name)
		}
	}
	return names
}

// clone returns a shallow copy with fresh top-level maps, so the reducer can
// replace individual sets without touching the source snapshot.
func (d Document) clone() Document {
	sets := make(map[string]*annotation.Set, len(d.AnnotationSets))
	for name, set := range d.AnnotationSets {
		sets[name] = set
	}
	clusters := make(map[string][]cluster.Cluster, len(d.Features.Clusters))
	for name, cs := range d.Features.Clusters {
		clusters[name] = cs
	}
	d.AnnotationSets = sets
	d.Features.Clusters = clusters
	return d
}

const (
	featClustersKey   = "clusters"
	featAnonymizedKey = "anonymized"
)

// MarshalJSON writes the fixed feature keys and the flat metadata entries
// into a single object.
func (f Features) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(f.Metadata)+2)
	for k, v := range f.Metadata {
		out[k] = v
	}
	if f.Clusters != nil {
		out[featClustersKey] = f.Clusters
	}
	if f.Anonymized {
		out[featAnonymizedKey] = f.Anonymized
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits the fixed keys back out; everything else lands in
// Metadata.
func (f *Features) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = Features{}
	for k, v := range raw {
		switch k {
		case featClustersKey:
			if err := json.Unmarshal(v, &f.Clusters); err != nil {
				return err
			}
		case featAnonymizedKey:
			if err := json.Unmarshal(v, &f.Anonymized); err != nil {
				return err
			}
		default:
			var value any
			if err := json.Unmarshal(v, &value); err != nil {
				return err
			}
			if f.Metadata == nil {
				f.Metadata = map[string]any{}
			}
			f.Metadata[k] = value
		}
	}
	return nil
}
