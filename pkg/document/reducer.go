package document

import (
	"errors"
	"fmt"

	"github.com/ikbp/dave/backend/pkg/annotation"
	"github.com/ikbp/dave/backend/pkg/cluster"
	"github.com/ikbp/dave/backend/pkg/taxonomy"
)

var (
	ErrSetNotFound  = errors.New("annotation set not found")
	ErrSetExists    = errors.New("annotation set already exists")
	ErrEmptySetName = errors.New("annotation set name is empty")
)

// Action is one atomic edit applied to a document snapshot.
type Action interface {
	action()
}

// AddAnnotation appends a new annotation to a set. Text is the annotated
// document slice and becomes both the mention and the cluster title.
type AddAnnotation struct {
	SetName string
	Type    string
	Start   int
	End     int
	Text    string
}

// DeleteAnnotation removes the annotation with ID from a set and strips its
// cluster mentions.
type DeleteAnnotation struct {
	SetName string
	ID      int
}

// EditAnnotation rewrites the type list and linking candidates of an
// existing annotation. The first entry of Types becomes the primary type.
type EditAnnotation struct {
	SetName              string
	ID                   int
	Types                []string
	TopCandidate         *annotation.Candidate
	AdditionalCandidates []annotation.Candidate
}

// CreateSet adds a new, empty entity annotation set.
type CreateSet struct {
	Name string
}

// DeleteSet removes an annotation set together with its clusters.
type DeleteSet struct {
	Name string
}

// AddType inserts a taxonomy type. Color is only meaningful for roots.
type AddType struct {
	Key    string
	Label  string
	Parent string
	Color  string
}

// DeleteType removes a taxonomy type and its descendants, cascading over
// every annotation and cluster referencing a removed type.
type DeleteType struct {
	Key string
}

func (AddAnnotation) action()    {}
func (DeleteAnnotation) action() {}
func (EditAnnotation) action()   {}
func (CreateSet) action()        {}
func (DeleteSet) action()        {}
func (AddType) action()          {}
func (DeleteType) action()       {}

// Normalizer canonicalizes entity types for cluster bookkeeping.
type Normalizer = cluster.Normalizer

// Apply runs one action against a snapshot and returns the resulting
// snapshot. The input snapshot is never mutated; taxonomy actions mutate tax
// in place since the taxonomy is shared session state, not document state.
func Apply(doc Document, tax *taxonomy.Taxonomy, norm Normalizer, action Action) (Document, error) {
	switch a := action.(type) {
	case AddAnnotation:
		return applyAddAnnotation(doc, norm, a)
	case DeleteAnnotation:
		return applyDeleteAnnotation(doc, a)
	case EditAnnotation:
		return applyEditAnnotation(doc, a)
	case CreateSet:
		return applyCreateSet(doc, a)
	case DeleteSet:
		return applyDeleteSet(doc, a)
	case AddType:
		var node taxonomy.Node
		if a.Parent == "" {
			node = taxonomy.Root{Key: a.Key, Label: a.Label, Color: a.Color, Recognizable: true}
		} else {
			node = taxonomy.Child{Key: a.Key, Label: a.Label, Parent: a.Parent, Recognizable: true}
		}
		if err := tax.AddType(node); err != nil {
			return doc, err
		}
		return doc, nil
	case DeleteType:
		removed, err := tax.DeleteType(a.Key)
		if err != nil {
			return doc, err
		}
		return applyDeleteTypes(doc, removed), nil
	default:
		return doc, fmt.Errorf("unknown action %T", action)
	}
}

func applyAddAnnotation(doc Document, norm Normalizer, a AddAnnotation) (Document, error) {
	set := doc.AnnotationSets[a.SetName]
	if set == nil {
		return doc, fmt.Errorf("%w: %s", ErrSetNotFound, a.SetName)
	}

	out := doc.clone()
	updated := *set
	id := updated.NextAnnID
	if id == 0 {
		id = 1
	}
	updated.NextAnnID = id + 1

	clusters, clusterID := cluster.AddMention(out.Features.Clusters[a.SetName], norm, a.Type, a.Text, id)
	out.Features.Clusters[a.SetName] = clusters

	ann := annotation.Annotation{
		ID:    id,
		Start: a.Start,
		End:   a.End,
		Type:  a.Type,
		Features: annotation.Features{
			Mention: a.Text,
			Cluster: &clusterID,
		},
	}
	updated.Annotations = annotation.Insert(set.Annotations, ann)
	out.AnnotationSets[a.SetName] = &updated
	return out, nil
}

func applyDeleteAnnotation(doc Document, a DeleteAnnotation) (Document, error) {
	set := doc.AnnotationSets[a.SetName]
	if set == nil {
		return doc, fmt.Errorf("%w: %s", ErrSetNotFound, a.SetName)
	}

	annotations, found := annotation.Delete(set.Annotations, a.ID)
	if !found {
		return doc, nil
	}

	out := doc.clone()
	updated := *set
	updated.Annotations = annotations
	out.AnnotationSets[a.SetName] = &updated
	out.Features.Clusters[a.SetName] = cluster.RemoveAnnotation(out.Features.Clusters[a.SetName], a.ID)
	return out, nil
}

func applyEditAnnotation(doc Document, a EditAnnotation) (Document, error) {
	set := doc.AnnotationSets[a.SetName]
	if set == nil {
		return doc, fmt.Errorf("%w: %s", ErrSetNotFound, a.SetName)
	}

	idx := -1
	for i, ann := range set.Annotations {
		if ann.ID == a.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return doc, nil
	}

	out := doc.clone()
	updated := *set
	updated.Annotations = append([]annotation.Annotation(nil), set.Annotations...)
	ann := &updated.Annotations[idx]
	if len(a.Types) > 0 {
		ann.Type = a.Types[0]
		ann.Features.Types = append([]string(nil), a.Types[1:]...)
	}
	if a.TopCandidate != nil {
		ann.Features.Title = a.TopCandidate.Title
		ann.Features.URL = a.TopCandidate.URL
	}
	if a.AdditionalCandidates != nil {
		ann.Features.AdditionalCandidates = append([]annotation.Candidate(nil), a.AdditionalCandidates...)
	}
	out.AnnotationSets[a.SetName] = &updated
	return out, nil
}

func applyCreateSet(doc Document, a CreateSet) (Document, error) {
	if a.Name == "" {
		return doc, ErrEmptySetName
	}
	if _, ok := doc.AnnotationSets[a.Name]; ok {
		return doc, fmt.Errorf("%w: %s", ErrSetExists, a.Name)
	}
	out := doc.clone()
	out.AnnotationSets[a.Name] = &annotation.Set{Name: a.Name, NextAnnID: 1}
	return out, nil
}

func applyDeleteSet(doc Document, a DeleteSet) (Document, error) {
	if _, ok := doc.AnnotationSets[a.Name]; !ok {
		return doc, fmt.Errorf("%w: %s", ErrSetNotFound, a.Name)
	}
	out := doc.clone()
	delete(out.AnnotationSets, a.Name)
	delete(out.Features.Clusters, a.Name)
	return out, nil
}

// applyDeleteTypes strips annotations and clusters whose type was removed by
// a taxonomy cascade.
func applyDeleteTypes(doc Document, removed []string) Document {
	gone := make(map[string]bool, len(removed))
	for _, key := range removed {
		gone[key] = true
	}

	out := doc.clone()
	for name, set := range out.AnnotationSets {
		kept := set.Annotations[:0:0]
		var droppedIDs []int
		for _, ann := range set.Annotations {
			if gone[ann.Type] {
				droppedIDs = append(droppedIDs, ann.ID)
				continue
			}
			kept = append(kept, ann)
		}
		if len(droppedIDs) == 0 {
			continue
		}
		updated := *set
		updated.Annotations = kept
		out.AnnotationSets[name] = &updated
		clusters := out.Features.Clusters[name]
		for _, id := range droppedIDs {
			clusters = cluster.RemoveAnnotation(clusters, id)
		}
		out.Features.Clusters[name] = clusters
	}

	for name, clusters := range out.Features.Clusters {
		kept := clusters[:0:0]
		for _, c := range clusters {
			if !gone[c.Type] {
				kept = append(kept, c)
			}
		}
		out.Features.Clusters[name] = kept
	}
	return out
}

// AugmentTaxonomy registers every annotation type present in the document as
// an UNKNOWN child when the taxonomy does not know it. Recomputed on every
// load, never persisted.
func AugmentTaxonomy(doc *Document, tax *taxonomy.Taxonomy) {
	for name, set := range doc.AnnotationSets {
		if name == annotation.SectionsSetName {
			continue
		}
		for _, ann := range set.Annotations {
			tax.InsertUnknown(ann.Type)
			for _, t := range ann.Features.Types {
				tax.InsertUnknown(t)
			}
		}
	}
}
