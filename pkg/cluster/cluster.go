// Package cluster maintains the per annotation set coreference registry:
// groups of mentions referring to the same entity, matched by canonical type
// and case-insensitive title.
package cluster

import (
	"errors"
	"sort"
	"strings"

	"github.com/ikbp/dave/backend/pkg/annotation"
	"github.com/ikbp/dave/backend/pkg/logger"
)

// ErrMentionNotFound reports a cluster mention whose annotation is no longer
// in the live annotation list, typically after an external delete raced the
// lookup.
var ErrMentionNotFound = errors.New("mention not found")

// Mention ties a cluster entry back to its source annotation.
type Mention struct {
	ID      int    `json:"id"`
	Mention string `json:"mention"`
}

type Cluster struct {
	ID       int       `json:"id"`
	Title    string    `json:"title"`
	Type     string    `json:"type"`
	Mentions []Mention `json:"mentions"`
}

// Normalizer canonicalizes raw entity types before cluster matching.
type Normalizer interface {
	Normalize(raw string) string
}

// AddMention files a mention under the existing cluster whose title matches
// mentionText case-insensitively within the canonical type, or opens a new
// cluster with id max(existing)+1. Returns the updated list and the cluster
// id the mention landed in. The input list is never mutated; snapshots built
// on it stay valid.
func AddMention(clusters []Cluster, norm Normalizer, typ, mentionText string, annotationID int) ([]Cluster, int) {
	canonical := typ
	if norm != nil {
		canonical = norm.Normalize(typ)
	}

	for i := range clusters {
		if clusters[i].Type != canonical {
			continue
		}
		if strings.EqualFold(clusters[i].Title, mentionText) {
			out := append(clusters[:0:0], clusters...)
			mentions := append(clusters[i].Mentions[:0:0], clusters[i].Mentions...)
			out[i].Mentions = append(mentions, Mention{ID: annotationID, Mention: mentionText})
			return out, out[i].ID
		}
	}

	id := 1
	for _, c := range clusters {
		if c.ID >= id {
			id = c.ID + 1
		}
	}
	out := append(clusters[:0:0], clusters...)
	out = append(out, Cluster{
		ID:       id,
		Title:    mentionText,
		Type:     canonical,
		Mentions: []Mention{{ID: annotationID, Mention: mentionText}},
	})
	return out, id
}

// RemoveMention drops the mention with annotationID from the cluster with
// clusterID. A cluster left without mentions is removed from the list, so no
// empty cluster ever persists. Missing cluster or mention ids are logged
// no-ops. The input list is never mutated.
func RemoveMention(clusters []Cluster, clusterID, annotationID int) []Cluster {
	for i := range clusters {
		if clusters[i].ID != clusterID {
			continue
		}
		mentions := clusters[i].Mentions
		found := false
		kept := mentions[:0:0]
		for _, m := range mentions {
			if m.ID == annotationID && !found {
				found = true
				continue
			}
			kept = append(kept, m)
		}
		if !found {
			logger.Warn("remove mention: annotation id not in cluster", "cluster", clusterID, "annotation", annotationID)
			return clusters
		}
		if len(kept) == 0 {
			return append(clusters[:i:i], clusters[i+1:]...)
		}
		out := append(clusters[:0:0], clusters...)
		out[i].Mentions = kept
		return out
	}
	logger.Warn("remove mention: cluster id not found", "cluster", clusterID)
	return clusters
}

// RemoveAnnotation strips every mention of annotationID across all clusters,
// pruning clusters emptied along the way. Used when an annotation is deleted.
func RemoveAnnotation(clusters []Cluster, annotationID int) []Cluster {
	out := clusters[:0:0]
	for _, c := range clusters {
		kept := c.Mentions[:0:0]
		for _, m := range c.Mentions {
			if m.ID != annotationID {
				kept = append(kept, m)
			}
		}
		if len(kept) == 0 {
			continue
		}
		c.Mentions = kept
		out = append(out, c)
	}
	return out
}

// GroupByType partitions clusters for sidebar display. Empty clusters are
// filtered out even if pruning was somehow skipped upstream.
func GroupByType(clusters []Cluster) map[string][]Cluster {
	out := map[string][]Cluster{}
	for _, c := range clusters {
		if len(c.Mentions) == 0 {
			continue
		}
		out[c.Type] = append(out[c.Type], c)
	}
	return out
}

// MergeDuplicates folds clusters of the same type whose trimmed titles match
// case-insensitively into the first-seen cluster, concatenating mentions.
// Corpus exports routinely carry such duplicates.
func MergeDuplicates(clusters []Cluster) []Cluster {
	type key struct {
		typ   string
		title string
	}
	index := map[key]int{}
	var out []Cluster
	for _, c := range clusters {
		k := key{typ: c.Type, title: strings.ToLower(strings.TrimSpace(c.Title))}
		if i, ok := index[k]; ok {
			out[i].Mentions = append(out[i].Mentions, c.Mentions...)
			continue
		}
		index[k] = len(out)
		out = append(out, c)
	}
	return out
}

// SortByTitle orders clusters alphabetically, case-insensitively.
func SortByTitle(clusters []Cluster) {
	sort.SliceStable(clusters, func(i, j int) bool {
		return strings.ToLower(clusters[i].Title) < strings.ToLower(clusters[j].Title)
	})
}

const contextRunes = 10

// ContextWindow slices text around [start, end) with ten runes of context on
// each side, clamped to the document bounds. Display only.
func ContextWindow(text string, start, end int) string {
	runes := []rune(text)
	from := start - contextRunes
	if from < 0 {
		from = 0
	}
	to := end + contextRunes
	if to > len(runes) {
		to = len(runes)
	}
	if from >= to {
		return ""
	}
	return string(runes[from:to])
}

// MentionContext resolves the display context of a cluster mention against
// the live annotation list. The registry never stores offsets, so the span
// comes from the annotation itself; a mention pointing at a deleted
// annotation yields ErrMentionNotFound.
func MentionContext(text string, anns []annotation.Annotation, clusters []Cluster, clusterID, annotationID int) (string, error) {
	found := false
	for _, c := range clusters {
		if c.ID != clusterID {
			continue
		}
		for _, m := range c.Mentions {
			if m.ID == annotationID {
				found = true
				break
			}
		}
		break
	}
	if !found {
		return "", ErrMentionNotFound
	}
	for _, ann := range anns {
		if ann.ID == annotationID {
			return ContextWindow(text, ann.Start, ann.End), nil
		}
	}
	return "", ErrMentionNotFound
}
