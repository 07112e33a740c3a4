package annotation

import (
	"sort"
	"strings"

	"github.com/ikbp/dave/backend/pkg/logger"
)

// Insert places ann into list, which must already be sorted ascending by
// Start, and returns the resulting slice. The insertion point is found by
// binary search; ties on Start go after existing entries so insertion order
// is preserved. The input slice is not modified.
func Insert(list []Annotation, ann Annotation) []Annotation {
	idx := sort.Search(len(list), func(i int) bool {
		return list[i].Start > ann.Start
	})

	out := make([]Annotation, 0, len(list)+1)
	out = append(out, list[:idx]...)
	out = append(out, ann)
	out = append(out, list[idx:]...)
	return out
}

// Delete removes the annotation with the given id and returns the resulting
// slice. A missing id is a logged no-op: the input is returned unchanged and
// found is false.
func Delete(list []Annotation, id int) (out []Annotation, found bool) {
	for i := range list {
		if list[i].ID != id {
			continue
		}
		out = make([]Annotation, 0, len(list)-1)
		out = append(out, list[:i]...)
		out = append(out, list[i+1:]...)
		return out, true
	}
	logger.Warn("delete: annotation id not found", "id", id)
	return list, false
}

// SortByStart sorts list ascending by Start in place. The sort is stable so
// equal-start annotations keep their relative order. Used once on initial
// load; single inserts go through Insert instead.
func SortByStart(list []Annotation) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Start < list[j].Start
	})
}

// TypeFilterCache memoizes the distinct-type derivation per annotation-slice
// identity. Repeated calls with the same slice (same backing array and
// length) return the cached result without rescanning.
type TypeFilterCache struct {
	last  []Annotation
	types []string
}

// Types returns the de-duplicated list of annotation types present in list,
// merged case-insensitively with first-seen casing winning.
func (c *TypeFilterCache) Types(list []Annotation) []string {
	if c.sameIdentity(list) {
		return c.types
	}

	seen := make(map[string]struct{}, 8)
	var types []string
	for i := range list {
		key := strings.ToLower(list[i].Type)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		types = append(types, list[i].Type)
	}

	c.last = list
	c.types = types
	return types
}

func (c *TypeFilterCache) sameIdentity(list []Annotation) bool {
	if c.last == nil || len(list) != len(c.last) {
		return false
	}
	if len(list) == 0 {
		return true
	}
	return &list[0] == &c.last[0]
}

// FilterByTypes returns the annotations whose type is contained in visible,
// compared case-insensitively. A nil visible slice means no filter.
func FilterByTypes(list []Annotation, visible []string) []Annotation {
	if visible == nil {
		return list
	}
	allowed := make(map[string]struct{}, len(visible))
	for _, t := range visible {
		allowed[strings.ToLower(t)] = struct{}{}
	}
	out := make([]Annotation, 0, len(list))
	for i := range list {
		if _, ok := allowed[strings.ToLower(list[i].Type)]; ok {
			out = append(out, list[i])
		}
	}
	return out
}
