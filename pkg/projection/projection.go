// Package projection turns a document's text and its entity annotations into
// a flat, non-overlapping node sequence. Concatenating the leaf node texts in
// order reconstructs the document exactly. Offsets are rune offsets.
package projection

import (
	"fmt"
	"sort"

	"github.com/ikbp/dave/backend/internal/util"
	"github.com/ikbp/dave/backend/pkg/annotation"
	"github.com/ikbp/dave/backend/pkg/taxonomy"
)

// DefaultTruncateAt caps the displayed length of entity spans while the
// document is still anonymized.
const DefaultTruncateAt = 30

// Node is one projected segment. TextNode and EntityNode are leaves,
// SectionNode wraps the leaves falling inside a structural region.
type Node interface {
	Span() (start, end int)
	node()
}

type TextNode struct {
	Start int
	End   int
	Text  string
}

type EntityNode struct {
	Start int
	End   int
	// Text is the exact document slice, Display the possibly elided form
	// shown to the user.
	Text       string
	Display    string
	Label      string
	Types      []string
	Annotation annotation.Annotation
}

type SectionNode struct {
	Start   int
	End     int
	Kind    string
	Content []Node
}

func (n TextNode) Span() (int, int)    { return n.Start, n.End }
func (n EntityNode) Span() (int, int)  { return n.Start, n.End }
func (n SectionNode) Span() (int, int) { return n.Start, n.End }

func (TextNode) node()    {}
func (EntityNode) node()  {}
func (SectionNode) node() {}

// Options control display-only behavior. Deanonymized disables span
// truncation; TruncateAt overrides the default elision threshold.
type Options struct {
	Deanonymized bool
	TruncateAt   int
}

// Project sweeps the sorted annotation list over text and emits nodes. When
// sections are given, annotations are routed to the section covering their
// start and the result interleaves section nodes with top level runs.
// Annotations are expected sorted ascending by start; zero-width annotations
// are skipped, ends past the text are clamped, and an annotation starting
// inside an already emitted span is dropped.
func Project(text string, anns []annotation.Annotation, sections []annotation.Section, opts Options) []Node {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if opts.TruncateAt <= 0 {
		opts.TruncateAt = DefaultTruncateAt
	}

	if len(sections) == 0 {
		return sweep(runes, anns, 0, len(runes), opts)
	}

	secs := make([]annotation.Section, 0, len(sections))
	for _, s := range sections {
		start, end := clamp(s.Start, len(runes)), clamp(s.End, len(runes))
		if start >= end {
			continue
		}
		secs = append(secs, annotation.Section{Start: start, End: end, Type: s.Type})
	}
	sort.Slice(secs, func(i, j int) bool { return secs[i].Start < secs[j].Start })

	bySection := make([][]annotation.Annotation, len(secs))
	var topLevel []annotation.Annotation
	for _, a := range anns {
		idx := -1
		for i, s := range secs {
			if a.Start >= s.Start && a.Start < s.End {
				idx = i
				break
			}
		}
		if idx >= 0 {
			bySection[idx] = append(bySection[idx], a)
		} else {
			topLevel = append(topLevel, a)
		}
	}

	var out []Node
	cursor := 0
	for i, s := range secs {
		if s.Start > cursor {
			out = append(out, sweep(runes, slice(topLevel, cursor, s.Start), cursor, s.Start, opts)...)
		}
		out = append(out, SectionNode{
			Start:   s.Start,
			End:     s.End,
			Kind:    s.Type,
			Content: sweep(runes, bySection[i], s.Start, s.End, opts),
		})
		cursor = s.End
	}
	if cursor < len(runes) {
		out = append(out, sweep(runes, slice(topLevel, cursor, len(runes)), cursor, len(runes), opts)...)
	}
	return out
}

// sweep projects one scope. Co-located annotations (identical span) fold into
// a single entity node whose type list is the first-seen union of all their
// types.
func sweep(runes []rune, anns []annotation.Annotation, scopeStart, scopeEnd int, opts Options) []Node {
	var out []Node
	cursor := scopeStart

	for i := 0; i < len(anns); {
		a := anns[i]
		start := a.Start
		end := clamp(a.End, scopeEnd)
		if start >= end || start < cursor {
			i++
			continue
		}

		types := []string{}
		seen := map[string]bool{}
		add := func(t string) {
			if t != "" && !seen[t] {
				seen[t] = true
				types = append(types, t)
			}
		}
		j := i
		for ; j < len(anns) && anns[j].Start == a.Start && anns[j].End == a.End; j++ {
			add(anns[j].Type)
			for _, t := range anns[j].Features.Types {
				add(t)
			}
		}

		if start > cursor {
			out = append(out, TextNode{Start: cursor, End: start, Text: string(runes[cursor:start])})
		}
		text := string(runes[start:end])
		out = append(out, EntityNode{
			Start:      start,
			End:        end,
			Text:       text,
			Display:    display(text, opts),
			Label:      label(types),
			Types:      types,
			Annotation: a,
		})
		cursor = end
		i = j
	}

	if cursor < scopeEnd {
		out = append(out, TextNode{Start: cursor, End: scopeEnd, Text: string(runes[cursor:scopeEnd])})
	}
	return out
}

func label(types []string) string {
	if len(types) == 0 {
		return ""
	}
	base := taxonomy.Titlecase(types[0])
	if len(types) > 1 {
		return fmt.Sprintf("%s +%d", base, len(types)-1)
	}
	return base
}

func display(text string, opts Options) string {
	if opts.Deanonymized {
		return text
	}
	return util.Preview(text, opts.TruncateAt)
}

// slice keeps the annotations whose start falls inside [from, to).
func slice(anns []annotation.Annotation, from, to int) []annotation.Annotation {
	var out []annotation.Annotation
	for _, a := range anns {
		if a.Start >= from && a.Start < to {
			out = append(out, a)
		}
	}
	return out
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// Leaves flattens a node sequence, expanding sections into their content.
func Leaves(nodes []Node) []Node {
	var out []Node
	for _, n := range nodes {
		if s, ok := n.(SectionNode); ok {
			out = append(out, s.Content...)
			continue
		}
		out = append(out, n)
	}
	return out
}

// Reconstruct concatenates the leaf texts in order. For valid input this
// returns the original document text.
func Reconstruct(nodes []Node) string {
	var b []byte
	for _, n := range Leaves(nodes) {
		switch v := n.(type) {
		case TextNode:
			b = append(b, v.Text...)
		case EntityNode:
			b = append(b, v.Text...)
		}
	}
	return string(b)
}
