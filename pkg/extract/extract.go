// Package extract runs named-entity recognition over raw document text and
// turns the recognized spans into offset annotations. The recognizer returns
// entity texts without positions, so offsets are recovered with a forward
// cursor over the source text.
package extract

import (
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"

	"github.com/ikbp/dave/backend/pkg/annotation"
	"github.com/ikbp/dave/backend/pkg/logger"
)

// Extractor recognizes entities and emits a ready annotation set.
type Extractor struct {
	normalizer interface{ Normalize(string) string }
}

func New(normalizer interface{ Normalize(string) string }) *Extractor {
	return &Extractor{normalizer: normalizer}
}

// Annotate recognizes entities in text and returns them as a sorted
// annotation set named name. Entity types are canonicalized when a
// normalizer is configured.
func (e *Extractor) Annotate(name, text string) (*annotation.Set, error) {
	set := &annotation.Set{Name: name, NextAnnID: 1}
	if strings.TrimSpace(text) == "" {
		return set, nil
	}

	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("entity recognition: %w", err)
	}

	runes := []rune(text)
	cursor := 0
	for _, ent := range doc.Entities() {
		start, end, ok := locate(runes, cursor, ent.Text)
		if !ok {
			logger.Warn("entity not found in source text", "entity", ent.Text)
			continue
		}
		cursor = end

		typ := ent.Label
		if e.normalizer != nil {
			typ = e.normalizer.Normalize(typ)
		}
		set.Annotations = append(set.Annotations, annotation.Annotation{
			ID:    set.NextAnnID,
			Start: start,
			End:   end,
			Type:  typ,
			Features: annotation.Features{
				Mention: ent.Text,
				NER:     map[string]any{"source": "prose", "label": ent.Label},
			},
		})
		set.NextAnnID++
	}
	return set, nil
}

// locate finds the next occurrence of needle in runes at or after cursor and
// returns its rune span.
func locate(runes []rune, cursor int, needle string) (start, end int, ok bool) {
	if cursor >= len(runes) {
		return 0, 0, false
	}
	idx := strings.Index(string(runes[cursor:]), needle)
	if idx < 0 {
		return 0, 0, false
	}
	// Index returns bytes; convert the prefix back to runes for the offset.
	start = cursor + len([]rune(string(runes[cursor:])[:idx]))
	end = start + len([]rune(needle))
	return start, end, true
}
