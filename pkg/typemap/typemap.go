// Package typemap normalizes raw extractor entity labels ("PERSON", "per",
// "Person") onto canonical taxonomy keys through a case-insensitive synonym
// ladder. Normalization can be disabled wholesale so deployments that keep
// the extractor's vocabulary pass raw types straight through to the
// taxonomy's UNKNOWN fallback.
package typemap

import (
	"regexp"
	"strings"
)

var (
	personRe   = regexp.MustCompile(`(?i)^(person|persons|people|per|individual|persona|persone)$`)
	locationRe = regexp.MustCompile(`(?i)^(location|loc|place|gpe|luogo)$`)
	orgRe      = regexp.MustCompile(`(?i)^(organization|organisation|org|company|institution|organizzazione)$`)
	dateRe     = regexp.MustCompile(`(?i)^(date|time|temporal|data)$`)
	moneyRe    = regexp.MustCompile(`(?i)^(money|monetary|currency|financial|denaro)$`)
	lawRe      = regexp.MustCompile(`(?i)^(law|legal|statute|norma)$`)
	idRe       = regexp.MustCompile(`(?i)^(id|identifier|number|code)$`)
)

// singletons maps remaining extractor families onto their canonical keys.
// Every canonical key maps to itself so Normalize is idempotent.
var singletons = map[string]string{
	"fac":           "facility",
	"facility":      "facility",
	"norp":          "norp",
	"cardinal":      "numeric",
	"ordinal":       "numeric",
	"quantity":      "numeric",
	"percent":       "numeric",
	"numeric":       "numeric",
	"work_of_art":   "creative-work",
	"creative-work": "creative-work",
	"event":         "event",
	"product":       "product",
	"language":      "language",
}

// Mapper resolves raw types to canonical keys. The zero value is an enabled
// mapper with no extra table.
type Mapper struct {
	disabled bool
	extra    map[string]string
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithTable adds a taxonomy-supplied raw-to-canonical table consulted after
// the built-in ladder. Keys are matched case-insensitively.
func WithTable(table map[string]string) Option {
	return func(m *Mapper) {
		m.extra = make(map[string]string, len(table))
		for raw, canonical := range table {
			m.extra[strings.ToLower(raw)] = canonical
		}
	}
}

// WithDisabled turns the whole mapping off: Normalize becomes the identity
// and raw extractor types flow through to taxonomy lookup unchanged.
func WithDisabled(disabled bool) Option {
	return func(m *Mapper) {
		m.disabled = disabled
	}
}

// NewMapper builds a Mapper from options.
func NewMapper(opts ...Option) *Mapper {
	m := &Mapper{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Enabled reports whether the mapping ladder is active.
func (m *Mapper) Enabled() bool {
	return !m.disabled
}

// Normalize maps raw onto its canonical taxonomy key. Unmatched types pass
// through unchanged. When the mapper is disabled this is the identity.
func (m *Mapper) Normalize(raw string) string {
	if m.disabled || raw == "" {
		return raw
	}

	switch {
	case personRe.MatchString(raw):
		return "persona"
	case locationRe.MatchString(raw):
		return "luogo"
	case orgRe.MatchString(raw):
		return "organizzazione"
	case dateRe.MatchString(raw):
		return "data"
	case moneyRe.MatchString(raw):
		return "money"
	case lawRe.MatchString(raw):
		return "norma"
	case idRe.MatchString(raw):
		return "id"
	}

	lower := strings.ToLower(raw)
	if canonical, ok := singletons[lower]; ok {
		return canonical
	}
	if canonical, ok := m.extra[lower]; ok {
		return canonical
	}
	return raw
}

// IsPerson reports whether raw belongs to the person synonym family. It is
// intentionally independent of the disabled switch: anonymization decisions
// must hold even when normalization is off.
func (m *Mapper) IsPerson(raw string) bool {
	return personRe.MatchString(raw)
}
