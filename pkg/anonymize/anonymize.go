// Package anonymize masks person mentions for display and indexing, keeping
// only the first letter of each word.
package anonymize

import (
	"strings"

	"github.com/ikbp/dave/backend/pkg/annotation"
)

// maskedTypes are the annotation types whose mentions carry personal names.
var maskedTypes = map[string]bool{
	"persona":     true,
	"parte":       true,
	"controparte": true,
}

// ShouldMask reports whether mentions of the given type get anonymized.
func ShouldMask(typ string) bool {
	return maskedTypes[strings.ToLower(typ)]
}

// Mask replaces every word of mention with its first rune followed by stars,
// one star per hidden rune: "Mario Rossi" becomes "M**** R****".
func Mask(mention string) string {
	words := strings.Fields(mention)
	masked := make([]string, len(words))
	for i, w := range words {
		runes := []rune(w)
		masked[i] = string(runes[0]) + strings.Repeat("*", len(runes)-1)
	}
	return strings.Join(masked, " ")
}

// MentionText returns the display form of mention given its type: masked for
// person-family types unless the document has been de-anonymized.
func MentionText(mention, typ string, deanonymized bool) string {
	if deanonymized || !ShouldMask(typ) {
		return mention
	}
	return Mask(mention)
}

// Annotations returns a copy of anns with person mentions masked in their
// features. Offsets are untouched; only display strings change.
func Annotations(anns []annotation.Annotation, deanonymized bool) []annotation.Annotation {
	if deanonymized {
		return anns
	}
	out := make([]annotation.Annotation, len(anns))
	for i, a := range anns {
		if ShouldMask(a.Type) && a.Features.Mention != "" {
			a.Features.Mention = Mask(a.Features.Mention)
		}
		out[i] = a
	}
	return out
}
