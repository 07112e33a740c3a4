package anonymize

import (
	"testing"

	"github.com/ikbp/dave/backend/pkg/annotation"
)

func TestMask(t *testing.T) {
	tests := []struct {
		mention string
		want    string
	}{
		{"Mario Rossi", "M**** R****"},
		{"Rossi", "R****"},
		{"De La Torre", "D* L* T****"},
		{"Sig. Bianchi", "S*** B******"},
		{"È", "È"},
	}
	for _, tt := range tests {
		if got := Mask(tt.mention); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.mention, got, tt.want)
		}
	}
}

func TestShouldMask(t *testing.T) {
	for _, typ := range []string{"persona", "Persona", "parte", "CONTROPARTE"} {
		if !ShouldMask(typ) {
			t.Errorf("ShouldMask(%q) = false, want true", typ)
		}
	}
	for _, typ := range []string{"luogo", "organizzazione", "giudice"} {
		if ShouldMask(typ) {
			t.Errorf("ShouldMask(%q) = true, want false", typ)
		}
	}
}

func TestMentionText(t *testing.T) {
	if got := MentionText("Mario Rossi", "persona", false); got != "M**** R****" {
		t.Errorf("masked = %q", got)
	}
	if got := MentionText("Mario Rossi", "persona", true); got != "Mario Rossi" {
		t.Errorf("deanonymized = %q", got)
	}
	if got := MentionText("Milano", "luogo", false); got != "Milano" {
		t.Errorf("non-person = %q", got)
	}
}

func TestAnnotations(t *testing.T) {
	anns := []annotation.Annotation{
		{ID: 1, Type: "persona", Features: annotation.Features{Mention: "Mario Rossi"}},
		{ID: 2, Type: "luogo", Features: annotation.Features{Mention: "Milano"}},
	}
	masked := Annotations(anns, false)
	if masked[0].Features.Mention != "M**** R****" {
		t.Errorf("person mention = %q", masked[0].Features.Mention)
	}
	if masked[1].Features.Mention != "Milano" {
		t.Errorf("place mention = %q", masked[1].Features.Mention)
	}
	if anns[0].Features.Mention != "Mario Rossi" {
		t.Error("source slice was mutated")
	}
}
