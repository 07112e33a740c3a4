package extract

import (
	"testing"

	"github.com/ikbp/dave/backend/pkg/typemap"
)

func TestLocate(t *testing.T) {
	runes := []rune("perché Mario Rossi è Mario Rossi")
	tests := []struct {
		name   string
		cursor int
		needle string
		start  int
		end    int
		ok     bool
	}{
		{"first match", 0, "Mario Rossi", 7, 18, true},
		{"cursor skips first", 18, "Mario Rossi", 21, 32, true},
		{"not found", 0, "Luigi", 0, 0, false},
		{"cursor past end", 40, "Mario", 0, 0, false},
		{"multibyte prefix", 0, "è", 19, 20, true},
	}
	for _, tt := range tests {
		start, end, ok := locate(runes, tt.cursor, tt.needle)
		if start != tt.start || end != tt.end || ok != tt.ok {
			t.Errorf("%s: locate = (%d,%d,%v), want (%d,%d,%v)",
				tt.name, start, end, ok, tt.start, tt.end, tt.ok)
		}
	}
}

func TestAnnotateEmptyText(t *testing.T) {
	set, err := New(nil).Annotate("entities_auto", "   ")
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if len(set.Annotations) != 0 || set.NextAnnID != 1 {
		t.Errorf("set = %+v, want empty with next_annid 1", set)
	}
}

func TestAnnotateOffsetsMatchText(t *testing.T) {
	text := "John Smith met Mary Jones in London last Tuesday. " +
		"Acme Corporation hired John Smith in Paris."
	ex := New(typemap.NewMapper())

	set, err := ex.Annotate("entities_auto", text)
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}

	runes := []rune(text)
	prevStart := -1
	for _, ann := range set.Annotations {
		if ann.Start < 0 || ann.End > len(runes) || ann.Start >= ann.End {
			t.Errorf("annotation %d has bad span [%d,%d)", ann.ID, ann.Start, ann.End)
			continue
		}
		if got := string(runes[ann.Start:ann.End]); got != ann.Features.Mention {
			t.Errorf("annotation %d: text slice %q != mention %q", ann.ID, got, ann.Features.Mention)
		}
		if ann.Start < prevStart {
			t.Errorf("annotation %d out of order", ann.ID)
		}
		prevStart = ann.Start
	}
	if set.NextAnnID != len(set.Annotations)+1 {
		t.Errorf("next_annid = %d, want %d", set.NextAnnID, len(set.Annotations)+1)
	}
}
