package util

import (
	"strings"
	"testing"
)

func TestNewID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id, err := NewID()
		if err != nil {
			t.Fatalf("NewID returned error: %v", err)
		}
		if len(id) != 21 {
			t.Fatalf("expected 21-char id, got %q (len %d)", id, len(id))
		}
		for _, r := range id {
			valid := r == '-' || r == '_' ||
				(r >= '0' && r <= '9') ||
				(r >= 'a' && r <= 'z') ||
				(r >= 'A' && r <= 'Z')
			if !valid {
				t.Fatalf("unexpected character %q in id %q", r, id)
			}
		}
		if seen[id] {
			t.Fatalf("duplicate id generated: %q", id)
		}
		seen[id] = true
	}
}

func TestHashText(t *testing.T) {
	got := HashText("hello")
	// sha256("hello")
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Fatalf("HashText(\"hello\") = %q, want %q", got, want)
	}
}

func TestHashText_Stable(t *testing.T) {
	text := "Il sig. Mario Rossi è comparso davanti al giudice."
	first := HashText(text)
	second := HashText(text)
	if first != second {
		t.Fatalf("hash not stable: %q vs %q", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}
	if strings.ToLower(first) != first {
		t.Fatalf("expected lowercase hex, got %q", first)
	}
}

func TestHashText_DistinctInputs(t *testing.T) {
	if HashText("a") == HashText("b") {
		t.Fatal("distinct inputs produced the same hash")
	}
	if HashText("") == HashText(" ") {
		t.Fatal("empty and whitespace inputs produced the same hash")
	}
}
