package util

import "testing"

func TestSanitizePostgresText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain utf8",
			input: "hello world",
			want:  "hello world",
		},
		{
			name:  "contains null byte",
			input: "hel\x00lo",
			want:  "hello",
		},
		{
			name:  "contains invalid utf8",
			input: string([]byte{'a', 0xff, 'b'}),
			want:  "ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizePostgresText(tt.input)
			if got != tt.want {
				t.Fatalf("unexpected sanitized value: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStripSurrogates(t *testing.T) {
	// A lone high surrogate (U+D800) encoded the way broken JSON exports
	// carry it.
	lone := string([]byte{0xed, 0xa0, 0x80})

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "valid text untouched",
			input: "Tribunale di Milano, sentenza n° 42 — perché",
			want:  "Tribunale di Milano, sentenza n° 42 — perché",
		},
		{
			name:  "lone surrogate removed",
			input: "ricorso" + lone + "accolto",
			want:  "ricorsoaccolto",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripSurrogates(tt.input)
			if got != tt.want {
				t.Fatalf("unexpected stripped value: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{
			name: "short text kept whole",
			text: "breve",
			max:  10,
			want: "breve",
		},
		{
			name: "exact length kept whole",
			text: "esatto",
			max:  6,
			want: "esatto",
		},
		{
			name: "long text cut with ellipsis",
			text: "Il sig. Mario Rossi è comparso",
			max:  10,
			want: "Il sig. Ma...",
		},
		{
			name: "multibyte runes counted as one",
			text: "èèèèè",
			max:  3,
			want: "èèè...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Preview(tt.text, tt.max)
			if got != tt.want {
				t.Fatalf("unexpected preview: got %q, want %q", got, tt.want)
			}
		})
	}
}
