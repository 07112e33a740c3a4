package chunker

import (
	"strings"
	"testing"
)

func TestSplitShortText(t *testing.T) {
	s := New()
	chunks := s.Split("una frase breve")
	if len(chunks) != 1 || chunks[0] != "una frase breve" {
		t.Errorf("chunks = %v, want the text unchanged", chunks)
	}
}

func TestSplitEmpty(t *testing.T) {
	s := New()
	if chunks := s.Split("   \n\n  "); chunks != nil {
		t.Errorf("chunks = %v, want nil for whitespace-only text", chunks)
	}
}

func TestSplitPrefersParagraphBreaks(t *testing.T) {
	para1 := strings.Repeat("aaa ", 20)
	para2 := strings.Repeat("bbb ", 20)
	text := strings.TrimSpace(para1) + "\n\n" + strings.TrimSpace(para2)

	s := New(WithChunkSize(90), WithOverlap(0))
	chunks := s.Split(text)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %q", len(chunks), chunks)
	}
	if !strings.HasPrefix(chunks[0], "aaa") || !strings.HasPrefix(chunks[1], "bbb") {
		t.Errorf("paragraphs were not kept whole: %q", chunks)
	}
}

func TestSplitRespectsSizeLimit(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 300; i++ {
		b.WriteString("parola ")
	}
	s := New(WithChunkSize(120), WithOverlap(20))
	for i, chunk := range s.Split(b.String()) {
		if n := len([]rune(chunk)); n > 150 {
			t.Errorf("chunk %d has %d runes, far past the limit", i, n)
		}
	}
}

func TestSplitOverlapCarried(t *testing.T) {
	var words []string
	for i := 0; i < 60; i++ {
		words = append(words, "w"+strings.Repeat("x", 3))
	}
	text := strings.Join(words, " ")

	s := New(WithChunkSize(100), WithOverlap(30))
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prevTail := chunks[i-1][len(chunks[i-1])-10:]
		if !strings.Contains(chunks[i], strings.Fields(prevTail)[len(strings.Fields(prevTail))-1]) {
			t.Errorf("chunk %d does not carry overlap from its predecessor", i)
		}
	}
}

func TestSplitHardCutsUnbreakableRun(t *testing.T) {
	text := strings.Repeat("x", 250)
	s := New(WithChunkSize(100), WithOverlap(0))
	chunks := s.Split(text)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3: lengths %v", len(chunks), lengths(chunks))
	}
	for i, chunk := range chunks[:2] {
		if len(chunk) != 100 {
			t.Errorf("chunk %d length = %d, want 100", i, len(chunk))
		}
	}
}

func TestSplitCoversAllWords(t *testing.T) {
	var words []string
	for i := 0; i < 80; i++ {
		words = append(words, "termine"+strings.Repeat("o", i%5))
	}
	text := strings.Join(words, " ")

	s := New(WithChunkSize(120), WithOverlap(25))
	joined := strings.Join(s.Split(text), " ")
	for _, w := range words {
		if !strings.Contains(joined, w) {
			t.Errorf("word %q lost during splitting", w)
		}
	}
}

func TestWithLengthFunc(t *testing.T) {
	// Word-count length: chunks hold at most 5 words.
	s := New(
		WithChunkSize(5),
		WithOverlap(0),
		WithLengthFunc(func(text string) int { return len(strings.Fields(text)) }),
	)
	text := strings.Repeat("uno due tre ", 10)
	for i, chunk := range s.Split(text) {
		if n := len(strings.Fields(chunk)); n > 5 {
			t.Errorf("chunk %d has %d words, want at most 5", i, n)
		}
	}
}

func lengths(chunks []string) []int {
	out := make([]int, len(chunks))
	for i, c := range chunks {
		out[i] = len(c)
	}
	return out
}
