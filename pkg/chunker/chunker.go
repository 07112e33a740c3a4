// Package chunker splits document text into overlapping chunks for embedding
// and retrieval. The splitter recurses through a separator ladder, preferring
// paragraph breaks over line breaks over spaces, and only falls back to hard
// character cuts for unbreakable runs.
package chunker

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 100
)

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// LengthFunc measures a candidate chunk. The default counts runes; token
// based splitting plugs in a tokenizer here.
type LengthFunc func(string) int

type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
	length     LengthFunc
}

type Option func(*Splitter)

func WithChunkSize(size int) Option {
	return func(s *Splitter) { s.chunkSize = size }
}

func WithOverlap(overlap int) Option {
	return func(s *Splitter) { s.overlap = overlap }
}

func WithLengthFunc(fn LengthFunc) Option {
	return func(s *Splitter) { s.length = fn }
}

// WithTokenLength measures chunks in tokens of the given tiktoken encoding
// (for example "cl100k_base").
func WithTokenLength(encoding string) (Option, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return WithLengthFunc(func(text string) int {
		return len(enc.Encode(text, nil, nil))
	}), nil
}

func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: defaultSeparators,
		length:     func(text string) int { return len([]rune(text)) },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 2
	}
	return s
}

// Split cuts text into chunks of at most the configured size, with the
// configured overlap carried between adjacent chunks. Whitespace-only
// fragments are dropped.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	pieces := s.split(text, s.separators)
	return s.mergeWithOverlap(pieces)
}

// split recursively breaks text on the first separator that yields fragments
// within the size limit, descending the ladder for oversized fragments.
func (s *Splitter) split(text string, separators []string) []string {
	if s.length(text) <= s.chunkSize {
		return []string{text}
	}
	if len(separators) == 0 {
		return s.hardCut(text)
	}

	sep := separators[0]
	rest := separators[1:]
	if sep == "" {
		return s.hardCut(text)
	}

	var out []string
	parts := strings.Split(text, sep)
	for i, part := range parts {
		if i < len(parts)-1 {
			part += sep
		}
		if part == "" {
			continue
		}
		if s.length(part) <= s.chunkSize {
			out = append(out, part)
			continue
		}
		out = append(out, s.split(part, rest)...)
	}
	return out
}

// hardCut slices an unbreakable run at chunkSize rune boundaries.
func (s *Splitter) hardCut(text string) []string {
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

// mergeWithOverlap packs fragments back into chunks close to the size limit
// and prepends the overlap tail of each chunk to the next.
func (s *Splitter) mergeWithOverlap(pieces []string) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
	}

	for _, piece := range pieces {
		if current.Len() > 0 && s.length(current.String()+piece) > s.chunkSize {
			tail := s.overlapTail(current.String())
			flush()
			current.WriteString(tail)
		}
		current.WriteString(piece)
	}
	flush()
	return chunks
}

// overlapTail returns the trailing part of chunk carried into the next one,
// cut at a word boundary when possible.
func (s *Splitter) overlapTail(chunk string) string {
	if s.overlap <= 0 {
		return ""
	}
	runes := []rune(chunk)
	if len(runes) <= s.overlap {
		return chunk
	}
	tail := string(runes[len(runes)-s.overlap:])
	if i := strings.IndexAny(tail, " \n"); i >= 0 && i+1 < len(tail) {
		tail = tail[i+1:]
	}
	return tail
}
