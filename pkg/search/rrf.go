// Package search implements hybrid retrieval over the chunk index: vector
// and fulltext ranks fused with reciprocal rank fusion, diversified across
// documents, with whole-document promotion for short documents when the
// query asks for extraction or summarization.
package search

import (
	"sort"

	"github.com/ikbp/dave/backend/pkg/store"
)

// ChunkRef identifies a chunk across rank lists. Two hits referring to the
// same chunk fuse into one entry.
type ChunkRef struct {
	DocID          string
	Text           string
	TextAnonymized string
}

// ScoredChunk is a fused chunk with its reciprocal rank fusion score.
type ScoredChunk struct {
	ChunkRef
	Score float64
}

// FuseRanks merges rank lists with reciprocal rank fusion: each chunk gets
// the sum of 1/(k + rank) over the lists it appears in. Output is sorted by
// fused score descending, ties by document then text for determinism.
func FuseRanks(k int, ranks ...[]store.ChunkHit) []ScoredChunk {
	if k <= 0 {
		k = 60
	}

	scores := map[ChunkRef]float64{}
	for _, list := range ranks {
		for rank, hit := range list {
			ref := ChunkRef{DocID: hit.DocID, Text: hit.Text, TextAnonymized: hit.TextAnonymized}
			scores[ref] += 1.0 / float64(k+rank+1)
		}
	}

	out := make([]ScoredChunk, 0, len(scores))
	for ref, score := range scores {
		out = append(out, ScoredChunk{ChunkRef: ref, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].DocID != out[j].DocID {
			return out[i].DocID < out[j].DocID
		}
		return out[i].Text < out[j].Text
	})
	return out
}

// Diversify caps the fused list at maxDocs distinct documents and perDoc
// chunks per document, preserving fused order. Chunks of documents beyond
// the cap are dropped.
func Diversify(chunks []ScoredChunk, maxDocs, perDoc int) []ScoredChunk {
	if maxDocs <= 0 || perDoc <= 0 {
		return chunks
	}

	perDocCount := map[string]int{}
	var out []ScoredChunk
	for _, c := range chunks {
		count, seen := perDocCount[c.DocID]
		if !seen && len(perDocCount) >= maxDocs {
			continue
		}
		if count >= perDoc {
			continue
		}
		perDocCount[c.DocID] = count + 1
		out = append(out, c)
	}
	return out
}
