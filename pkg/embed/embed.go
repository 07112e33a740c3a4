// Package embed defines the embedding client interface shared by the
// indexing pipeline and the search service, with backends for Ollama and
// OpenAI-compatible APIs in subpackages.
package embed

import (
	"context"

	"github.com/ikbp/dave/backend/internal/util"
)

// DefaultDimensions is the vector width of the chunk index. Override with
// AI_EMBED_DIM when the embedding model emits a different width.
const DefaultDimensions = 768

// Dimensions returns the configured embedding width.
func Dimensions() int {
	return util.GetEnvInt("AI_EMBED_DIM", DefaultDimensions)
}

// Embedder generates vector embeddings for text. Empty inputs yield
// zero vectors of the configured width rather than errors, so callers can
// embed chunk batches without pre-filtering.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error)
	GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error)

	ResetMetrics()
	GetMetrics() ModelMetrics
}

// ModelMetrics accumulates token usage and timing across embedding calls.
type ModelMetrics struct {
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	TotalTokens    int     `json:"total_tokens"`
	DurationMs     int64   `json:"duration_ms"`
	TokenPerSecond float32 `json:"tokens_per_second"`
}

// NormalizeInputs splits a batch into blank entries, which get zero vectors
// of width dim immediately, and the remaining strings to send to the model.
// idxMap maps positions in stringsIn back to positions in out.
func NormalizeInputs(inputs [][]byte, dim int) (idxMap []int, stringsIn []string, out [][]float32) {
	idxMap = make([]int, 0, len(inputs))
	stringsIn = make([]string, 0, len(inputs))
	out = make([][]float32, len(inputs))
	for i, in := range inputs {
		if isBlank(in) {
			out[i] = make([]float32, dim)
			continue
		}
		idxMap = append(idxMap, i)
		stringsIn = append(stringsIn, string(in))
	}
	return idxMap, stringsIn, out
}

// FitVector pads or truncates vec to dim entries.
func FitVector(vec []float64, dim int) []float32 {
	out := make([]float32, dim)
	for i, v := range vec {
		if i >= dim {
			break
		}
		out[i] = float32(v)
	}
	return out
}

func isBlank(in []byte) bool {
	for _, b := range in {
		switch b {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
