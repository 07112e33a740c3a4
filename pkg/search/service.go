package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/ikbp/dave/backend/pkg/embed"
	"github.com/ikbp/dave/backend/pkg/logger"
	"github.com/ikbp/dave/backend/pkg/store"
)

// Retrieval profile constants. Single-document queries search deeper than
// collection-wide ones.
const (
	singleDocRRFK   = 50
	singleDocKnnK   = 50
	singleDocGather = 40

	multiDocRRFK   = 30
	multiDocKnnK   = 25
	multiDocGather = 25

	maxContextDocs     = 5
	maxChunksPerDoc    = 5
	fullDocTokenBudget = 18000
	tokenCountEncoding = "cl100k_base"
)

// fullDocKeywords trigger whole-document promotion for single-document
// queries: extraction and summarization need the full text, not chunks.
var fullDocKeywords = []string{"estrai", "riassumi"}

// Options tune one search call.
type Options struct {
	// DocIDs restricts the search; exactly one id enables single-document
	// mode with its deeper retrieval profile and full-document promotion.
	DocIDs []string
	// ForceRAG disables full-document promotion.
	ForceRAG bool
	// Deanonymized returns raw chunk text instead of the masked twin.
	Deanonymized bool
}

// Context is one retrieved text fragment handed to the consumer.
type Context struct {
	DocID string  `json:"doc_id"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Result is the outcome of a search call.
type Result struct {
	// FullDocument is set when the whole document was promoted instead of
	// chunk retrieval.
	FullDocument bool      `json:"full_document"`
	Contexts     []Context `json:"contexts"`
}

// TokenCounter measures promotion candidates. Injectable for tests.
type TokenCounter func(text string) (int, error)

type Service struct {
	store    store.DocumentStorage
	embedder embed.Embedder

	countTokens  TokenCounter
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
	encodingErr  error
}

func NewService(st store.DocumentStorage, embedder embed.Embedder, opts ...ServiceOption) *Service {
	s := &Service{store: st, embedder: embedder}
	for _, opt := range opts {
		opt(s)
	}
	if s.countTokens == nil {
		s.countTokens = s.tiktokenCount
	}
	return s
}

type ServiceOption func(*Service)

func WithTokenCounter(fn TokenCounter) ServiceOption {
	return func(s *Service) { s.countTokens = fn }
}

func (s *Service) tiktokenCount(text string) (int, error) {
	s.encodingOnce.Do(func() {
		s.encoding, s.encodingErr = tiktoken.GetEncoding(tokenCountEncoding)
	})
	if s.encodingErr != nil {
		return 0, s.encodingErr
	}
	return len(s.encoding.Encode(text, nil, nil)), nil
}

// Search runs hybrid retrieval for query. A single filtered document is
// served whole when it fits the token budget; extraction or summarization
// queries promote every retrieved document when their combined size fits.
// Everything else goes through kNN plus fulltext fused with RRF and
// diversified across documents.
func (s *Service) Search(ctx context.Context, query string, opts Options) (Result, error) {
	single := len(opts.DocIDs) == 1

	if single && !opts.ForceRAG {
		promoted, result, err := s.promoteFullDocument(ctx, opts.DocIDs[0])
		if err != nil {
			return Result{}, err
		}
		if promoted {
			return result, nil
		}
	}

	rrfK, knnK, gather := multiDocRRFK, multiDocKnnK, multiDocGather
	if single {
		rrfK, knnK, gather = singleDocRRFK, singleDocKnnK, singleDocGather
	}

	vector, err := s.embedder.GenerateEmbedding(ctx, []byte(query))
	if err != nil {
		return Result{}, fmt.Errorf("embed query: %w", err)
	}

	knnHits, err := s.store.SearchChunksByVector(ctx, vector, knnK, opts.DocIDs)
	if err != nil {
		return Result{}, fmt.Errorf("vector search: %w", err)
	}
	textHits, err := s.store.SearchChunksByText(ctx, query, gather, opts.DocIDs)
	if err != nil {
		return Result{}, fmt.Errorf("fulltext search: %w", err)
	}

	fused := FuseRanks(rrfK, knnHits, textHits)
	fused = Diversify(fused, maxContextDocs, maxChunksPerDoc)

	if !opts.ForceRAG && wantsFullDocument(query) {
		promoted, result, err := s.promoteRetrieved(ctx, fused)
		if err != nil {
			return Result{}, err
		}
		if promoted {
			return result, nil
		}
	}

	result := Result{Contexts: make([]Context, 0, len(fused))}
	for _, c := range fused {
		text := c.TextAnonymized
		if opts.Deanonymized || text == "" {
			text = c.Text
		}
		result.Contexts = append(result.Contexts, Context{DocID: c.DocID, Text: text, Score: c.Score})
	}
	return result, nil
}

// promoteFullDocument returns the whole document as a single context when it
// fits the token budget.
func (s *Service) promoteFullDocument(ctx context.Context, docID string) (bool, Result, error) {
	texts, err := s.store.GetDocumentTexts(ctx, []string{docID})
	if err != nil {
		return false, Result{}, err
	}
	text, ok := texts[docID]
	if !ok || text == "" {
		return false, Result{}, nil
	}

	tokens, err := s.countTokens(text)
	if err != nil {
		logger.Warn("token count failed, falling back to chunk retrieval", "doc", docID, "err", err)
		return false, Result{}, nil
	}
	if tokens >= fullDocTokenBudget {
		return false, Result{}, nil
	}

	logger.Debug("[Search] Promoting full document", "doc", docID, "tokens", tokens)
	return true, Result{
		FullDocument: true,
		Contexts:     []Context{{DocID: docID, Text: text}},
	}, nil
}

// promoteRetrieved serves every retrieved document whole when an extraction
// or summarization query's documents together fit the token budget.
func (s *Service) promoteRetrieved(ctx context.Context, fused []ScoredChunk) (bool, Result, error) {
	var ids []string
	seen := map[string]bool{}
	for _, c := range fused {
		if !seen[c.DocID] {
			seen[c.DocID] = true
			ids = append(ids, c.DocID)
		}
	}
	if len(ids) == 0 {
		return false, Result{}, nil
	}

	texts, err := s.store.GetDocumentTexts(ctx, ids)
	if err != nil {
		return false, Result{}, err
	}

	total := 0
	for _, id := range ids {
		text, ok := texts[id]
		if !ok || text == "" {
			return false, Result{}, nil
		}
		tokens, err := s.countTokens(text)
		if err != nil {
			logger.Warn("token count failed, falling back to chunk retrieval", "doc", id, "err", err)
			return false, Result{}, nil
		}
		total += tokens
	}
	if total > fullDocTokenBudget {
		return false, Result{}, nil
	}

	logger.Debug("[Search] Promoting retrieved documents", "docs", len(ids), "tokens", total)
	contexts := make([]Context, 0, len(ids))
	for _, id := range ids {
		contexts = append(contexts, Context{DocID: id, Text: texts[id]})
	}
	return true, Result{FullDocument: true, Contexts: contexts}, nil
}

func wantsFullDocument(query string) bool {
	lower := strings.ToLower(query)
	for _, kw := range fullDocKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
