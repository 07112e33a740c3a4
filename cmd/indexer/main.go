// Command indexer rebuilds the retrieval index: it chunks every stored
// document, embeds the chunks with the configured provider, and swaps the
// indexed chunks in place. Person mentions are masked in the anonymized
// chunk twin served to masked consumers.
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/ikbp/dave/backend/internal/util"
	"github.com/ikbp/dave/backend/pkg/anonymize"
	"github.com/ikbp/dave/backend/pkg/chunker"
	"github.com/ikbp/dave/backend/pkg/document"
	"github.com/ikbp/dave/backend/pkg/embed"
	embedollama "github.com/ikbp/dave/backend/pkg/embed/ollama"
	embedopenai "github.com/ikbp/dave/backend/pkg/embed/openai"
	"github.com/ikbp/dave/backend/pkg/logger"
	"github.com/ikbp/dave/backend/pkg/logger/console"
	"github.com/ikbp/dave/backend/pkg/store"
	storepgx "github.com/ikbp/dave/backend/pkg/store/pgx"
)

const (
	listPageSize = 50
	embedRetries = 3
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer pool.Close()
	pool.Config().AfterConnect = func(ctx context.Context, conn *pgxv5.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	st := storepgx.NewStorage(pool)
	embedder := newEmbedder()
	splitter := chunker.New(
		chunker.WithChunkSize(util.GetEnvInt("CHUNK_SIZE", chunker.DefaultChunkSize)),
		chunker.WithOverlap(util.GetEnvInt("CHUNK_OVERLAP", chunker.DefaultChunkOverlap)),
	)

	indexed := 0
	for offset := 0; ; offset += listPageSize {
		summaries, total, err := st.ListDocuments(ctx, offset, listPageSize)
		if err != nil {
			logger.Fatal("Failed to list documents", "err", err)
		}
		if len(summaries) == 0 {
			break
		}
		for _, summary := range summaries {
			if err := indexDocument(ctx, st, embedder, splitter, summary.ID); err != nil {
				logger.Error("Failed to index document", "id", summary.ID, "err", err)
				continue
			}
			indexed++
		}
		if offset+len(summaries) >= total {
			break
		}
	}

	metrics := embedder.GetMetrics()
	logger.Info("Indexing finished",
		"documents", indexed,
		"tokens", metrics.TotalTokens,
		"duration_ms", metrics.DurationMs,
	)
}

func newEmbedder() embed.Embedder {
	adapter := util.GetEnv("AI_ADAPTER")
	switch adapter {
	case "ollama":
		client, err := embedollama.NewClient(embedollama.NewClientParams{
			EmbeddingModel:        util.GetEnvString("AI_EMBED_MODEL", "nomic-embed-text"),
			BaseURL:               util.GetEnv("AI_EMBED_URL"),
			ApiKey:                util.GetEnv("AI_EMBED_KEY"),
			TimeoutMin:            util.GetEnvInt("AI_TIMEOUT_MIN", 5),
			MaxConcurrentRequests: int64(util.GetEnvInt("AI_MAX_CONCURRENT", 2)),
		})
		if err != nil {
			logger.Fatal("Could not create Ollama client", "err", err)
		}
		return client
	case "openai":
		return embedopenai.NewClient(embedopenai.NewClientParams{
			EmbeddingModel:        util.GetEnvString("AI_EMBED_MODEL", "text-embedding-3-small"),
			BaseURL:               util.GetEnv("AI_EMBED_URL"),
			ApiKey:                util.GetEnv("AI_EMBED_KEY"),
			TimeoutMin:            util.GetEnvInt("AI_TIMEOUT_MIN", 5),
			MaxConcurrentRequests: int64(util.GetEnvInt("AI_MAX_CONCURRENT", 2)),
		})
	default:
		logger.Fatal("Unknown AI adapter", "adapter", adapter)
		return nil
	}
}

func indexDocument(
	ctx context.Context,
	st store.DocumentStorage,
	embedder embed.Embedder,
	splitter *chunker.Splitter,
	id string,
) error {
	doc, err := st.GetDocument(ctx, id)
	if err != nil {
		return err
	}

	pieces := splitter.Split(doc.Text)
	if len(pieces) == 0 {
		return st.ReplaceChunks(ctx, id, nil)
	}

	inputs := make([][]byte, len(pieces))
	for i, piece := range pieces {
		inputs[i] = []byte(piece)
	}
	vectors, err := util.RetryWithContext(ctx, embedRetries, func(ctx context.Context) ([][]float32, error) {
		return embedder.GenerateEmbeddings(ctx, inputs)
	})
	if err != nil {
		return err
	}

	mask := maskReplacer(doc)
	chunks := make([]store.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = store.Chunk{
			DocID:          id,
			Index:          i,
			Text:           piece,
			TextAnonymized: mask(piece),
			Embedding:      vectors[i],
		}
	}

	logger.Debug("[Indexer] Indexed document", "id", id, "chunks", len(chunks))
	return st.ReplaceChunks(ctx, id, chunks)
}

// maskReplacer builds a replacer masking every person mention annotated in
// the document, longest mention first so partial names do not shadow full
// ones.
func maskReplacer(doc document.Document) func(string) string {
	seen := map[string]bool{}
	var mentions []string
	for _, name := range doc.EntitySetNames() {
		for _, ann := range doc.AnnotationSets[name].Annotations {
			mention := ann.Features.Mention
			if mention == "" || !anonymize.ShouldMask(ann.Type) || seen[mention] {
				continue
			}
			seen[mention] = true
			mentions = append(mentions, mention)
		}
	}
	if len(mentions) == 0 {
		return func(s string) string { return s }
	}

	// Longest first.
	for i := 1; i < len(mentions); i++ {
		for j := i; j > 0 && len(mentions[j]) > len(mentions[j-1]); j-- {
			mentions[j], mentions[j-1] = mentions[j-1], mentions[j]
		}
	}
	pairs := make([]string, 0, len(mentions)*2)
	for _, mention := range mentions {
		pairs = append(pairs, mention, anonymize.Mask(mention))
	}
	replacer := strings.NewReplacer(pairs...)
	return replacer.Replace
}
