// Command importer loads exported document JSON files into the store:
// it normalizes text, assigns content-hash ids, merges duplicate clusters,
// optionally auto-annotates documents that ship without entity sets, and
// verifies that the annotations project cleanly over the text.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/go-playground/validator"
	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/ikbp/dave/backend/internal/util"
	"github.com/ikbp/dave/backend/pkg/annotation"
	"github.com/ikbp/dave/backend/pkg/cluster"
	"github.com/ikbp/dave/backend/pkg/document"
	"github.com/ikbp/dave/backend/pkg/extract"
	"github.com/ikbp/dave/backend/pkg/logger"
	"github.com/ikbp/dave/backend/pkg/logger/console"
	"github.com/ikbp/dave/backend/pkg/projection"
	storepgx "github.com/ikbp/dave/backend/pkg/store/pgx"
	"github.com/ikbp/dave/backend/pkg/taxonomy"
	"github.com/ikbp/dave/backend/pkg/typemap"
)

const previewRunes = 400

type importDocument struct {
	Name           string                     `json:"name" validate:"required"`
	Text           string                     `json:"text" validate:"required"`
	AnnotationSets map[string]*annotation.Set `json:"annotation_sets"`
	Features       document.Features          `json:"features"`
}

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	if len(os.Args) < 2 {
		logger.Fatal("usage: importer <directory>")
	}
	dir := os.Args[1]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	databaseURL := util.GetEnv("DATABASE_URL")
	if err := storepgx.Migrate(databaseURL); err != nil {
		logger.Fatal("Failed to run migrations", "err", err)
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer pool.Close()
	pool.Config().AfterConnect = func(ctx context.Context, conn *pgxv5.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	st := storepgx.NewStorage(pool)

	tax, err := taxonomy.New(taxonomy.DefaultSeed())
	if err != nil {
		logger.Fatal("Failed to build taxonomy", "err", err)
	}
	norm := typemap.NewMapper(typemap.WithDisabled(!util.GetEnvBool("TYPE_NORMALIZATION", true)))
	autoAnnotate := util.GetEnvBool("AUTO_ANNOTATE", false)
	extractor := extract.New(norm)
	validate := validator.New()

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Fatal("Failed to read import directory", "dir", dir, "err", err)
	}

	imported := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		docs, err := readImportFile(path)
		if err != nil {
			logger.Error("Skipping unreadable file", "file", path, "err", err)
			continue
		}

		for _, in := range docs {
			if err := validate.Struct(in); err != nil {
				logger.Error("Skipping invalid document", "file", path, "err", err)
				continue
			}
			doc, err := prepare(in, tax, norm, extractor, autoAnnotate)
			if err != nil {
				logger.Error("Skipping document", "file", path, "name", in.Name, "err", err)
				continue
			}
			if err := st.SaveDocument(ctx, doc); err != nil {
				logger.Error("Failed to save document", "id", doc.ID, "err", err)
				continue
			}
			imported++
			logger.Info("Imported document", "id", doc.ID, "name", doc.Name)
		}
	}

	logger.Info("Import finished", "documents", imported)
}

// readImportFile accepts either a single document object or an array.
func readImportFile(path string) ([]importDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var single importDocument
	if err := json.Unmarshal(data, &single); err == nil && single.Text != "" {
		return []importDocument{single}, nil
	}
	var many []importDocument
	if err := json.Unmarshal(data, &many); err != nil {
		return nil, err
	}
	return many, nil
}

func prepare(
	in importDocument,
	tax *taxonomy.Taxonomy,
	norm *typemap.Mapper,
	extractor *extract.Extractor,
	autoAnnotate bool,
) (document.Document, error) {
	text := util.StripSurrogates(in.Text)

	doc := document.Document{
		ID:             util.HashText(text),
		Name:           in.Name,
		Text:           text,
		Preview:        util.Preview(text, previewRunes),
		OffsetType:     "p",
		AnnotationSets: in.AnnotationSets,
		Features:       in.Features,
	}
	if doc.AnnotationSets == nil {
		doc.AnnotationSets = map[string]*annotation.Set{}
	}
	if doc.Features.Clusters == nil {
		doc.Features.Clusters = map[string][]cluster.Cluster{}
	}

	for name, set := range doc.AnnotationSets {
		set.Name = name
		annotation.SortByStart(set.Annotations)
		maxID := 0
		for _, a := range set.Annotations {
			if a.ID > maxID {
				maxID = a.ID
			}
		}
		if set.NextAnnID <= maxID {
			set.NextAnnID = maxID + 1
		}
	}
	for name, clusters := range doc.Features.Clusters {
		doc.Features.Clusters[name] = cluster.MergeDuplicates(clusters)
	}

	if autoAnnotate && len(doc.EntitySetNames()) == 0 {
		set, err := extractor.Annotate(annotation.EntitySetPrefix+"auto", doc.Text)
		if err != nil {
			return document.Document{}, err
		}
		doc.AnnotationSets[set.Name] = set
		for _, a := range set.Annotations {
			doc.Features.Clusters[set.Name], _ = cluster.AddMention(
				doc.Features.Clusters[set.Name], norm, a.Type, a.Features.Mention, a.ID)
		}
	}

	document.AugmentTaxonomy(&doc, tax)
	verifyProjection(doc)
	return doc, nil
}

// verifyProjection checks the coverage property once at import time: the
// projected nodes must reconstruct the text exactly. Failures are logged,
// not fatal, so a single malformed set does not block an import run.
func verifyProjection(doc document.Document) {
	sections := doc.Sections()
	for _, name := range doc.EntitySetNames() {
		set := doc.AnnotationSets[name]
		nodes := projection.Project(doc.Text, set.Annotations, sections, projection.Options{Deanonymized: true})
		if got := projection.Reconstruct(nodes); got != doc.Text {
			logger.Warn("annotation set does not project cleanly", "id", doc.ID, "set", name)
		}
	}
}
