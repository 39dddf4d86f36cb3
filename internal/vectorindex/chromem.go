package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
)

// ChromemIndex is a local, in-process implementation of Index. It exists for
// keyless development runs and tests; embeddings are always computed upstream
// and attached to the records, never by the store itself.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	dimension  int
}

// NewChromem opens (or creates) a local collection. An empty path keeps the
// store in memory only.
func NewChromem(path, collectionName string, dimension int) (*ChromemIndex, error) {
	var db *chromem.DB
	var err error
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("open chromem db at %s: %w", path, err)
		}
	}

	noEmbed := func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embeddings are computed upstream")
	}
	collection, err := db.GetOrCreateCollection(collectionName, nil, noEmbed)
	if err != nil {
		return nil, fmt.Errorf("get or create collection %s: %w", collectionName, err)
	}

	log.Info().Str("collection", collectionName).Str("path", path).Msg("Using local chromem vector store")
	return &ChromemIndex{db: db, collection: collection, dimension: dimension}, nil
}

func (c *ChromemIndex) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := checkDimension(records, c.dimension); err != nil {
		return err
	}

	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		docs[i] = chromem.Document{
			ID:        r.ID,
			Content:   r.Text,
			Embedding: r.Embedding,
			Metadata: map[string]string{
				FieldSource: r.SourceFile,
				FieldPage:   strconv.Itoa(r.Page),
			},
		}
	}

	if err := c.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add %d documents: %w", len(docs), err)
	}
	return nil
}

func (c *ChromemIndex) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = 3
	}
	// chromem rejects nResults larger than the collection.
	if count := c.collection.Count(); topK > count {
		topK = count
	}
	if topK == 0 {
		return nil, nil
	}

	results, err := c.collection.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		page, _ := strconv.Atoi(r.Metadata[FieldPage])
		matches = append(matches, Match{
			Score:      r.Similarity,
			Text:       r.Content,
			SourceFile: r.Metadata[FieldSource],
			Page:       page,
		})
	}
	return matches, nil
}

func (c *ChromemIndex) DeleteBySource(ctx context.Context, sourceFile string) error {
	if c.collection.Count() == 0 {
		return nil
	}
	if err := c.collection.Delete(ctx, map[string]string{FieldSource: sourceFile}, nil); err != nil {
		return fmt.Errorf("delete records of %s: %w", sourceFile, err)
	}
	return nil
}

func (c *ChromemIndex) Close() error {
	return nil
}
