package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"medassist/internal/models"
	"medassist/internal/vectorindex"
)

// Parser produces chunks from a stored document.
type Parser interface {
	Parse(path string) ([]models.Chunk, error)
}

// Embedder is the subset of the embedding client the pipeline needs.
// Batching happens inside the embedder.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Service runs the write path: parse, embed, clear stale vectors, upsert.
type Service struct {
	parser   Parser
	embedder Embedder
	index    vectorindex.Index
}

func NewService(parser Parser, embedder Embedder, index vectorindex.Index) *Service {
	return &Service{parser: parser, embedder: embedder, index: index}
}

// IngestFile processes one stored document end to end and returns the number
// of vectors written. Processing is sequential per file; any failure aborts
// the request with nothing retried.
func (s *Service) IngestFile(ctx context.Context, path string) (int, error) {
	chunks, err := s.parser.Parse(path)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(chunks) == 0 {
		log.Warn().Str("file", path).Msg("No chunks extracted")
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	log.Info().Str("file", path).Int("chunks", len(chunks)).Msg("Embedding chunks")
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed %s: %w", path, err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	stem := fileStem(path)
	records := make([]vectorindex.Record, len(chunks))
	for i, c := range chunks {
		records[i] = vectorindex.Record{
			ID:         fmt.Sprintf("%s-%d", stem, c.Seq),
			Embedding:  vectors[i],
			Text:       c.Text,
			SourceFile: c.SourceFile,
			Page:       c.Page,
		}
	}

	// Clear vectors from any previous revision of this file before writing,
	// so a shrinking chunk count cannot leave orphans behind.
	if err := s.index.DeleteBySource(ctx, path); err != nil {
		return 0, fmt.Errorf("clear stale vectors of %s: %w", path, err)
	}

	log.Info().Str("file", path).Int("vectors", len(records)).Msg("Uploading vectors")
	if err := s.index.Upsert(ctx, records); err != nil {
		return 0, fmt.Errorf("upsert %s: %w", path, err)
	}

	log.Info().Str("file", path).Msg("Upload complete")
	return len(records), nil
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
