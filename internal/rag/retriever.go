package rag

import (
	"context"

	"github.com/tmc/langchaingo/schema"

	"medassist/internal/vectorindex"
)

// StaticRetriever exposes an already-ranked document set through the generic
// retriever capability. Ranking happened at the vector index, so the query
// argument is ignored; a future implementation may re-rank here.
type StaticRetriever struct {
	docs []schema.Document
}

var _ schema.Retriever = StaticRetriever{}

func NewStaticRetriever(docs []schema.Document) StaticRetriever {
	return StaticRetriever{docs: docs}
}

func (r StaticRetriever) GetRelevantDocuments(_ context.Context, _ string) ([]schema.Document, error) {
	return r.docs, nil
}

// DocumentsFromMatches converts index matches into retriever documents,
// preserving retrieval order and source metadata.
func DocumentsFromMatches(matches []vectorindex.Match) []schema.Document {
	docs := make([]schema.Document, 0, len(matches))
	for _, m := range matches {
		docs = append(docs, schema.Document{
			PageContent: m.Text,
			Metadata: map[string]any{
				"source_file": m.SourceFile,
				"page":        m.Page,
			},
			Score: m.Score,
		})
	}
	return docs
}
