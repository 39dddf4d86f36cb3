package vectorindex

import (
	"context"
	"fmt"
)

// Field names persisted alongside each vector.
const (
	FieldID     = "id"
	FieldText   = "text"
	FieldSource = "source_file"
	FieldPage   = "page"
	FieldVector = "embedding"
)

// Record is one chunk ready for upsert. The ID (`{stem}-{seq}`) acts as the
// natural deduplication key; the index owns the data after upload.
type Record struct {
	ID         string
	Embedding  []float32
	Text       string
	SourceFile string
	Page       int
}

// Match is one nearest-neighbor hit with its stored metadata.
type Match struct {
	Score      float32
	Text       string
	SourceFile string
	Page       int
}

// Index abstracts the vector collection so the pipeline can run against the
// remote service or a local store interchangeably.
type Index interface {
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
	DeleteBySource(ctx context.Context, sourceFile string) error
	Close() error
}

// checkDimension enforces the invariant that every embedding matches the
// collection's declared dimensionality before anything is written.
func checkDimension(records []Record, dim int) error {
	for _, r := range records {
		if len(r.Embedding) != dim {
			return fmt.Errorf("record %s: embedding dimension %d does not match index dimension %d", r.ID, len(r.Embedding), dim)
		}
	}
	return nil
}
