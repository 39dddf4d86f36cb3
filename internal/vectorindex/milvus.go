package vectorindex

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
	"github.com/rs/zerolog/log"

	"medassist/internal/config"
)

const (
	idMaxLength   = "255"
	textMaxLength = "65535"

	readyPollInterval = time.Second
)

// MilvusIndex is the remote vector collection client.
type MilvusIndex struct {
	client     *milvusclient.Client
	collection string
	dimension  int
	metric     entity.MetricType
}

// NewMilvus connects to Milvus and gets-or-creates the collection with the
// declared dimension and metric, waiting until the service reports it loaded.
func NewMilvus(ctx context.Context, cfg *config.VectorConfig) (*MilvusIndex, error) {
	log.Info().Str("address", cfg.Address).Str("collection", cfg.Collection).Int("dimension", cfg.Dimension).Msg("Connecting to Milvus")

	cli, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address: cfg.Address,
		APIKey:  cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to milvus: %w", err)
	}

	m := &MilvusIndex{
		client:     cli,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		metric:     entity.MetricType(strings.ToUpper(cfg.Metric)),
	}
	if m.metric == "" {
		m.metric = entity.COSINE
	}

	readyTimeout := time.Duration(cfg.ReadyTimeoutSec) * time.Second
	if err := m.ensureCollection(ctx, readyTimeout); err != nil {
		_ = cli.Close(ctx)
		return nil, err
	}
	return m, nil
}

func (m *MilvusIndex) ensureCollection(ctx context.Context, readyTimeout time.Duration) error {
	exists, err := m.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(m.collection))
	if err != nil {
		return fmt.Errorf("check collection %s: %w", m.collection, err)
	}

	if !exists {
		schema := &entity.Schema{
			CollectionName: m.collection,
			Description:    "Document chunks for retrieval",
			Fields: []*entity.Field{
				{
					Name:       FieldID,
					DataType:   entity.FieldTypeVarChar,
					PrimaryKey: true,
					AutoID:     false,
					TypeParams: map[string]string{"max_length": idMaxLength},
				},
				{
					Name:       FieldText,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": textMaxLength},
				},
				{
					Name:       FieldSource,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": idMaxLength},
				},
				{
					Name:     FieldPage,
					DataType: entity.FieldTypeInt64,
				},
				{
					Name:       FieldVector,
					DataType:   entity.FieldTypeFloatVector,
					TypeParams: map[string]string{"dim": fmt.Sprintf("%d", m.dimension)},
				},
			},
		}

		if err := m.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(m.collection, schema)); err != nil {
			return fmt.Errorf("create collection %s: %w", m.collection, err)
		}

		vecIdx := index.NewHNSWIndex(m.metric, 16, 200)
		if _, err := m.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(m.collection, FieldVector, vecIdx)); err != nil {
			return fmt.Errorf("create vector index on %s: %w", m.collection, err)
		}

		log.Info().Str("collection", m.collection).Msg("Created collection")
	}

	if _, err := m.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(m.collection)); err != nil {
		return fmt.Errorf("load collection %s: %w", m.collection, err)
	}

	return m.waitReady(ctx, readyTimeout)
}

// waitReady polls the load state at a fixed interval. The deadline keeps a
// stuck remote service from blocking startup forever.
func (m *MilvusIndex) waitReady(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = time.Minute
	}
	deadline := time.Now().Add(timeout)

	for {
		state, err := m.client.GetLoadState(ctx, milvusclient.NewGetLoadStateOption(m.collection))
		if err != nil {
			return fmt.Errorf("get load state of %s: %w", m.collection, err)
		}
		if state.State == entity.LoadStateLoaded {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("collection %s not ready after %s", m.collection, timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(readyPollInterval):
		}
	}
}

// Upsert writes a batch of records keyed by chunk id. The dimension check
// runs before any network write so a mismatch can never truncate or pad.
func (m *MilvusIndex) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := checkDimension(records, m.dimension); err != nil {
		return err
	}

	ids := make([]string, len(records))
	texts := make([]string, len(records))
	sources := make([]string, len(records))
	pages := make([]int64, len(records))
	vectors := make([][]float32, len(records))
	for i, r := range records {
		ids[i] = r.ID
		texts[i] = r.Text
		sources[i] = r.SourceFile
		pages[i] = int64(r.Page)
		vectors[i] = r.Embedding
	}

	cols := []column.Column{
		column.NewColumnVarChar(FieldID, ids),
		column.NewColumnVarChar(FieldText, texts),
		column.NewColumnVarChar(FieldSource, sources),
		column.NewColumnInt64(FieldPage, pages),
		column.NewColumnFloatVector(FieldVector, m.dimension, vectors),
	}

	if _, err := m.client.Upsert(ctx, milvusclient.NewColumnBasedInsertOption(m.collection, cols...)); err != nil {
		return fmt.Errorf("upsert %d records: %w", len(records), err)
	}

	log.Debug().Int("records", len(records)).Str("collection", m.collection).Msg("Upserted vectors")
	return nil
}

// Query returns the topK nearest records with their stored metadata. It is
// read-only with respect to index state.
func (m *MilvusIndex) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = 3
	}

	opt := milvusclient.NewSearchOption(m.collection, topK, []entity.Vector{entity.FloatVector(vector)}).
		WithANNSField(FieldVector).
		WithOutputFields(FieldText, FieldSource, FieldPage)

	results, err := m.client.Search(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", m.collection, err)
	}

	var matches []Match
	for _, rs := range results {
		textCol := rs.GetColumn(FieldText)
		sourceCol := rs.GetColumn(FieldSource)
		pageCol := rs.GetColumn(FieldPage)

		for i := 0; i < rs.ResultCount; i++ {
			match := Match{}
			if i < len(rs.Scores) {
				match.Score = rs.Scores[i]
			}
			if textCol != nil {
				if v, err := textCol.GetAsString(i); err == nil {
					match.Text = v
				}
			}
			if sourceCol != nil {
				if v, err := sourceCol.GetAsString(i); err == nil {
					match.SourceFile = v
				}
			}
			if pageCol != nil {
				if v, err := pageCol.GetAsInt64(i); err == nil {
					match.Page = int(v)
				}
			}
			matches = append(matches, match)
		}
	}
	return matches, nil
}

// DeleteBySource removes every record ingested from the given file, so a
// re-upload never leaves stale vectors from a previous revision behind.
func (m *MilvusIndex) DeleteBySource(ctx context.Context, sourceFile string) error {
	expr := fmt.Sprintf("%s == %q", FieldSource, sourceFile)
	if _, err := m.client.Delete(ctx, milvusclient.NewDeleteOption(m.collection).WithExpr(expr)); err != nil {
		return fmt.Errorf("delete records of %s: %w", sourceFile, err)
	}
	return nil
}

func (m *MilvusIndex) Close() error {
	return m.client.Close(context.Background())
}
