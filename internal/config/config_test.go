package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MILVUS_ADDRESS", "https://example.milvus.io:19530")
	t.Setenv("MILVUS_API_KEY", "key")
	t.Setenv("MILVUS_COLLECTION", "medical-index")
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("EMBEDDINGS_API_KEY", "emb_test")
	t.Setenv("EMBEDDING_DIM", "")
}

func TestLoadAppliesDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.MaxUploadMB != 10 {
		t.Errorf("MaxUploadMB = %d", cfg.Server.MaxUploadMB)
	}
	if cfg.RAG.ChunkSize != 500 || cfg.RAG.ChunkOverlap != 50 {
		t.Errorf("chunking = %d/%d", cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	}
	if cfg.RAG.TopK != 3 || cfg.RAG.BatchSize != 32 {
		t.Errorf("topK/batch = %d/%d", cfg.RAG.TopK, cfg.RAG.BatchSize)
	}
	if cfg.Vector.Provider != ProviderMilvus || cfg.Vector.Dimension != 768 || cfg.Vector.Metric != "COSINE" {
		t.Errorf("vector = %+v", cfg.Vector)
	}
	if cfg.LLM.Model != "llama-3.1-8b-instant" {
		t.Errorf("LLM model = %q", cfg.LLM.Model)
	}
}

func TestLoadReadsYAMLOverrides(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  addr: ":9090"
  max_upload_mb: 25
rag:
  chunk_size: 1000
  top_k: 5
vector:
  dimension: 1536
llm:
  model: mixtral-8x7b
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" || cfg.Server.MaxUploadMB != 25 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.RAG.ChunkSize != 1000 || cfg.RAG.TopK != 5 {
		t.Errorf("rag = %+v", cfg.RAG)
	}
	if cfg.RAG.ChunkOverlap != 50 {
		t.Errorf("unset overlap should default, got %d", cfg.RAG.ChunkOverlap)
	}
	if cfg.Vector.Dimension != 1536 {
		t.Errorf("dimension = %d", cfg.Vector.Dimension)
	}
	if cfg.LLM.Model != "mixtral-8x7b" {
		t.Errorf("LLM model = %q", cfg.LLM.Model)
	}
}

func TestLoadReportsAllMissingEnv(t *testing.T) {
	t.Setenv("MILVUS_ADDRESS", "")
	t.Setenv("MILVUS_API_KEY", "")
	t.Setenv("MILVUS_COLLECTION", "")
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("EMBEDDINGS_API_KEY", "")
	t.Setenv("EMBEDDING_DIM", "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, name := range []string{"MILVUS_ADDRESS", "MILVUS_API_KEY", "MILVUS_COLLECTION", "GROQ_API_KEY", "EMBEDDINGS_API_KEY"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not name %s", err, name)
		}
	}
}

func TestChromemProviderSkipsMilvusEnv(t *testing.T) {
	t.Setenv("MILVUS_ADDRESS", "")
	t.Setenv("MILVUS_API_KEY", "")
	t.Setenv("MILVUS_COLLECTION", "")
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("EMBEDDINGS_API_KEY", "emb_test")
	t.Setenv("EMBEDDING_DIM", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("vector:\n  provider: chromem\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Vector.Collection != "medical-index" {
		t.Errorf("collection = %q", cfg.Vector.Collection)
	}
}

func TestEmbeddingDimOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EMBEDDING_DIM", "384")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Vector.Dimension != 384 {
		t.Errorf("dimension = %d", cfg.Vector.Dimension)
	}

	t.Setenv("EMBEDDING_DIM", "zero")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a non-numeric dimension")
	}
}

func TestUnknownProviderRejected(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("vector:\n  provider: pinecone\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unknown provider")
	}
}
