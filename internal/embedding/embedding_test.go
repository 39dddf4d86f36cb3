package embedding

import (
	"testing"

	"medassist/internal/config"
)

func TestNewRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := New(&config.LLMConfig{BaseURL: "http://localhost:11434/v1", Model: "nomic-embed-text"}, 32)
	if err == nil {
		t.Fatal("expected an error for a missing API key")
	}
}

func TestNewBuildsEmbedder(t *testing.T) {
	emb, err := New(&config.LLMConfig{
		BaseURL: "http://localhost:11434/v1",
		Model:   "nomic-embed-text",
		Key:     "Bearer test-key",
	}, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if emb == nil {
		t.Fatal("expected an embedder instance")
	}
}
