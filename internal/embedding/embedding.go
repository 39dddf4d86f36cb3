package embedding

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"medassist/internal/config"
)

const defaultBatchSize = 32

// New builds the embedder against an OpenAI-compatible endpoint. It is
// constructed exactly once at startup and shared for the process lifetime;
// the batch size bounds how many chunks go to the service per call.
func New(cfg *config.LLMConfig, batchSize int) (*embeddings.EmbedderImpl, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	log.Debug().
		Str("base_url", cfg.BaseURL).
		Str("embedding_model", cfg.Model).
		Int("batch_size", batchSize).
		Msg("Initializing embedder")

	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}

	return embeddings.NewEmbedder(llm,
		embeddings.WithBatchSize(batchSize),
		embeddings.WithStripNewLines(true),
	)
}
