package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/prompts"
	"github.com/tmc/langchaingo/schema"

	"medassist/internal/config"
	"medassist/internal/models"
)

// Generator turns a question plus retrieved context into an answer with
// cited sources. One completion client is built at startup and reused.
type Generator struct {
	llm    *openai.LLM
	prompt prompts.PromptTemplate
}

func NewGenerator(cfg *config.LLMConfig) (*Generator, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("init completion client: %w", err)
	}

	prompt := prompts.NewPromptTemplate(models.QAPromptTemplate, []string{"context", "question"})
	return &Generator{llm: llm, prompt: prompt}, nil
}

// Answer invokes the QA chain over the supplied documents. With no documents
// the fixed fallback sentence is returned directly, never a fabricated
// answer. Temperature is pinned to 0 for maximal determinism.
func (g *Generator) Answer(ctx context.Context, question string, docs []schema.Document) (*models.Answer, error) {
	if len(docs) == 0 {
		return &models.Answer{Response: models.FallbackAnswer, Sources: []models.Source{}}, nil
	}

	qa := chains.NewRetrievalQA(
		chains.NewStuffDocuments(chains.NewLLMChain(g.llm, g.prompt)),
		NewStaticRetriever(docs),
	)
	qa.ReturnSourceDocuments = true

	out, err := chains.Call(ctx, qa, map[string]any{"query": question}, chains.WithTemperature(0))
	if err != nil {
		log.Error().Err(err).Str("question", question).Msg("Completion request failed")
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	text, _ := out["text"].(string)
	answer := &models.Answer{
		Response: strings.TrimSpace(text),
		Sources:  []models.Source{},
	}

	sourceDocs, _ := out["source_documents"].([]schema.Document)
	for _, d := range sourceDocs {
		src := models.Source{Content: d.PageContent}
		if v, ok := d.Metadata["source_file"].(string); ok {
			src.File = v
		}
		if v, ok := d.Metadata["page"].(int); ok {
			src.Page = v
		}
		answer.Sources = append(answer.Sources, src)
	}
	return answer, nil
}
