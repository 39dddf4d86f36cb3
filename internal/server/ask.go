package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"medassist/internal/rag"
)

// askQuestion runs the read path: embed the question, query the index, wrap
// the matches and invoke the answer chain.
func (s *Server) askQuestion(c echo.Context) error {
	question := strings.TrimSpace(c.FormValue("question"))
	if question == "" {
		asksTotal.WithLabelValues(outcomeRejected).Inc()
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "question is required"})
	}

	ctx := c.Request().Context()
	log.Info().Str("question", question).Msg("User query")

	vector, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return s.askError(c, err, "embed question")
	}

	matches, err := s.index.Query(ctx, vector, s.cfg.RAG.TopK)
	if err != nil {
		return s.askError(c, err, "query index")
	}

	answer, err := s.generator.Answer(ctx, question, rag.DocumentsFromMatches(matches))
	if err != nil {
		return s.askError(c, err, "generate answer")
	}

	asksTotal.WithLabelValues(outcomeOK).Inc()
	log.Info().Int("sources", len(answer.Sources)).Msg("Query successful")
	return c.JSON(http.StatusOK, answer)
}

func (s *Server) askError(c echo.Context, err error, stage string) error {
	asksTotal.WithLabelValues(outcomeError).Inc()
	log.Error().Err(err).Str("stage", stage).Msg("Ask failed")
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
