package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/schema"

	"medassist/internal/config"
	"medassist/internal/models"
	"medassist/internal/receiver"
	"medassist/internal/vectorindex"
)

// Ingester runs the write path for one stored document.
type Ingester interface {
	IngestFile(ctx context.Context, path string) (int, error)
}

// QueryEmbedder embeds a single question.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the read side of the vector index.
type Searcher interface {
	Query(ctx context.Context, vector []float32, topK int) ([]vectorindex.Match, error)
}

// Answerer produces the final answer from a question and retrieved context.
type Answerer interface {
	Answer(ctx context.Context, question string, docs []schema.Document) (*models.Answer, error)
}

// Server wires the pipeline components behind the HTTP surface. All
// dependencies are constructed at startup and passed in explicitly.
type Server struct {
	echo      *echo.Echo
	cfg       *config.Config
	receiver  *receiver.Receiver
	ingester  Ingester
	embedder  QueryEmbedder
	index     Searcher
	generator Answerer
}

func New(cfg *config.Config, recv *receiver.Receiver, ingester Ingester, embedder QueryEmbedder, index Searcher, generator Answerer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"*"},
	}))

	// Unified JSON error envelope: anything the handlers did not convert
	// themselves ends up here instead of crashing the request.
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		log.Error().Err(err).Int("status", code).
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Msg("Request failed")
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]string{"error": msg})
		}
	}

	s := &Server{
		echo:      e,
		cfg:       cfg,
		receiver:  recv,
		ingester:  ingester,
		embedder:  embedder,
		index:     index,
		generator: generator,
	}

	e.GET("/", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.Group("/files").POST("/upload_pdfs", s.uploadPDFs)
	e.Group("/ask").POST("/ask", s.askQuestion)

	return s
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
