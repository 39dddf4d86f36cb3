package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"medassist/internal/config"
	"medassist/internal/embedding"
	"medassist/internal/ingest"
	"medassist/internal/parser"
	"medassist/internal/rag"
	"medassist/internal/receiver"
	"medassist/internal/server"
	"medassist/internal/vectorindex"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	configPath := flag.String("config", "./configs/config.yaml", "path to config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Loading configuration failed")
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("Server exited")
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	embedder, err := embedding.New(&cfg.Embedding, cfg.RAG.BatchSize)
	if err != nil {
		return fmt.Errorf("create embedder: %w", err)
	}

	index, err := newIndex(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create vector index: %w", err)
	}
	defer func() {
		if err := index.Close(); err != nil {
			log.Error().Err(err).Msg("Closing vector index failed")
		}
	}()

	generator, err := rag.NewGenerator(&cfg.LLM)
	if err != nil {
		return fmt.Errorf("create generator: %w", err)
	}

	recv, err := receiver.New(cfg.Server.UploadDir, cfg.Server.MaxUploadMB)
	if err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	ingester := ingest.NewService(parser.New(parser.Config{
		ChunkSize:    cfg.RAG.ChunkSize,
		ChunkOverlap: cfg.RAG.ChunkOverlap,
	}), embedder, index)

	srv := server.New(cfg, recv, ingester, embedder, index, generator)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("provider", cfg.Vector.Provider).Msg("Starting server")
		if err := srv.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newIndex(ctx context.Context, cfg *config.Config) (vectorindex.Index, error) {
	switch cfg.Vector.Provider {
	case config.ProviderMilvus:
		return vectorindex.NewMilvus(ctx, &cfg.Vector)
	case config.ProviderChromem:
		return vectorindex.NewChromem(cfg.Vector.ChromemPath, cfg.Vector.Collection, cfg.Vector.Dimension)
	default:
		return nil, fmt.Errorf("unknown vector provider %q", cfg.Vector.Provider)
	}
}
