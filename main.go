package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/felo/mailnorm/internal/config"
	"github.com/felo/mailnorm/internal/handlers"
	"github.com/felo/mailnorm/internal/indexer"
	"github.com/felo/mailnorm/internal/parser"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	dir := flag.String("dir", "", "normalize every *.json payload below this directory and exit")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := newLogger(cfg.Log)
	normalizer := parser.New(cfg.ReplyConfig())

	if *dir != "" {
		if err := runBatch(normalizer, cfg, *dir, os.Stdout, log); err != nil {
			log.Fatal().Err(err).Str("dir", *dir).Msg("Batch normalization failed")
		}
		return
	}

	serve(normalizer, cfg, log)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load(), nil
	}
	return config.LoadFromFile(path)
}

// newLogger builds the process logger from the logging settings
func newLogger(c config.LogConfig) zerolog.Logger {
	var out io.Writer = os.Stderr
	if c.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(c.Level)
	if err != nil || c.Level == "" {
		level = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// runBatch normalizes the payload files below dir and writes one JSON
// entry per line to out
func runBatch(normalizer *parser.Normalizer, cfg *config.Config, dir string, out io.Writer, log zerolog.Logger) error {
	idx := indexer.NewIndexer(normalizer, dir, log)
	if cfg.Workers > 0 {
		idx = idx.WithConcurrency(cfg.Workers)
	}

	result, err := idx.IndexAll()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	for _, entry := range result.Entries {
		if err := enc.Encode(entry); err != nil {
			return err
		}
	}

	log.Info().
		Int("found", result.TotalFound).
		Int("normalized", result.Normalized).
		Int("failed", result.Failed).
		Msg("Batch complete")
	return nil
}

func serve(normalizer *parser.Normalizer, cfg *config.Config, log zerolog.Logger) {
	h := handlers.New(normalizer, log)

	// Create shutdown signal channel
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      h.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("url", cfg.URL()).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	log.Info().Msg("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Server stopped")
}
