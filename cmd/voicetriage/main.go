package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voicetriage/voicetriage/internal/api"
	"github.com/voicetriage/voicetriage/internal/audio"
	"github.com/voicetriage/voicetriage/internal/classification"
	"github.com/voicetriage/voicetriage/internal/config"
	"github.com/voicetriage/voicetriage/internal/pipeline"
	"github.com/voicetriage/voicetriage/internal/store"
	"github.com/voicetriage/voicetriage/internal/transcription"
	"github.com/voicetriage/voicetriage/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// Configuration errors are fatal here, never at request time.
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting VoiceTriage",
		logger.String("providers_mode", cfg.Providers.Mode),
		logger.String("storage_backend", cfg.Storage.Backend),
	)

	var recordStore store.Store
	switch cfg.Storage.Backend {
	case "sqlite":
		sqliteStore, err := store.OpenSQLite(cfg.Storage.Path, log)
		if err != nil {
			return fmt.Errorf("failed to open record store: %w", err)
		}
		defer sqliteStore.Close()
		recordStore = sqliteStore
	default:
		recordStore = store.NewMemoryStore()
	}

	var (
		transcriber transcription.Transcriber
		classifier  classification.Classifier
	)
	if cfg.Providers.Mode == "live" {
		transcriber = transcription.NewOpenAITranscriber(
			cfg.Providers.OpenAI.APIKey,
			cfg.Providers.OpenAI.Model,
			log,
		)
		classifier = classification.NewAnthropicClassifier(
			cfg.Providers.Anthropic.APIKey,
			cfg.Providers.Anthropic.Model,
			cfg.Providers.Anthropic.MaxTokens,
			log,
		)
	} else {
		transcriber = transcription.StubTranscriber{}
		classifier = &classification.StubClassifier{}
	}

	fetcher := audio.NewFetcher(
		time.Duration(cfg.Twilio.FetchTimeoutSecs)*time.Second,
		cfg.Twilio.AccountSID,
		cfg.Twilio.AuthToken,
		cfg.Twilio.FetchMaxRetries,
		log,
	)

	p := pipeline.New(
		transcriber,
		classifier,
		fetcher,
		recordStore,
		time.Duration(cfg.Providers.TimeoutSeconds)*time.Second,
		log,
	)

	router := api.NewRouter(p, recordStore, cfg, log)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-sigCh:
		log.Info("Shutting down", logger.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}
