package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/aman-zulfiqar/coinquery/internal/app"
	"github.com/aman-zulfiqar/coinquery/internal/config"
	"github.com/aman-zulfiqar/coinquery/internal/server"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main is the entry point for the API server
// It wires the ask pipeline and starts the HTTP server with graceful shutdown
func main() {
	boot := logrus.New()
	boot.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	// load .env BEFORE anything reads os.Getenv
	loadEnv(boot)

	// Load and validate configuration from environment variables
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		boot.WithError(err).Fatal("invalid configuration")
	}
	logger := cfg.NewLogger()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown (Ctrl+C, SIGTERM)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Pipeline, optional Redis and ClickHouse sinks, optional Whisper
	registry := prometheus.NewRegistry()
	a, err := app.New(ctx, cfg, logger, app.Options{
		Sinks:       true,
		Transcriber: true,
		Registerer:  registry,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to build ask pipeline")
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.WithError(err).Warn("failed to close connections")
		}
	}()

	h := &server.Handlers{
		Asker:       a.Pipeline,
		Transcriber: a.SpeechTranscriber(),
		Cache:       a.AskCache(),
		Metrics:     a.Metrics,
		DevMode:     cfg.DevMode,
		Logger:      logger,
		AskTimeout:  cfg.GenerateTimeout * 2,
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:         cfg.APIAddr,
			DevMode:      cfg.DevMode,
			APIKey:       cfg.APIKey,
			AskRateLimit: cfg.AskRateLimit,
			AskRateBurst: cfg.AskRateBurst,
			Gatherer:     registry,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	// Setup graceful shutdown in a separate goroutine
	go func() {
		<-sigCh // Wait for shutdown signal
		logger.Info("shutting down")
		cancel()                               // Cancel context to stop ongoing operations
		_ = srv.Shutdown(context.Background()) // Gracefully shutdown HTTP server
	}()

	logger.WithFields(logrus.Fields{
		"addr":     cfg.APIAddr,
		"provider": cfg.LLMProvider,
		"cache":    a.Cache != nil,
		"audit":    a.Store != nil,
	}).Info("api server starting")
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("api server failed")
	}

	// Wait for server to be fully shut down
	if err := srv.WaitClosed(context.Background()); err != nil {
		logger.WithError(err).Warn("shutdown did not complete")
	}
}
