// Package app turns a loaded Config into a ready ask pipeline and the
// optional services around it. Both binaries build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aman-zulfiqar/coinquery/internal/ai"
	"github.com/aman-zulfiqar/coinquery/internal/cache"
	"github.com/aman-zulfiqar/coinquery/internal/config"
	"github.com/aman-zulfiqar/coinquery/internal/metrics"
	"github.com/aman-zulfiqar/coinquery/internal/pipeline"
	"github.com/aman-zulfiqar/coinquery/internal/query"
	"github.com/aman-zulfiqar/coinquery/internal/schema"
	"github.com/aman-zulfiqar/coinquery/internal/speech"
	"github.com/aman-zulfiqar/coinquery/internal/sqlnorm"
	"github.com/aman-zulfiqar/coinquery/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const connectTimeout = 5 * time.Second

// Options selects which optional services New connects.
type Options struct {
	// Sinks connects Redis and ClickHouse when their addresses are set.
	// Unreachable sinks are logged and skipped.
	Sinks bool
	// Transcriber builds the Whisper client when OPENAI_API_KEY is set.
	Transcriber bool
	// Registerer receives the pipeline metrics. Nil disables metrics.
	Registerer prometheus.Registerer
	// Generator replaces the configured LLM provider.
	Generator ai.Generator
}

// App holds everything a binary needs to answer questions.
type App struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Registry *schema.Registry
	Executor *query.Executor
	Pipeline *pipeline.Pipeline
	Metrics  *metrics.Metrics

	// Nil when not configured or unreachable.
	Cache       *cache.RedisCache
	Store       *cache.ClickHouseStore
	Transcriber *speech.WhisperTranscriber

	closers []io.Closer
}

// New wires the pipeline for cfg.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = logrus.New()
	}
	reg := schema.Default()
	a := &App{Config: cfg, Logger: logger, Registry: reg}

	gen := opts.Generator
	if gen == nil {
		if err := cfg.ValidateGenerator(); err != nil {
			return nil, err
		}
		g, err := ai.NewGenerator(ctx, ai.GeneratorConfig{
			Provider:         cfg.LLMProvider,
			GeminiAPIKey:     cfg.GeminiAPIKey,
			GeminiModel:      cfg.GeminiModel,
			OpenRouterAPIKey: cfg.OpenRouterAPIKey,
			OpenRouterModel:  cfg.OpenRouterModel,
			Registry:         reg,
			Logger:           logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create generator: %w", err)
		}
		if c, ok := g.(ai.Closer); ok {
			a.closers = append(a.closers, c)
		}
		gen = g
	}

	if opts.Registerer != nil {
		a.Metrics = metrics.New(opts.Registerer)
	}

	a.Executor = query.NewExecutor(query.ExecutorConfig{
		Registry: reg,
		DataDir:  cfg.DataDir,
		Logger:   logger,
	})

	deps := pipeline.Deps{
		Generator:       gen,
		Normalizer:      sqlnorm.New(reg),
		Executor:        a.Executor,
		Metrics:         a.Metrics,
		Logger:          logger,
		ChartTTL:        cfg.ChartTTL,
		GenerateTimeout: cfg.GenerateTimeout,
	}
	if opts.Sinks {
		a.connectSinks(ctx)
		deps.Cache = a.AskCache()
		if a.Store != nil {
			deps.Store = a.Store
		}
	}

	if opts.Transcriber {
		if err := a.buildTranscriber(); err != nil {
			logger.WithError(err).Warn("transcription disabled")
		}
	}

	a.Pipeline = pipeline.New(deps)
	return a, nil
}

func (a *App) connectSinks(ctx context.Context) {
	cfg := a.Config

	if cfg.RedisAddr != "" {
		cctx, cancel := context.WithTimeout(ctx, connectTimeout)
		rc, err := cache.NewRedisCache(cctx, cfg.RedisAddr, a.Logger)
		cancel()
		if err != nil {
			a.Logger.WithError(err).Warn("redis unavailable, recent asks and chart links disabled")
		} else {
			a.Cache = rc
			a.closers = append(a.closers, rc)
		}
	}

	if cfg.ClickHouseAddr != "" {
		cctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		st, err := cache.NewClickHouseStore(cctx, cache.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
			Logger:   a.Logger,
		})
		if err != nil {
			a.Logger.WithError(err).Warn("clickhouse unavailable, ask audit log disabled")
			return
		}
		if err := st.EnsureSchema(cctx); err != nil {
			a.Logger.WithError(err).Warn("clickhouse schema setup failed, ask audit log disabled")
			_ = st.Close()
			return
		}
		a.Store = st
		a.closers = append(a.closers, st)
	}
}

func (a *App) buildTranscriber() error {
	t, err := speech.NewWhisperTranscriber(speech.WhisperConfig{
		APIKey: a.Config.OpenAIAPIKey,
		Model:  a.Config.TranscribeModel,
		Logger: a.Logger,
	})
	if err != nil {
		return err
	}
	a.Transcriber = t
	return nil
}

// AskCache returns the Redis cache as an interface, or a nil interface
// when Redis is not connected.
func (a *App) AskCache() storage.AskCache {
	if a.Cache == nil {
		return nil
	}
	return a.Cache
}

// SpeechTranscriber is AskCache for the transcriber.
func (a *App) SpeechTranscriber() speech.Transcriber {
	if a.Transcriber == nil {
		return nil
	}
	return a.Transcriber
}

// Close releases every connection New opened, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
