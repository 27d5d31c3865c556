// Command subscriber tails ask events published by the API and CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"

	"github.com/aman-zulfiqar/coinquery/internal/cache"
	"github.com/aman-zulfiqar/coinquery/internal/config"
	"github.com/aman-zulfiqar/coinquery/internal/constants"
	"github.com/aman-zulfiqar/coinquery/internal/models"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func loadEnv(logger *logrus.Logger) {
	_, filename, _, _ := runtime.Caller(0)
	envPath := filepath.Join(filepath.Dir(filename), "../..", ".env")
	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	}
}

func main() {
	boot := logrus.New()
	loadEnv(boot)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		boot.WithError(err).Fatal("invalid configuration")
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rc, err := cache.NewRedisCache(ctx, cfg.RedisAddr, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}
	defer rc.Close()

	logger.Info("starting ask subscriber")

	asks, err := rc.SubscribeAsks(ctx)
	if err != nil {
		logger.WithError(err).Fatal("failed to subscribe")
	}

	var wg sync.WaitGroup
	wg.Add(2)

	// Every ask
	go func() {
		defer wg.Done()
		for a := range asks {
			entry := logger.WithFields(logrus.Fields{
				"id":       a.ID,
				"rows":     a.RowCount,
				"took_ms":  a.TookMs,
				"question": a.Question,
			})
			if a.Error != "" {
				entry.WithField("error", a.Error).Warn("ask failed")
				continue
			}
			entry.Info("ask answered")
		}
	}()

	// Charted asks, by kind
	go func() {
		defer wg.Done()
		_ = rc.PSubscribe(ctx, constants.PubSubChannelChartPrefix+"*", func(a *models.AskEvent) {
			logger.WithFields(logrus.Fields{
				"id":    a.ID,
				"kind":  a.ChartKind,
				"chart": "/v1/charts/" + a.ChartID,
			}).Info("chart drawn")
		})
	}()

	logger.Info("subscriber running, press Ctrl+C to stop")
	<-ctx.Done()
	logger.Info("shutting down subscriber")
	wg.Wait()
}
