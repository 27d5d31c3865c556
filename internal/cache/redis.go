package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aman-zulfiqar/coinquery/internal/constants"
	"github.com/aman-zulfiqar/coinquery/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when a key has expired or never existed.
var ErrNotFound = errors.New("not found")

// RedisCache keeps recent asks and chart artifacts in Redis and fans ask
// events out over Pub/Sub.
type RedisCache struct {
	client redis.UniversalClient
	logger *logrus.Logger
}

// NewRedisCache connects to addr and pings it.
func NewRedisCache(ctx context.Context, addr string, logger *logrus.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return NewRedisCacheFromClient(client, logger), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client redis.UniversalClient, logger *logrus.Logger) *RedisCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisCache{client: client, logger: logger}
}

// Client exposes the underlying client for health checks.
func (r *RedisCache) Client() redis.UniversalClient { return r.client }

func (r *RedisCache) AddRecentAsk(ctx context.Context, ask *models.AskEvent) error {
	data, err := json.Marshal(ask)
	if err != nil {
		return fmt.Errorf("marshal ask: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, constants.RedisKeyRecentAsks, data)
	pipe.LTrim(ctx, constants.RedisKeyRecentAsks, 0, constants.MaxRecentAsks-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("add recent ask: %w", err)
	}
	return nil
}

func (r *RedisCache) GetRecentAsks(ctx context.Context, limit int64) ([]*models.AskEvent, error) {
	if limit <= 0 {
		limit = constants.DefaultRecentAsks
	}
	if limit > constants.MaxRecentAsks {
		limit = constants.MaxRecentAsks
	}

	vals, err := r.client.LRange(ctx, constants.RedisKeyRecentAsks, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("get recent asks: %w", err)
	}

	out := make([]*models.AskEvent, 0, len(vals))
	for _, v := range vals {
		var a models.AskEvent
		if err := json.Unmarshal([]byte(v), &a); err != nil {
			r.logger.WithError(err).Warn("skipping malformed cached ask")
			continue
		}
		out = append(out, &a)
	}
	return out, nil
}

func (r *RedisCache) PutChart(ctx context.Context, id string, html []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, chartKey(id), html, ttl).Err(); err != nil {
		return fmt.Errorf("put chart: %w", err)
	}
	return nil
}

func (r *RedisCache) GetChart(ctx context.Context, id string) ([]byte, error) {
	b, err := r.client.Get(ctx, chartKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get chart: %w", err)
	}
	return b, nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func chartKey(id string) string {
	return constants.RedisKeyChartPrefix + id
}
