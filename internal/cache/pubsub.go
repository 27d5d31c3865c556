package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aman-zulfiqar/coinquery/internal/constants"
	"github.com/aman-zulfiqar/coinquery/internal/models"
	"github.com/aman-zulfiqar/coinquery/internal/storage"

	"github.com/redis/go-redis/v9"
)

// PublishAsk publishes to the all-asks channel and, for charted asks, to
// the per-kind channel.
func (r *RedisCache) PublishAsk(ctx context.Context, ask *models.AskEvent) error {
	data, err := json.Marshal(ask)
	if err != nil {
		return fmt.Errorf("marshal ask: %w", err)
	}

	channels := []string{constants.PubSubChannelAsks}
	if ask.ChartKind != "" {
		channels = append(channels, constants.PubSubChannelChartPrefix+ask.ChartKind)
	}

	pipe := r.client.Pipeline()
	for _, ch := range channels {
		pipe.Publish(ctx, ch, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish ask: %w", err)
	}
	return nil
}

// SubscribeAsks streams events from the all-asks channel until ctx is done.
func (r *RedisCache) SubscribeAsks(ctx context.Context) (<-chan *models.AskEvent, error) {
	ps := r.client.Subscribe(ctx, constants.PubSubChannelAsks)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", constants.PubSubChannelAsks, err)
	}

	out := make(chan *models.AskEvent)
	go func() {
		defer close(out)
		defer ps.Close()
		r.pump(ctx, ps, func(a *models.AskEvent) {
			select {
			case out <- a:
			case <-ctx.Done():
			}
		})
	}()
	return out, nil
}

// Subscribe calls handler for every event on channel until ctx is done.
func (r *RedisCache) Subscribe(ctx context.Context, channel string, handler storage.AskHandler) error {
	ps := r.client.Subscribe(ctx, channel)
	defer ps.Close()

	r.logger.WithField("channel", channel).Info("subscribed")
	r.pump(ctx, ps, handler)
	return ctx.Err()
}

// PSubscribe is Subscribe for a channel pattern, e.g. "asks:chart:*".
func (r *RedisCache) PSubscribe(ctx context.Context, pattern string, handler storage.AskHandler) error {
	ps := r.client.PSubscribe(ctx, pattern)
	defer ps.Close()

	r.logger.WithField("pattern", pattern).Info("subscribed")
	r.pump(ctx, ps, handler)
	return ctx.Err()
}

func (r *RedisCache) pump(ctx context.Context, ps *redis.PubSub, handler storage.AskHandler) {
	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var a models.AskEvent
			if err := json.Unmarshal([]byte(msg.Payload), &a); err != nil {
				r.logger.WithError(err).WithField("channel", msg.Channel).Warn("error unmarshaling ask")
				continue
			}
			handler(&a)
		}
	}
}
