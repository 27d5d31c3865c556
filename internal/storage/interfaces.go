package storage

import (
	"context"
	"io"
	"time"

	"github.com/aman-zulfiqar/coinquery/internal/models"
)

// AskCache defines the interface for caching ask history and chart artifacts
type AskCache interface {
	// AddRecentAsk adds an ask to the recent asks list
	AddRecentAsk(ctx context.Context, ask *models.AskEvent) error

	// GetRecentAsks retrieves the most recent asks, newest first
	GetRecentAsks(ctx context.Context, limit int64) ([]*models.AskEvent, error)

	// PutChart stores a rendered chart under id for ttl
	PutChart(ctx context.Context, id string, html []byte, ttl time.Duration) error

	// GetChart retrieves a rendered chart
	GetChart(ctx context.Context, id string) ([]byte, error)

	// Ping checks if the cache is reachable
	Ping(ctx context.Context) error

	// Close closes the cache connection
	io.Closer

	// PublishAsk publishes an ask event to the Pub/Sub channels
	PublishAsk(ctx context.Context, ask *models.AskEvent) error

	// SubscribeAsks subscribes to real-time ask events
	SubscribeAsks(ctx context.Context) (<-chan *models.AskEvent, error)
}

// AskStore defines the interface for the persistent ask audit log
type AskStore interface {
	// InsertAsk appends an ask event to the store
	InsertAsk(ctx context.Context, ask *models.AskEvent) error

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	// Close closes the store connection
	io.Closer
}

// AskHandler is a function that processes ask events
type AskHandler func(*models.AskEvent)
