package cache

import (
	"context"
	"fmt"

	"github.com/aman-zulfiqar/coinquery/internal/models"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"
)

const createAsksTable = `
	CREATE TABLE IF NOT EXISTS asks (
		id         String,
		asked_at   DateTime64(3),
		question   String,
		sql        String,
		columns    Array(String),
		row_count  UInt32,
		chart_kind LowCardinality(String),
		chart_id   String,
		error      String,
		took_ms    Int64
	) ENGINE = MergeTree
	ORDER BY asked_at
`

// ClickHouseConfig holds connection settings for the audit store.
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Logger   *logrus.Logger
}

// ClickHouseStore is the append-only ask audit log.
type ClickHouseStore struct {
	conn   driver.Conn
	logger *logrus.Logger
}

// NewClickHouseStore connects and pings.
func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseStore, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Database == "" {
		cfg.Database = "coinquery"
	}
	if cfg.Username == "" {
		cfg.Username = "default"
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	cfg.Logger.WithFields(logrus.Fields{
		"addr":     cfg.Addr,
		"database": cfg.Database,
	}).Info("connected to ClickHouse")

	return &ClickHouseStore{conn: conn, logger: cfg.Logger}, nil
}

// EnsureSchema creates the asks table if needed.
func (c *ClickHouseStore) EnsureSchema(ctx context.Context) error {
	if err := c.conn.Exec(ctx, createAsksTable); err != nil {
		return fmt.Errorf("failed to create asks table: %w", err)
	}
	return nil
}

func (c *ClickHouseStore) InsertAsk(ctx context.Context, ask *models.AskEvent) error {
	query := `
		INSERT INTO asks (
			id, asked_at, question, sql, columns,
			row_count, chart_kind, chart_id, error, took_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	cols := ask.Columns
	if cols == nil {
		cols = []string{}
	}

	err := c.conn.Exec(ctx, query,
		ask.ID,
		ask.AskedAt,
		ask.Question,
		ask.SQL,
		cols,
		uint32(ask.RowCount),
		ask.ChartKind,
		ask.ChartID,
		ask.Error,
		ask.TookMs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ask: %w", err)
	}

	c.logger.WithField("id", ask.ID).Debug("ask recorded")
	return nil
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
