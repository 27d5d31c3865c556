package models

import "time"

// AskEvent records one answered question. It is cached in Redis, published
// to subscribers and appended to the ClickHouse audit table.
type AskEvent struct {
	ID        string    `json:"id"`
	AskedAt   time.Time `json:"asked_at"`
	Question  string    `json:"question"`
	SQL       string    `json:"sql"`
	Columns   []string  `json:"columns,omitempty"`
	RowCount  int       `json:"row_count"`
	ChartKind string    `json:"chart_kind,omitempty"` // "pie", "bar", ... or empty
	ChartID   string    `json:"chart_id,omitempty"`
	Error     string    `json:"error,omitempty"`
	TookMs    int64     `json:"took_ms"`
}
