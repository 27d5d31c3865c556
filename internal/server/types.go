package server

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK    bool   `json:"ok"`              // Service health status
	Cache string `json:"cache,omitempty"` // "ok", "down" or "disabled"
}

// AskRequest represents a natural language question about the coin data
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse carries the generated SQL, the table and the chart outcome.
// Error is set when the query failed; the request itself still succeeds.
type AskResponse struct {
	ID       string         `json:"id"`
	Question string         `json:"question"`
	SQL      string         `json:"sql"`
	Columns  []string       `json:"columns"`
	Rows     [][]any        `json:"rows"`
	Error    string         `json:"error,omitempty"`
	Chart    *ChartResponse `json:"chart,omitempty"`
	TookMs   int64          `json:"took_ms"`
}

// ChartResponse describes the chart drawn for an ask, or why none was.
type ChartResponse struct {
	Kind    string `json:"kind"`
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"` // Empty when the chart could not be cached
	Warning string `json:"warning,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TranscribeResponse holds the transcript and, when requested, its answer
type TranscribeResponse struct {
	Text string       `json:"text"`
	Ask  *AskResponse `json:"ask,omitempty"`
}

// RecentAsksResponse lists recent asks, newest first
type RecentAsksResponse struct {
	Items any `json:"items"`
}
