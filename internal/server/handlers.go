package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/coinquery/internal/ai"
	"github.com/aman-zulfiqar/coinquery/internal/cache"
	"github.com/aman-zulfiqar/coinquery/internal/chart"
	"github.com/aman-zulfiqar/coinquery/internal/constants"
	"github.com/aman-zulfiqar/coinquery/internal/metrics"
	"github.com/aman-zulfiqar/coinquery/internal/pipeline"
	"github.com/aman-zulfiqar/coinquery/internal/speech"
	"github.com/aman-zulfiqar/coinquery/internal/storage"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Asker answers one natural language question
type Asker interface {
	Ask(ctx context.Context, question string) (*pipeline.Answer, error)
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Asker       Asker              // Question pipeline
	Transcriber speech.Transcriber // Speech-to-text (optional)
	Cache       storage.AskCache   // Redis-backed recent asks and charts (optional)
	Metrics     *metrics.Metrics   // Prometheus instruments (optional)
	DevMode     bool               // Enable detailed error responses in development
	Logger      *logrus.Logger     // Structured logger
	AskTimeout  time.Duration      // Upper bound for one ask, defaults to 45s
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func (h *Handlers) askTimeout() time.Duration {
	if h.AskTimeout > 0 {
		return h.AskTimeout
	}
	return 45 * time.Second
}

// Health reports liveness and, when configured, whether Redis answers
func (h *Handlers) Health(c echo.Context) error {
	resp := HealthResponse{OK: true, Cache: "disabled"}
	if h.Cache != nil {
		ctx, cancel := h.withTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		resp.Cache = "ok"
		if err := h.Cache.Ping(ctx); err != nil {
			resp.Cache = "down"
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// Ask turns a question into SQL, runs it and charts it when asked to.
// Query failures are reported in the response body with status 200.
func (h *Handlers) Ask(c echo.Context) error {
	var req AskRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return h.err(c, http.StatusBadRequest, "question is required", map[string]any{"question": "required"})
	}
	if len(req.Question) > constants.MaxQuestionLength {
		return h.err(c, http.StatusBadRequest, "question is too long",
			map[string]any{"question": "max " + strconv.Itoa(constants.MaxQuestionLength) + " bytes"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), h.askTimeout())
	defer cancel()

	resp, err := h.ask(ctx, req.Question)
	if err != nil {
		return h.askErr(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handlers) ask(ctx context.Context, question string) (*AskResponse, error) {
	a, err := h.Asker.Ask(ctx, question)
	if err != nil {
		return nil, err
	}
	return newAskResponse(a), nil
}

func (h *Handlers) askErr(c echo.Context, err error) error {
	if errors.Is(err, pipeline.ErrEmptyQuestion) {
		return h.err(c, http.StatusBadRequest, "question is required", map[string]any{"question": "required"})
	}
	var gerr *ai.GenerationError
	if errors.As(err, &gerr) {
		return h.err(c, http.StatusBadGateway, "sql generation failed", map[string]any{"provider": gerr.Provider, "err": gerr.Err.Error()})
	}
	h.Logger.WithError(err).Error("ask failed")
	return h.err(c, http.StatusInternalServerError, "ask failed", map[string]any{"err": err.Error()})
}

func newAskResponse(a *pipeline.Answer) *AskResponse {
	resp := &AskResponse{
		ID:       a.ID,
		Question: a.Question,
		SQL:      a.SQL,
		Columns:  []string{},
		Rows:     [][]any{},
		TookMs:   a.Took.Milliseconds(),
	}
	if a.QueryErr != nil {
		resp.Error = a.QueryErr.Error()
	}
	if a.Result != nil {
		rs := a.Result.Unescaped()
		resp.Columns = rs.Columns
		resp.Rows = rs.Rows
	}

	requested := a.Chart.Kind != "" && a.Chart.Kind != chart.KindNone
	if !requested && a.ChartErr == nil {
		return resp
	}
	ch := &ChartResponse{Kind: string(a.Chart.Kind)}
	if a.Chart.Figure != nil {
		ch.Title = a.Chart.Figure.Title
	}
	if a.ChartID != "" {
		ch.URL = "/v1/charts/" + a.ChartID
	}
	if a.Chart.Warning != nil {
		ch.Warning = a.Chart.Warning.Error()
	}
	if a.ChartErr != nil {
		ch.Error = a.ChartErr.Error()
	}
	resp.Chart = ch
	return resp
}

// Transcribe converts an uploaded "audio" file to text. With ask=true the
// transcript is also answered as a question.
func (h *Handlers) Transcribe(c echo.Context) error {
	if h.Transcriber == nil {
		return h.err(c, http.StatusBadRequest, "transcription is not configured", nil)
	}

	askToo := false
	if v := c.QueryParam("ask"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid ask", map[string]any{"ask": "must be a boolean"})
		}
		askToo = b
	}

	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, constants.MaxAudioBytes+1<<20)
	fh, err := c.FormFile("audio")
	if err != nil {
		return h.err(c, http.StatusBadRequest, "audio file is required", map[string]any{"err": err.Error()})
	}
	if fh.Size > constants.MaxAudioBytes {
		return h.err(c, http.StatusRequestEntityTooLarge, "audio file is too large", nil)
	}
	f, err := fh.Open()
	if err != nil {
		return h.err(c, http.StatusBadRequest, "failed to read audio", nil)
	}
	defer f.Close()
	audio, err := io.ReadAll(io.LimitReader(f, constants.MaxAudioBytes))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "failed to read audio", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), h.askTimeout())
	defer cancel()

	text, err := h.Transcriber.Transcribe(ctx, audio)
	h.Metrics.Transcription(err == nil)
	if err != nil {
		if errors.Is(err, speech.ErrUnsupportedAudio) {
			return h.err(c, http.StatusUnsupportedMediaType, "unsupported audio format", nil)
		}
		h.Logger.WithError(err).Warn("transcription failed")
		return h.err(c, http.StatusBadGateway, "transcription failed", map[string]any{"err": err.Error()})
	}

	resp := TranscribeResponse{Text: text}
	if askToo {
		ar, err := h.ask(ctx, text)
		if err != nil {
			return h.askErr(c, err)
		}
		resp.Ask = ar
	}
	return c.JSON(http.StatusOK, resp)
}

// RecentAsks returns the most recent asks with optional limit parameter
// Accepts limit query parameter (default: 20, range: 1-100)
func (h *Handlers) RecentAsks(c echo.Context) error {
	if h.Cache == nil {
		return h.err(c, http.StatusBadRequest, "cache is not configured", nil)
	}

	limit := constants.DefaultRecentAsks
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > constants.MaxRecentAsks {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max " + strconv.Itoa(constants.MaxRecentAsks)})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Cache.GetRecentAsks(ctx, int64(limit))
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get asks", nil)
	}
	return c.JSON(http.StatusOK, RecentAsksResponse{Items: items})
}

// Chart serves a cached chart page
func (h *Handlers) Chart(c echo.Context) error {
	if h.Cache == nil {
		return h.err(c, http.StatusBadRequest, "cache is not configured", nil)
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid chart id", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	page, err := h.Cache.GetChart(ctx, id)
	if errors.Is(err, cache.ErrNotFound) {
		return h.err(c, http.StatusNotFound, "chart not found", nil)
	}
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get chart", nil)
	}
	// HTMLBlob keeps an existing content type, and the JSON middleware set one.
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	return c.HTMLBlob(http.StatusOK, page)
}
