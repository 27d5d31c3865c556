package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	// Errors raised outside the handlers share the handlers' envelope
	e.HTTPErrorHandler = JSONErrors(h)

	// Apply global middleware
	e.Use(SetJSONContentType) // Chart pages and /metrics override this
	e.Use(SetNoCacheHeaders)  // Prevent caching of API responses

	// Optional API key authentication; health and metrics stay open for probes
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Skipper: func(c echo.Context) bool {
				p := c.Path()
				return p == "/v1/health" || p == "/metrics"
			},
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
		}))
	}

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// API v1 routes
	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)          // Health check endpoint
	v1.GET("/asks/recent", h.RecentAsks) // Recent asks, newest first
	v1.GET("/charts/:id", h.Chart)       // Rendered chart page

	// Question endpoints hit the LLM, so they share a per-client rate limit
	limit, burst := cfg.AskRateLimit, cfg.AskRateBurst
	if limit <= 0 {
		limit = 5
	}
	if burst <= 0 {
		burst = 10
	}
	askGroup := v1.Group("")
	askGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(limit) / 60, // limit is per minute
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})))
	askGroup.POST("/ask", h.Ask)
	askGroup.POST("/transcribe", h.Transcribe)

	// Catch-all route for 404 responses
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
