package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// JSONErrors renders errors that escape the handlers (router misses, auth,
// rate limiting, body limit, panics) in the same envelope as Handlers.err.
func JSONErrors(h *Handlers) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		var details any
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if msg, ok := he.Message.(string); ok && msg != http.StatusText(code) {
				details = msg
			}
		}
		if code >= http.StatusInternalServerError {
			h.Logger.WithError(err).WithFields(logrus.Fields{
				"method": c.Request().Method,
				"path":   c.Request().URL.Path,
			}).Error("unhandled request error")
		}

		msg := strings.ToLower(http.StatusText(code))
		if msg == "" {
			msg = "request failed"
		}
		_ = h.err(c, code, msg, details)
	}
}
