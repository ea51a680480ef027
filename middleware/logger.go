package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/goflash/flash-messages"
	"github.com/goflash/flash-messages/ctx"
)

// LoggerConfig configures the request logger.
type LoggerConfig struct {
	// Skip suppresses the record for matching requests, e.g. health checks.
	Skip func(flash.Ctx) bool
	// Attrs returns extra key/value pairs, evaluated after the rest of the
	// chain has returned.
	Attrs func(flash.Ctx) []any
}

// Logger returns middleware that writes one "http request" record per request
// once the rest of the chain has returned. Server errors log at Error, client
// errors at Warn and the rest at Info. The request id is included when
// RequestID runs before it and the handler error when there is one.
func Logger(cfgs ...LoggerConfig) flash.Middleware {
	var cfg LoggerConfig
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}
	return func(next flash.Handler) flash.Handler {
		return func(c flash.Ctx) error {
			start := time.Now()
			err := next(c)
			if cfg.Skip != nil && cfg.Skip(c) {
				return err
			}

			status := c.StatusCode()
			if status == 0 {
				status = http.StatusOK
				if err != nil {
					status = http.StatusInternalServerError
				}
			}
			attrs := []any{
				"method", c.Method(),
				"route", c.Route(),
				"status", status,
				"elapsed", time.Since(start),
			}
			if c.Path() != c.Route() {
				attrs = append(attrs, "path", c.Path())
			}
			if rid, ok := RequestIDFromContext(c.Context()); ok {
				attrs = append(attrs, "request_id", rid)
			}
			if err != nil {
				attrs = append(attrs, "err", err)
			}
			if cfg.Attrs != nil {
				attrs = append(attrs, cfg.Attrs(c)...)
			}
			ctx.LoggerFromContext(c.Context()).Log(c.Context(), statusLevel(status), "http request", attrs...)
			return err
		}
	}
}

func statusLevel(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
