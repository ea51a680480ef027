package middleware

import (
	"context"

	"github.com/goflash/flash-messages"
	"github.com/google/uuid"
)

// RequestIDConfig configures the RequestID middleware.
type RequestIDConfig struct {
	Header string // default: X-Request-ID
}

type ridKey struct{}

// RequestID returns middleware that tags every request with an id, echoed in
// the configured response header and stored in the request context. An id
// sent by the client in the same header is reused; otherwise a random UUID is
// generated.
func RequestID(cfgs ...RequestIDConfig) flash.Middleware {
	cfg := RequestIDConfig{Header: "X-Request-ID"}
	if len(cfgs) > 0 && cfgs[0].Header != "" {
		cfg.Header = cfgs[0].Header
	}
	return func(next flash.Handler) flash.Handler {
		return func(c flash.Ctx) error {
			id := c.Request().Header.Get(cfg.Header)
			if id == "" {
				id = uuid.NewString()
			}
			c.Header(cfg.Header, id)
			c.Set(ridKey{}, id)
			return next(c)
		}
	}
}

// RequestIDFromContext returns the request id stored by RequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(ridKey{}).(string)
	return s, ok
}
