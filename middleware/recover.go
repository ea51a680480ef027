package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/goflash/flash-messages"
	"github.com/goflash/flash-messages/ctx"
)

// RecoverConfig configures the panic recovery middleware.
type RecoverConfig struct {
	EnableStack   bool                       // log the stack trace with the panic
	OnPanic       func(flash.Ctx, any)       // optional callback, runs synchronously
	ErrorResponse func(flash.Ctx, any) error // optional custom response
}

// Recover returns middleware that turns a panic in the rest of the chain into
// a logged error and a generic 500. Panic values never reach the client.
//
//	a.Use(middleware.RequestID(), middleware.Logger(), middleware.Recover())
func Recover(cfgs ...RecoverConfig) flash.Middleware {
	var cfg RecoverConfig
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}

	return func(next flash.Handler) flash.Handler {
		return func(c flash.Ctx) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				attrs := []any{"panic", r, "method", c.Method(), "path", c.Path()}
				if cfg.EnableStack {
					attrs = append(attrs, "stack", string(debug.Stack()))
				}
				ctx.LoggerFromContext(c.Context()).Error("panic recovered", attrs...)

				if cfg.OnPanic != nil {
					cfg.OnPanic(c, r)
				}
				if cfg.ErrorResponse != nil {
					err = cfg.ErrorResponse(c, r)
					return
				}
				if c.WroteHeader() {
					return
				}
				c.Header("X-Content-Type-Options", "nosniff")
				err = c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			}()
			return next(c)
		}
	}
}
