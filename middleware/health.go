package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/goflash/flash-messages"
	"github.com/goflash/flash-messages/ctx"
)

// HealthCheckFunc checks a dependency. A nil error means healthy.
type HealthCheckFunc func(context.Context) error

// HealthCheckConfig configures RegisterHealthCheck.
type HealthCheckConfig struct {
	// Path defaults to "/healthz".
	Path string
	// Checks are keyed by name; any failure marks the service unhealthy.
	Checks map[string]HealthCheckFunc
	// Timeout bounds all checks together. Defaults to 2s.
	Timeout time.Duration
	// ServiceName is echoed in the response body.
	ServiceName string
	// OnError is called for a failed check. Defaults to logging it.
	OnError func(c flash.Ctx, name string, err error)
}

// RegisterHealthCheck mounts a GET endpoint that runs the configured checks and
// answers 200 {"status":"healthy"} or 503 {"status":"unhealthy"} with the
// failing check names.
//
//	middleware.RegisterHealthCheck(a, middleware.HealthCheckConfig{
//		Checks: map[string]middleware.HealthCheckFunc{"session_store": store.Ping},
//	})
func RegisterHealthCheck(a flash.App, cfg HealthCheckConfig) {
	if cfg.Path == "" {
		cfg.Path = "/healthz"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.OnError == nil {
		cfg.OnError = func(c flash.Ctx, name string, err error) {
			ctx.LoggerFromContext(c.Context()).Error("health check failed", "check", name, "err", err)
		}
	}
	a.GET(cfg.Path, healthCheckHandler(cfg))
}

func healthCheckHandler(cfg HealthCheckConfig) flash.Handler {
	return func(c flash.Ctx) error {
		cctx, cancel := context.WithTimeout(c.Context(), cfg.Timeout)
		defer cancel()

		failed := map[string]string{}
		for name, check := range cfg.Checks {
			if err := check(cctx); err != nil {
				failed[name] = err.Error()
				cfg.OnError(c, name, err)
			}
		}

		body := map[string]any{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		if cfg.ServiceName != "" {
			body["service"] = cfg.ServiceName
		}
		status := http.StatusOK
		if len(failed) > 0 {
			status = http.StatusServiceUnavailable
			body["status"] = "unhealthy"
			body["failed"] = failed
		}
		return c.Status(status).JSON(body)
	}
}
