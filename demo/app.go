// Package demo wires the flash message routes onto an app: GET / queues two
// messages and redirects, GET /read-messages shows and consumes them.
package demo

import (
	"log/slog"
	"net/http"

	"github.com/goflash/flash-messages"
	"github.com/goflash/flash-messages/config"
	"github.com/goflash/flash-messages/messages"
	"github.com/goflash/flash-messages/metrics"
	"github.com/goflash/flash-messages/middleware"
	"github.com/goflash/flash-messages/session"
)

// NewApp builds the application. Request flow, outermost first:
//
//	RequestID -> Logger -> Metrics -> Recover -> OTel -> Sessions ->
//	Manager -> MapResponse(ErrorPage, RenderPage) -> handler
//
// The manager writes the queue back to the session only after both page
// mappers have seen the response. Metrics sits outside Recover so recovered
// panics are counted as 500s. /metrics and /healthz are mounted beside the two
// demo routes; health checks are not logged.
func NewApp(cfg config.Config, store session.Store, logger *slog.Logger) *flash.DefaultApp {
	m := metrics.New()

	a := flash.New()
	if logger != nil {
		a.SetLogger(logger)
	}
	a.Use(
		middleware.RequestID(),
		middleware.Logger(middleware.LoggerConfig{
			Skip:  func(c flash.Ctx) bool { return c.Route() == healthPath },
			Attrs: flushAttrs,
		}),
		m.Middleware(),
		middleware.Recover(),
		middleware.OTel(cfg.ServiceName),
		session.Sessions(session.Config{
			Store:      store,
			TTL:        cfg.SessionTTL,
			CookieName: cfg.CookieName,
			Secure:     cfg.CookieSecure,
			HTTPOnly:   true,
			Persistent: cfg.CookiePersistent,
		}),
		messages.Manager(messages.ManagerConfig{OnFlush: m.ObserveFlush}),
		messages.MapResponse(messages.ErrorPage(), messages.RenderPage()),
	)

	a.GET("/", SetMessages)
	a.GET(ReadMessagesPath, ReadMessages)

	checks := map[string]middleware.HealthCheckFunc{}
	if p, ok := store.(session.Pinger); ok {
		checks["session_store"] = p.Ping
	}
	middleware.RegisterHealthCheck(a, middleware.HealthCheckConfig{
		Path:        healthPath,
		ServiceName: cfg.ServiceName,
		Checks:      checks,
	})
	a.HandleHTTP(http.MethodGet, "/metrics", m.Handler())
	return a
}

const healthPath = "/healthz"

// flushAttrs adds what happened to the session's messages to the request log.
func flushAttrs(c flash.Ctx) []any {
	st, ok := messages.FromCtx(c).LastFlush()
	if !ok || st.Loaded+st.Pushed == 0 {
		return nil
	}
	return []any{
		"messages_pushed", st.Pushed,
		"messages_consumed", st.Consumed,
		"messages_pending", st.Remaining,
		"messages_persisted", st.Persisted,
	}
}
