package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goflash/flash-messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureHandler struct {
	mu  sync.Mutex
	rec []slog.Record
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	h.rec = append(h.rec, r)
	h.mu.Unlock()
	return nil
}
func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func (h *captureHandler) find(msg string) (slog.Record, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.rec) - 1; i >= 0; i-- {
		if h.rec[i].Message == msg {
			return h.rec[i], true
		}
	}
	return slog.Record{}, false
}

func (h *captureHandler) last(t *testing.T, msg string) map[string]any {
	t.Helper()
	r, ok := h.find(msg)
	if !ok {
		t.Fatalf("no %q record captured", msg)
	}
	out := map[string]any{}
	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})
	return out
}

func newLoggedApp(h slog.Handler, mw ...flash.Middleware) *flash.DefaultApp {
	a := flash.New()
	a.SetLogger(slog.New(h))
	a.Use(mw...)
	return a
}

func TestLoggerEmitsRequestRecord(t *testing.T) {
	h := &captureHandler{}
	a := newLoggedApp(h, Logger())
	a.GET("/read-messages", func(c flash.Ctx) error { return c.String(http.StatusOK, "ok") })

	a.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/read-messages", nil))

	attrs := h.last(t, "http request")
	assert.Equal(t, http.MethodGet, attrs["method"])
	assert.Equal(t, "/read-messages", attrs["route"])
	assert.EqualValues(t, http.StatusOK, attrs["status"])
	assert.Contains(t, attrs, "elapsed")
	assert.NotContains(t, attrs, "path", "path equals route")
	assert.NotContains(t, attrs, "request_id")
	assert.NotContains(t, attrs, "err")
}

func TestLoggerLevelFollowsStatus(t *testing.T) {
	tests := []struct {
		name    string
		handler flash.Handler
		status  int
		level   slog.Level
	}{
		{"redirect", func(c flash.Ctx) error { return c.Redirect(http.StatusFound, "/read-messages") }, http.StatusFound, slog.LevelInfo},
		{"client error", func(c flash.Ctx) error { return c.String(http.StatusTeapot, "no") }, http.StatusTeapot, slog.LevelWarn},
		{"server error", func(c flash.Ctx) error { return c.String(http.StatusBadGateway, "no") }, http.StatusBadGateway, slog.LevelError},
		{"unwritten error", func(c flash.Ctx) error { return errors.New("store down") }, http.StatusInternalServerError, slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &captureHandler{}
			a := newLoggedApp(h, Logger())
			a.GET("/x", tt.handler)
			a.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

			r, ok := h.find("http request")
			require.True(t, ok)
			assert.Equal(t, tt.level, r.Level)
			assert.EqualValues(t, tt.status, h.last(t, "http request")["status"])
		})
	}
}

func TestLoggerDefaultStatusAndRequestID(t *testing.T) {
	h := &captureHandler{}
	a := newLoggedApp(h, RequestID(), Logger())
	a.GET("/y", func(c flash.Ctx) error { return nil })

	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/y", nil))

	attrs := h.last(t, "http request")
	assert.EqualValues(t, http.StatusOK, attrs["status"])
	require.Contains(t, attrs, "request_id")
	assert.Equal(t, rec.Header().Get("X-Request-ID"), attrs["request_id"])
}

func TestLoggerSkipAndAttrs(t *testing.T) {
	h := &captureHandler{}
	a := newLoggedApp(h, Logger(LoggerConfig{
		Skip:  func(c flash.Ctx) bool { return c.Route() == "/healthz" },
		Attrs: func(c flash.Ctx) []any { return []any{"messages_pending", 2} },
	}))
	a.GET("/healthz", func(c flash.Ctx) error { return c.NoContent() })
	a.GET("/", func(c flash.Ctx) error { return c.Redirect(http.StatusFound, "/read-messages") })

	a.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	_, ok := h.find("http request")
	assert.False(t, ok)

	a.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.EqualValues(t, 2, h.last(t, "http request")["messages_pending"])
}
