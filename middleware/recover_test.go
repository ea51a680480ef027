package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goflash/flash-messages"
	"github.com/stretchr/testify/assert"
)

func TestRecoverMiddleware(t *testing.T) {
	a := flash.New()
	h := &captureHandler{}
	a.SetLogger(slog.New(h))
	a.Use(Recover())
	a.GET("/panic", func(c flash.Ctx) error { panic("boom") })

	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotContains(t, rec.Body.String(), "boom")
	assert.Equal(t, "boom", h.last(t, "panic recovered")["panic"])
}

func TestRecoverCustomResponseAndCallback(t *testing.T) {
	var got any
	a := flash.New()
	a.Use(Recover(RecoverConfig{
		EnableStack: true,
		OnPanic:     func(_ flash.Ctx, r any) { got = r },
		ErrorResponse: func(c flash.Ctx, _ any) error {
			return c.String(http.StatusServiceUnavailable, "try later")
		},
	}))
	a.GET("/panic", func(c flash.Ctx) error { panic(errors.New("kaput")) })

	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "try later", rec.Body.String())
	assert.EqualError(t, got.(error), "kaput")
}

func TestRecoverAfterWrite(t *testing.T) {
	a := flash.New()
	a.Use(Recover())
	a.GET("/late", func(c flash.Ctx) error {
		_ = c.String(http.StatusAccepted, "partial")
		panic("late")
	})
	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/late", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "partial", rec.Body.String())
}
