package app

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDefaultErrorHandlerNoDoubleWrite(t *testing.T) {
	a := New()
	a.GET("/w", func(c Ctx) error {
		_ = c.String(http.StatusTeapot, "x")
		return io.ErrUnexpectedEOF
	})
	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/w", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rec.Code)
	}
}

func TestMethodNotAllowedHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	methodNotAllowedHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
