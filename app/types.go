package app

import (
	"log/slog"
	"net/http"
)

// App defines the public surface of the application, suitable for mocking.
// Implemented by *DefaultApp.
type App interface {
	Use(mw ...Middleware)

	GET(path string, h Handler, mws ...Middleware)
	POST(path string, h Handler, mws ...Middleware)
	Handle(method, path string, h Handler, mws ...Middleware)
	HandleHTTP(method, path string, h http.Handler)

	ServeHTTP(w http.ResponseWriter, r *http.Request)

	SetLogger(l *slog.Logger)
	Logger() *slog.Logger

	SetErrorHandler(h ErrorHandler)
	SetNotFoundHandler(h http.Handler)
	SetMethodNotAllowedHandler(h http.Handler)
}

var _ App = (*DefaultApp)(nil)
