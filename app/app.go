package app

import (
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/goflash/flash-messages/ctx"
	"github.com/julienschmidt/httprouter"
)

// Handler is the function signature for route handlers (and the output of
// composed middleware). Returning a non-nil error delegates to the App's
// ErrorHandler.
//
//	func readMessages(c app.Ctx) error {
//		return c.String(http.StatusOK, "No messages yet!")
//	}
type Handler func(ctx.Ctx) error

// Middleware transforms a Handler. Middleware registered via Use runs in the
// order added; route-specific middleware runs after it and before the handler.
// A middleware can short-circuit by returning without calling next, and can
// act on the way out by running code after next returns.
type Middleware func(Handler) Handler

// ErrorHandler handles errors returned from handlers and middleware.
type ErrorHandler func(ctx.Ctx, error)

// Ctx is re-exported for package-local convenience.
type Ctx = ctx.Ctx

// DefaultApp implements http.Handler on top of httprouter and owns the global
// middleware chain, error handlers and the application logger.
//
// Request contexts are pooled; each request acquires a *ctx.DefaultContext,
// resets it, runs the composed chain and returns it to the pool.
type DefaultApp struct {
	router     *httprouter.Router
	middleware []Middleware
	pool       sync.Pool
	OnError    ErrorHandler
	NotFound   http.Handler
	MethodNA   http.Handler
	logger     *slog.Logger
}

// New creates a DefaultApp with a JSON slog logger at info level, plain
// 404/405 handlers and the default 500 error handler.
//
//	a := app.New()
//	a.GET("/", setMessages)
//	_ = http.ListenAndServe("127.0.0.1:3000", a)
func New() *DefaultApp {
	a := &DefaultApp{router: httprouter.New()}
	a.pool.New = func() any { return &ctx.DefaultContext{} }

	a.router.HandleMethodNotAllowed = true
	a.SetErrorHandler(defaultErrorHandler)
	a.SetNotFoundHandler(http.NotFoundHandler())
	a.SetMethodNotAllowedHandler(methodNotAllowedHandler())
	a.SetLogger(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	// Indirection so handlers replaced after New are still honored.
	a.router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.NotFound.ServeHTTP(w, r)
	})
	a.router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.MethodNA.ServeHTTP(w, r)
	})
	return a
}

// SetLogger sets the application logger injected into every request context.
func (a *DefaultApp) SetLogger(l *slog.Logger) { a.logger = l }

// Logger returns the configured application logger, or slog.Default.
func (a *DefaultApp) Logger() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.Default()
}

// Use registers global middleware. Only routes registered after the call see it.
//
//	a.Use(Sessions, Manager)
//	a.GET("/", Home, Audit) // execution order: Sessions -> Manager -> Audit -> Home
func (a *DefaultApp) Use(mw ...Middleware) {
	if len(mw) == 0 {
		return
	}
	a.middleware = append(a.middleware, mw...)
}

// ServeHTTP implements http.Handler by delegating to the router.
func (a *DefaultApp) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *DefaultApp) SetErrorHandler(h ErrorHandler)            { a.OnError = h }
func (a *DefaultApp) SetNotFoundHandler(h http.Handler)         { a.NotFound = h }
func (a *DefaultApp) SetMethodNotAllowedHandler(h http.Handler) { a.MethodNA = h }
func (a *DefaultApp) ErrorHandler() ErrorHandler                { return a.OnError }
