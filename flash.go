// Package flash is the entry point of the framework: it re-exports the app and
// context types so applications and middleware packages import a single path.
//
//	a := flash.New()
//	a.Use(session.Sessions(session.Config{}), messages.Manager(messages.ManagerConfig{}))
//	a.GET("/", func(c flash.Ctx) error {
//		messages.FromCtx(c).Info("Hello, world!")
//		return c.Redirect(http.StatusFound, "/read-messages")
//	})
package flash

import (
	"github.com/goflash/flash-messages/app"
	"github.com/goflash/flash-messages/ctx"
)

// App is the application/router. Implements http.Handler.
type App = app.App

// DefaultApp is the concrete application returned by New.
type DefaultApp = app.DefaultApp

// Handler is the signature for route handlers and composed middleware.
type Handler = app.Handler

// Middleware transforms a Handler.
type Middleware = app.Middleware

// ErrorHandler handles errors returned from handlers.
type ErrorHandler = app.ErrorHandler

// Ctx is the request context.
type Ctx = ctx.Ctx

// New creates a new application with default logger and error handlers.
func New() *DefaultApp { return app.New() }
