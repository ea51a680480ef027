package app

import (
	"net/http"

	"github.com/goflash/flash-messages/ctx"
	"github.com/julienschmidt/httprouter"
)

// GET registers a handler for HTTP GET requests on the given path, with
// optional route-specific middleware.
func (a *DefaultApp) GET(path string, h Handler, mws ...Middleware) {
	a.handle(http.MethodGet, path, h, mws...)
}

// POST registers a handler for HTTP POST requests on the given path.
func (a *DefaultApp) POST(path string, h Handler, mws ...Middleware) {
	a.handle(http.MethodPost, path, h, mws...)
}

// Handle registers a handler for an arbitrary HTTP method.
func (a *DefaultApp) Handle(method, path string, h Handler, mws ...Middleware) {
	a.handle(method, path, h, mws...)
}

// HandleHTTP mounts a plain net/http handler on a method and path. The global
// middleware chain does not apply to it.
//
//	a.HandleHTTP(http.MethodGet, "/metrics", metrics.Handler())
func (a *DefaultApp) HandleHTTP(method, path string, h http.Handler) {
	a.router.Handler(method, path, h)
}

// handle composes the chain right-to-left (route middleware wraps the handler,
// global middleware wraps that) so that the runtime order is
// global -> route -> handler, then adapts it to httprouter.
//
// Per request: inject the app logger into the request context, take a context
// from the pool, run the chain, hand any error to the ErrorHandler, and return
// the context to the pool.
func (a *DefaultApp) handle(method, path string, h Handler, mws ...Middleware) {
	final := h
	for i := len(mws) - 1; i >= 0; i-- {
		final = mws[i](final)
	}
	for i := len(a.middleware) - 1; i >= 0; i-- {
		final = a.middleware[i](final)
	}

	pattern := path
	a.router.Handle(method, path, func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		r = r.WithContext(ctx.ContextWithLogger(r.Context(), a.Logger()))
		c := a.pool.Get().(*ctx.DefaultContext)
		c.Reset(w, r, pattern)
		if err := final(c); err != nil {
			a.ErrorHandler()(c, err)
		}
		c.Finish()
		a.pool.Put(c)
	})
}
