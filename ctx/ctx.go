package ctx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"

)

// Ctx is the request/response context handed to handlers and middleware.
// It is implemented by *DefaultContext.
//
// A Ctx exposes the request (method, path, matched route), lets middleware
// swap the request or the response writer, and offers helpers for writing
// plain-text, JSON and redirect responses.
//
// Typical usage inside a handler:
//
//	a.GET("/read-messages", func(c ctx.Ctx) error {
//		q := messages.FromCtx(c)
//		if q.Len() == 0 {
//			return c.String(http.StatusOK, "No messages yet!")
//		}
//		return c.Redirect(http.StatusFound, "/")
//	})
//
// Concurrency: Ctx is not safe for concurrent writes to the underlying
// http.ResponseWriter.
type Ctx interface {
	// Request returns the underlying *http.Request.
	Request() *http.Request
	// SetRequest replaces the underlying *http.Request, typically to attach a
	// derived context.
	SetRequest(*http.Request)
	// ResponseWriter returns the current http.ResponseWriter.
	ResponseWriter() http.ResponseWriter
	// SetResponseWriter replaces the http.ResponseWriter. Middleware uses it to
	// buffer or intercept the response.
	SetResponseWriter(http.ResponseWriter)

	// Context returns the request-scoped context.Context.
	Context() context.Context
	// Method returns the HTTP method (e.g., "GET").
	Method() string
	// Path returns the raw request URL path.
	Path() string
	// Route returns the registered route pattern (e.g., "/read-messages").
	Route() string

	// Header sets a response header key/value.
	Header(key, value string)
	// Status stages the HTTP status code to be written.
	Status(code int) Ctx
	// StatusCode returns the status that will be written (or 200 after header
	// write, or 0 if unset).
	StatusCode() int
	// JSON serializes v and writes it with an application/json content type.
	JSON(v any) error
	// String writes a text/plain body with the provided status code.
	String(status int, body string) error
	// Redirect writes a Location header with the given redirect status.
	Redirect(status int, url string) error
	// NoContent writes a 204 response.
	NoContent() error
	// WroteHeader reports whether the header has already been written.
	WroteHeader() bool

	// Get retrieves a value from the request context by key, with optional default.
	Get(key any, def ...any) any
	// Set stores a value into a derived request context and replaces the request.
	Set(key, value any) Ctx
}

// DefaultContext is the concrete implementation of Ctx.
// It tracks route, status, and response state for each request and is reused
// across requests through the app's pool.
type DefaultContext struct {
	w           http.ResponseWriter // underlying response writer
	r           *http.Request       // underlying request
	status      int                 // status code to write
	wroteHeader bool                // whether header was written
	wroteBytes  int                 // number of bytes written
	route       string              // route pattern
}

// Reset prepares the context for a new request. Used internally by the app.
func (c *DefaultContext) Reset(w http.ResponseWriter, r *http.Request, route string) {
	c.w = w
	c.r = r
	c.status = 0
	c.wroteHeader = false
	c.wroteBytes = 0
	c.route = route
}

// Finish drops references to the request and writer so a pooled context does
// not keep them alive.
func (c *DefaultContext) Finish() {
	c.w = nil
	c.r = nil
}

func (c *DefaultContext) Request() *http.Request                  { return c.r }
func (c *DefaultContext) SetRequest(r *http.Request)              { c.r = r }
func (c *DefaultContext) ResponseWriter() http.ResponseWriter     { return c.w }
func (c *DefaultContext) SetResponseWriter(w http.ResponseWriter) { c.w = w }
func (c *DefaultContext) WroteHeader() bool                       { return c.wroteHeader }
func (c *DefaultContext) Context() context.Context                { return c.r.Context() }
func (c *DefaultContext) Method() string                          { return c.r.Method }
func (c *DefaultContext) Path() string                            { return c.r.URL.Path }
func (c *DefaultContext) Route() string                           { return c.route }

// Set stores a value in the request context and replaces the request with a
// clone carrying the new context. Prefer unexported key types.
//
//	type userKey struct{}
//	c.Set(userKey{}, currentUser)
func (c *DefaultContext) Set(key, value any) Ctx {
	ctx := context.WithValue(c.Context(), key, value)
	c.SetRequest(c.Request().WithContext(ctx))
	return c
}

// Get returns a value from the request context by key. If the key is not
// present it returns the provided default, otherwise nil.
func (c *DefaultContext) Get(key any, def ...any) any {
	v := c.Context().Value(key)
	if v != nil {
		return v
	}
	if len(def) > 0 {
		return def[0]
	}
	return nil
}

// Status stages the response status code (without writing the header yet).
func (c *DefaultContext) Status(code int) Ctx {
	c.status = code
	return c
}

// StatusCode returns the status code that will be written.
// If not set yet and header hasn't been written, returns 0. If the header has
// already been written without an explicit status, returns 200.
func (c *DefaultContext) StatusCode() int {
	if c.status != 0 {
		return c.status
	}
	if c.wroteHeader {
		return http.StatusOK
	}
	return 0
}

// Header sets a header on the response. Has no effect after the header is written.
func (c *DefaultContext) Header(key, value string) { c.w.Header().Set(key, value) }

var jsonBufPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

// JSON serializes v and writes the response. If Status() has not been called
// it defaults to 200 OK.
func (c *DefaultContext) JSON(v any) error {
	buf := jsonBufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer jsonBufPool.Put(buf)

	if err := json.NewEncoder(buf).Encode(v); err != nil {
		if !c.wroteHeader {
			c.writeHeader(http.StatusInternalServerError)
		}
		return err
	}
	b := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})

	if !c.wroteHeader {
		status := c.status
		if status == 0 {
			status = http.StatusOK
		}
		c.Header("Content-Type", "application/json; charset=utf-8")
		c.Header("Content-Length", strconv.Itoa(len(b)))
		c.writeHeader(status)
	}
	n, err := c.w.Write(b)
	c.wroteBytes += n
	return err
}

// String writes a plain text response with the given status and body.
//
//	return c.String(http.StatusOK, "No messages yet!")
func (c *DefaultContext) String(status int, body string) error {
	if !c.wroteHeader {
		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Header("Content-Length", strconv.Itoa(len(body)))
		c.writeHeader(status)
	}
	n, err := io.WriteString(c.w, body)
	c.wroteBytes += n
	return err
}

// Redirect sends a redirect response with the given status code and URL.
// It is a no-op once the header has been written.
//
//	return c.Redirect(http.StatusFound, "/read-messages")
func (c *DefaultContext) Redirect(status int, url string) error {
	if !c.wroteHeader {
		c.Header("Location", url)
		c.writeHeader(status)
	}
	return nil
}

// NoContent sends a 204 No Content response.
func (c *DefaultContext) NoContent() error {
	if !c.wroteHeader {
		c.writeHeader(http.StatusNoContent)
	}
	return nil
}

func (c *DefaultContext) writeHeader(status int) {
	c.status = status
	c.w.WriteHeader(status)
	c.wroteHeader = true
}
