package ctx

import "net/http"

// InterceptHeaderWrite wraps rw so that before runs exactly once, right before
// the first header write. A body Write without an explicit WriteHeader counts
// as a header write with status 200.
//
// Session-backed middleware uses it to persist state and emit Set-Cookie while
// headers can still be changed:
//
//	c.SetResponseWriter(ctx.InterceptHeaderWrite(c.ResponseWriter(), flush))
func InterceptHeaderWrite(rw http.ResponseWriter, before func()) http.ResponseWriter {
	return &headerWriteInterceptor{rw: rw, before: before}
}

type headerWriteInterceptor struct {
	rw      http.ResponseWriter
	before  func()
	written bool
}

func (h *headerWriteInterceptor) Header() http.Header { return h.rw.Header() }

func (h *headerWriteInterceptor) WriteHeader(status int) {
	if !h.written {
		h.written = true
		h.before()
	}
	h.rw.WriteHeader(status)
}

func (h *headerWriteInterceptor) Write(p []byte) (int, error) {
	if !h.written {
		h.WriteHeader(http.StatusOK)
	}
	return h.rw.Write(p)
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (h *headerWriteInterceptor) Unwrap() http.ResponseWriter { return h.rw }
