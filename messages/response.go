package messages

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/goflash/flash-messages"
)

// Annotation is the marker a handler attaches to its response to ask a
// ResponseMapper to render messages into it. A response carries at most one.
type Annotation int

const (
	AnnotationNone Annotation = iota
	AnnotationErrorPage
	AnnotationRenderPage
)

func (a Annotation) String() string {
	switch a {
	case AnnotationNone:
		return "none"
	case AnnotationErrorPage:
		return "error_page"
	case AnnotationRenderPage:
		return "render_page"
	}
	return "annotation(" + strconv.Itoa(int(a)) + ")"
}

type responseContextKey struct{}

// Response is the buffered, in-flight response handed to each ResponseMapper.
// Mappers may change any field; the result is written to the client after the
// last mapper ran.
type Response struct {
	Status     int
	Header     http.Header
	Body       bytes.Buffer
	Annotation Annotation
}

// Annotate attaches a to the response being built for c. It is a no-op when
// no MapResponse middleware is installed.
func Annotate(c flash.Ctx, a Annotation) {
	if res, ok := c.Get(responseContextKey{}).(*Response); ok {
		res.Annotation = a
	}
}

// AnnotationOf returns the annotation attached to c's response.
func AnnotationOf(c flash.Ctx) Annotation {
	if res, ok := c.Get(responseContextKey{}).(*Response); ok {
		return res.Annotation
	}
	return AnnotationNone
}

// ResponseMapper transforms the buffered response after the handler returned.
type ResponseMapper interface {
	MapResponse(c flash.Ctx, q *Queue, res *Response) error
}

// MapperFunc adapts a function to ResponseMapper.
type MapperFunc func(c flash.Ctx, q *Queue, res *Response) error

func (f MapperFunc) MapResponse(c flash.Ctx, q *Queue, res *Response) error { return f(c, q, res) }

// MapResponse returns middleware that buffers the handler's response, runs
// mappers over it in the given order, then writes it out. Each mapper sees the
// request's message queue as left by the handler and earlier mappers.
//
// If the handler fails, mappers are skipped. If a mapper fails, the remaining
// ones are skipped. In both cases whatever is buffered is still written and
// the error is returned up the chain.
//
// Streaming handlers should not sit behind this middleware: nothing reaches
// the client until the handler returns.
func MapResponse(mappers ...ResponseMapper) flash.Middleware {
	return func(next flash.Handler) flash.Handler {
		return func(c flash.Ctx) error {
			rw := c.ResponseWriter()
			res := &Response{Header: rw.Header().Clone()}
			if res.Header == nil {
				res.Header = http.Header{}
			}
			c.Set(responseContextKey{}, res)
			c.SetResponseWriter(&responseRecorder{res: res})

			// restore even on panic so recovery middleware writes to the client
			err := func() error {
				defer c.SetResponseWriter(rw)
				return next(c)
			}()

			if err == nil {
				q := FromCtx(c)
				for _, m := range mappers {
					if err = m.MapResponse(c, q, res); err != nil {
						break
					}
				}
			}
			if werr := res.writeTo(rw); err == nil {
				err = werr
			}
			return err
		}
	}
}

// writeTo replays the buffered response onto w. A response nobody wrote to is
// left for outer layers, headers excepted.
func (res *Response) writeTo(w http.ResponseWriter) error {
	dst := w.Header()
	for k := range dst {
		if _, ok := res.Header[k]; !ok {
			delete(dst, k)
		}
	}
	for k, v := range res.Header {
		dst[k] = v
	}
	if res.Status == 0 && res.Body.Len() == 0 {
		return nil
	}
	if dst.Get("Content-Length") != "" {
		dst.Set("Content-Length", strconv.Itoa(res.Body.Len()))
	}
	status := res.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if res.Body.Len() == 0 {
		return nil
	}
	_, err := w.Write(res.Body.Bytes())
	return err
}

type responseRecorder struct{ res *Response }

func (r *responseRecorder) Header() http.Header { return r.res.Header }

func (r *responseRecorder) WriteHeader(status int) {
	if r.res.Status == 0 {
		r.res.Status = status
	}
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	if r.res.Status == 0 {
		r.res.Status = http.StatusOK
	}
	return r.res.Body.Write(p)
}
