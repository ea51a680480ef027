package messages

import (
	"fmt"
	"io"

	"github.com/goflash/flash-messages"
	"github.com/goflash/flash-messages/ctx"
)

// Renderer writes msgs into a response body.
type Renderer func(w io.Writer, msgs []Message) error

// PlainRenderer writes one "level: text" line per message.
func PlainRenderer(w io.Writer, msgs []Message) error {
	for _, m := range msgs {
		if _, err := fmt.Fprintln(w, m.Format()); err != nil {
			return err
		}
	}
	return nil
}

// PageConfig configures ErrorPage and RenderPage.
type PageConfig struct {
	Renderer Renderer // defaults to PlainRenderer
}

func pageConfig(cfgs []PageConfig) PageConfig {
	var cfg PageConfig
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}
	if cfg.Renderer == nil {
		cfg.Renderer = PlainRenderer
	}
	return cfg
}

// ErrorPage returns a mapper for responses annotated with AnnotationErrorPage:
// it consumes the queue and replaces the body with the rendered messages,
// keeping status and headers. Any other response passes through untouched and
// the queue is left as is.
func ErrorPage(cfgs ...PageConfig) ResponseMapper {
	cfg := pageConfig(cfgs)
	return MapperFunc(func(c flash.Ctx, q *Queue, res *Response) error {
		if res.Annotation != AnnotationErrorPage {
			ctx.LoggerFromContext(c.Context()).Debug("error page skipped", "pending", q.Len())
			return nil
		}
		res.Body.Reset()
		return cfg.Renderer(&res.Body, q.Consume())
	})
}

// RenderPage returns a mapper for responses annotated with
// AnnotationRenderPage: it consumes the queue and appends the rendered
// messages to the body. Any other response passes through untouched and the
// queue is left as is.
func RenderPage(cfgs ...PageConfig) ResponseMapper {
	cfg := pageConfig(cfgs)
	return MapperFunc(func(c flash.Ctx, q *Queue, res *Response) error {
		if res.Annotation != AnnotationRenderPage {
			ctx.LoggerFromContext(c.Context()).Debug("render page skipped", "pending", q.Len())
			return nil
		}
		return cfg.Renderer(&res.Body, q.Consume())
	})
}
