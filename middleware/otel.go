package middleware

import (
	"net/http"
	"time"

	"github.com/goflash/flash-messages"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/goflash/flash-messages/middleware"

// OTelConfig configures OTelWithConfig. Zero values fall back to the global
// tracer provider and propagator.
type OTelConfig struct {
	Tracer          trace.Tracer
	Propagator      propagation.TextMapPropagator
	ServiceName     string
	SpanName        func(flash.Ctx) string // default: "METHOD route"
	Attributes      func(flash.Ctx) []attribute.KeyValue
	ExtraAttributes []attribute.KeyValue
	// Filter returns true for requests that should not be traced.
	Filter func(flash.Ctx) bool
	// Status maps the final HTTP status and handler error to a span status.
	Status         func(code int, err error) (codes.Code, string)
	RecordDuration bool
}

// OTel returns tracing middleware with default settings.
//
//	a.Use(middleware.OTel("flash-messages"))
func OTel(serviceName string, extra ...attribute.KeyValue) flash.Middleware {
	return OTelWithConfig(OTelConfig{ServiceName: serviceName, ExtraAttributes: extra})
}

// OTelWithConfig returns middleware that extracts the incoming trace context,
// starts a server span around the rest of the chain and stores it in the
// request context, so inner layers can add events to it.
func OTelWithConfig(cfg OTelConfig) flash.Middleware {
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer(tracerName)
	}
	if cfg.Propagator == nil {
		cfg.Propagator = otel.GetTextMapPropagator()
	}
	if cfg.Status == nil {
		cfg.Status = defaultSpanStatus
	}

	return func(next flash.Handler) flash.Handler {
		return func(c flash.Ctx) error {
			if cfg.Filter != nil && cfg.Filter(c) {
				return next(c)
			}

			r := c.Request()
			parent := cfg.Propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			name := ""
			if cfg.SpanName != nil {
				name = cfg.SpanName(c)
			}
			if name == "" {
				route := c.Route()
				if route == "" {
					route = c.Path()
				}
				name = c.Method() + " " + route
			}

			attrs := []attribute.KeyValue{
				attribute.String("http.request.method", c.Method()),
				attribute.String("http.route", c.Route()),
				attribute.String("url.path", c.Path()),
				attribute.String("user_agent.original", r.UserAgent()),
			}
			if cfg.ServiceName != "" {
				attrs = append(attrs, attribute.String("service.name", cfg.ServiceName))
			}
			attrs = append(attrs, cfg.ExtraAttributes...)
			if cfg.Attributes != nil {
				attrs = append(attrs, cfg.Attributes(c)...)
			}

			start := time.Now()
			spanCtx, span := cfg.Tracer.Start(parent, name,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()
			c.SetRequest(r.WithContext(spanCtx))

			err := next(c)

			code := c.StatusCode()
			if code == 0 {
				code = http.StatusOK
				if err != nil {
					code = http.StatusInternalServerError
				}
			}
			span.SetAttributes(attribute.Int("http.response.status_code", code))
			if cfg.RecordDuration {
				span.SetAttributes(attribute.Float64("http.server.duration_ms", float64(time.Since(start).Microseconds())/1000.0))
			}
			if err != nil {
				span.RecordError(err)
			}
			sc, desc := cfg.Status(code, err)
			span.SetStatus(sc, desc)
			return err
		}
	}
}

func defaultSpanStatus(code int, err error) (codes.Code, string) {
	if err != nil {
		return codes.Error, err.Error()
	}
	if code >= http.StatusInternalServerError {
		return codes.Error, http.StatusText(code)
	}
	return codes.Unset, ""
}
