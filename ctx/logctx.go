package ctx

import (
	"context"
	"log/slog"
)

type loggerContextKey struct{}

// ContextWithLogger returns a context carrying l. The app injects its logger on
// every request; middleware may replace it with an enriched one:
//
//	l := ctx.LoggerFromContext(c.Context()).With("session", sid)
//	c.SetRequest(c.Request().WithContext(ctx.ContextWithLogger(c.Context(), l)))
func ContextWithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, l)
}

// LoggerFromContext returns the logger stored in ctx, or slog.Default.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
