package messages

import (
	"github.com/goflash/flash-messages"
	"github.com/goflash/flash-messages/ctx"
	"github.com/goflash/flash-messages/session"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type queueContextKey struct{}

// ManagerConfig configures the Manager middleware.
type ManagerConfig struct {
	// Key is the session key holding the queue. Defaults to SessionKey.
	Key string
	// OnFlush, when set, is called once per request after the session holding
	// the queue has been saved, or the save has failed. st.Persisted tells
	// which.
	OnFlush func(c flash.Ctx, st FlushStats)
}

// Manager returns middleware that owns the message queue of the current
// session for the duration of a request. It must run inside session.Sessions.
//
// On the way in it loads the stored queue (empty when absent) into the request
// context. Right before the first header write, or when the chain returns if
// nothing was written, it writes the queue back into the session and clears
// it. The session is only touched when the queue was appended to or consumed;
// an emptied queue removes the key.
//
// Because the write-back happens at header time, it runs after every inner
// middleware and the handler have finished with a buffered response. Messages
// pushed after the response has started are not persisted.
func Manager(cfg ManagerConfig) flash.Middleware {
	if cfg.Key == "" {
		cfg.Key = SessionKey
	}
	return func(next flash.Handler) flash.Handler {
		return func(c flash.Ctx) error {
			sess := session.FromCtx(c)
			l := ctx.LoggerFromContext(c.Context())

			raw, _ := sess.Get(cfg.Key)
			stored, err := decode(raw)
			q := NewQueue(stored...)
			if err != nil {
				l.Warn("discarding unreadable flash messages", "err", err)
				// force the bad value out of the session
				q.modified = true
			}
			c.Set(queueContextKey{}, q)

			rw := c.ResponseWriter()
			flushed := false
			flush := func() {
				if flushed {
					return
				}
				flushed = true
				msgs, modified, st := q.drain()
				if modified {
					if len(msgs) == 0 {
						sess.Delete(cfg.Key)
					} else {
						sess.Set(cfg.Key, encode(msgs))
					}
				}
				trace.SpanFromContext(c.Context()).AddEvent("messages.flush", trace.WithAttributes(
					attribute.Int("messages.loaded", st.Loaded),
					attribute.Int("messages.pushed", st.Pushed),
					attribute.Int("messages.consumed", st.Consumed),
					attribute.Int("messages.remaining", st.Remaining),
				))
				if modified {
					l.Debug("flash messages flushed",
						"pushed", st.Pushed,
						"consumed", st.Consumed,
						"remaining", st.Remaining,
					)
				}
				sess.AfterSave(func(err error) {
					st.Persisted = err == nil
					if err != nil && modified {
						l.Warn("flash messages not persisted", "err", err)
					}
					q.setLastFlush(st)
					if cfg.OnFlush != nil {
						cfg.OnFlush(c, st)
					}
				})
			}
			c.SetResponseWriter(ctx.InterceptHeaderWrite(rw, flush))

			err = next(c)
			flush()
			return err
		}
	}
}

// FromCtx returns the request's message queue. Without the Manager middleware
// it returns a fresh queue that is never persisted.
func FromCtx(c flash.Ctx) *Queue {
	if q, ok := c.Get(queueContextKey{}).(*Queue); ok {
		return q
	}
	return NewQueue()
}
