package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/goflash/flash-messages"
	"github.com/goflash/flash-messages/ctx"
)

type sessionContextKey struct{}

// ErrNotManaged is reported to AfterSave callbacks of a session that no
// Sessions middleware will ever save.
var ErrNotManaged = errors.New("session: not managed by Sessions middleware")

// Session is the per-request view of a session record. ID is empty until the
// record exists in the store or is first saved.
type Session struct {
	ID      string
	Values  map[string]any
	changed bool

	managed bool
	saved   bool
	saveErr error
	hooks   []func(error)
}

func (s *Session) Get(key string) (any, bool) { v, ok := s.Values[key]; return v, ok }
func (s *Session) Set(key string, v any)      { s.Values[key] = v; s.changed = true }
func (s *Session) Delete(key string)          { delete(s.Values, key); s.changed = true }

// Changed reports whether the record was modified during this request.
func (s *Session) Changed() bool { return s.changed }

// AfterSave registers fn to run once the middleware has finished with the
// record: with nil when it was saved or needed no save, with the store error
// otherwise. If that already happened fn runs immediately.
func (s *Session) AfterSave(fn func(error)) {
	switch {
	case !s.managed:
		fn(ErrNotManaged)
	case s.saved:
		fn(s.saveErr)
	default:
		s.hooks = append(s.hooks, fn)
	}
}

func (s *Session) finish(err error) {
	s.saved, s.saveErr = true, err
	hooks := s.hooks
	s.hooks = nil
	for _, fn := range hooks {
		fn(err)
	}
}

// Config configures the Sessions middleware.
type Config struct {
	Store      Store
	TTL        time.Duration
	CookieName string
	CookiePath string
	Domain     string
	Secure     bool
	HTTPOnly   bool
	SameSite   http.SameSite
	HeaderName string // if set, read/write session id via header as well
	// Persistent gives the cookie an expiry of TTL. By default it is a
	// browser-session cookie; the record still expires in the store after TTL.
	Persistent bool
}

func defaultConfig() Config {
	return Config{
		Store:      NewMemoryStore(),
		TTL:        24 * time.Hour,
		CookieName: "flash.sid",
		CookiePath: "/",
		HTTPOnly:   true,
		SameSite:   http.SameSiteLaxMode,
	}
}

// Sessions returns middleware that loads the session record on the way in and
// persists it right before the first header write, so Set-Cookie still reaches
// the client. If nothing is written the record is persisted when the chain
// returns.
//
// A record is saved only when it changed. Ids are only ever issued by the
// server: an id the store does not know (expired, never issued, or unreadable)
// is ignored and a fresh one is generated on first change. Store errors never
// fail the request: a failed load yields an empty record and a failed save is
// logged.
func Sessions(cfg Config) flash.Middleware {
	def := defaultConfig()
	if cfg.Store == nil {
		cfg.Store = def.Store
	}
	if cfg.TTL == 0 {
		cfg.TTL = def.TTL
	}
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = def.CookiePath
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = def.SameSite
	}

	return func(next flash.Handler) flash.Handler {
		return func(c flash.Ctx) error {
			r := c.Request()
			l := ctx.LoggerFromContext(r.Context())
			sess := load(r.Context(), cfg.Store, readSessionID(r, cfg), l.Warn)

			c.SetRequest(r.WithContext(context.WithValue(r.Context(), sessionContextKey{}, sess)))

			// Cookies go to the writer being wrapped: by flush time c's writer may
			// be an inner buffer.
			rw := c.ResponseWriter()
			flushed := false
			flush := func() {
				if flushed {
					return
				}
				flushed = true
				if !sess.changed {
					sess.finish(nil)
					return
				}
				if sess.ID == "" {
					sess.ID = newSessionID()
				}
				if err := cfg.Store.Save(c.Context(), sess.ID, sess.Values, cfg.TTL); err != nil {
					l.Error("session save failed", "err", err)
					sess.finish(err)
					return
				}
				writeSessionID(rw, sess.ID, cfg)
				sess.finish(nil)
			}
			c.SetResponseWriter(ctx.InterceptHeaderWrite(rw, flush))

			err := next(c)
			flush()
			return err
		}
	}
}

func load(ctx context.Context, store Store, id string, warn func(string, ...any)) *Session {
	fresh := &Session{Values: map[string]any{}, managed: true}
	if id == "" {
		return fresh
	}
	vals, ok, err := store.Get(ctx, id)
	if err != nil {
		warn("session load failed", "err", err)
		return fresh
	}
	if !ok {
		return fresh
	}
	if vals == nil {
		vals = map[string]any{}
	}
	return &Session{ID: id, Values: vals, managed: true}
}

// FromCtx returns the Session loaded by the Sessions middleware, or an empty
// detached session when the middleware is not installed.
func FromCtx(c flash.Ctx) *Session {
	if s, ok := c.Context().Value(sessionContextKey{}).(*Session); ok {
		return s
	}
	return &Session{Values: map[string]any{}}
}

func readSessionID(r *http.Request, cfg Config) string {
	if cfg.HeaderName != "" {
		if hv := r.Header.Get(cfg.HeaderName); hv != "" {
			return hv
		}
	}
	if ck, err := r.Cookie(cfg.CookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	return ""
}

func writeSessionID(w http.ResponseWriter, id string, cfg Config) {
	if cfg.HeaderName != "" {
		w.Header().Set(cfg.HeaderName, id)
	}
	ck := &http.Cookie{
		Name:     cfg.CookieName,
		Value:    id,
		Path:     cfg.CookiePath,
		Domain:   cfg.Domain,
		Secure:   cfg.Secure,
		HttpOnly: cfg.HTTPOnly,
		SameSite: cfg.SameSite,
	}
	if cfg.Persistent {
		ck.Expires = time.Now().Add(cfg.TTL)
		ck.MaxAge = int(cfg.TTL / time.Second)
	}
	http.SetCookie(w, ck)
}

func newSessionID() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
