package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goflash/flash-messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionApp(cfg Config) *flash.DefaultApp {
	a := flash.New()
	a.Use(Sessions(cfg))
	a.GET("/set", func(c flash.Ctx) error {
		FromCtx(c).Set("k", "v")
		return c.String(http.StatusOK, "ok")
	})
	a.GET("/get", func(c flash.Ctx) error {
		if v, ok := FromCtx(c).Get("k"); ok {
			return c.String(http.StatusOK, v.(string))
		}
		return c.String(http.StatusNotFound, "missing")
	})
	a.GET("/del", func(c flash.Ctx) error {
		FromCtx(c).Delete("k")
		return c.String(http.StatusOK, "ok")
	})
	return a
}

func do(a http.Handler, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	a.ServeHTTP(rec, req)
	return rec
}

func TestSessionsCookieRoundTrip(t *testing.T) {
	a := newSessionApp(Config{Store: NewMemoryStore(), TTL: time.Hour, CookieName: "sid"})

	rec := do(a, "/set", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cks := rec.Result().Cookies()
	require.Len(t, cks, 1)
	assert.Equal(t, "sid", cks[0].Name)
	assert.True(t, cks[0].HttpOnly)

	rec = do(a, "/get", cks)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v", rec.Body.String())
}

func TestSessionsSecureFlag(t *testing.T) {
	for _, secure := range []bool{false, true} {
		a := newSessionApp(Config{Secure: secure})
		cks := do(a, "/set", nil).Result().Cookies()
		require.Len(t, cks, 1)
		assert.Equal(t, "flash.sid", cks[0].Name)
		assert.Equal(t, secure, cks[0].Secure)
	}
}

func TestSessionDeleteBranch(t *testing.T) {
	a := newSessionApp(Config{Store: NewMemoryStore(), CookieName: "sid"})
	cks := do(a, "/set", nil).Result().Cookies()
	do(a, "/del", cks)
	rec := do(a, "/get", cks)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionsHeaderBasedID(t *testing.T) {
	a := newSessionApp(Config{Store: NewMemoryStore(), HeaderName: "X-SID"})

	rec := do(a, "/set", nil)
	sid := rec.Header().Get("X-SID")
	require.NotEmpty(t, sid)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/get", nil)
	req.Header.Set("X-SID", sid)
	a.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v", rec.Body.String())
}

func TestSessionsUnknownIDIsNotAdopted(t *testing.T) {
	store := NewMemoryStore()
	a := newSessionApp(Config{Store: store, CookieName: "sid", HeaderName: "X-SID"})
	planted := []*http.Cookie{{Name: "sid", Value: "abc123"}}

	rec := do(a, "/get", planted)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
	assert.Empty(t, rec.Header().Get("X-SID"))
	assert.Equal(t, 0, store.Len())

	rec = do(a, "/set", planted)
	cks := rec.Result().Cookies()
	require.Len(t, cks, 1)
	assert.NotEqual(t, "abc123", cks[0].Value)
	assert.Equal(t, cks[0].Value, rec.Header().Get("X-SID"))

	_, ok, err := store.Get(context.Background(), "abc123")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "missing", do(a, "/get", planted).Body.String())
	assert.Equal(t, "v", do(a, "/get", cks).Body.String())
}

func TestSessionsKnownIDIsKept(t *testing.T) {
	store := NewMemoryStore()
	a := newSessionApp(Config{Store: store, CookieName: "sid"})
	cks := do(a, "/set", nil).Result().Cookies()
	require.Len(t, cks, 1)

	rec := do(a, "/set", cks)
	again := rec.Result().Cookies()
	require.Len(t, again, 1)
	assert.Equal(t, cks[0].Value, again[0].Value)
	assert.Equal(t, 1, store.Len())
}

func TestSessionsCookieLifetime(t *testing.T) {
	cks := do(newSessionApp(Config{TTL: time.Hour}), "/set", nil).Result().Cookies()
	require.Len(t, cks, 1)
	assert.True(t, cks[0].Expires.IsZero(), "browser-session cookie by default")
	assert.Equal(t, 0, cks[0].MaxAge)

	cks = do(newSessionApp(Config{TTL: time.Hour, Persistent: true}), "/set", nil).Result().Cookies()
	require.Len(t, cks, 1)
	assert.WithinDuration(t, time.Now().Add(time.Hour), cks[0].Expires, time.Minute)
	assert.Equal(t, 3600, cks[0].MaxAge)
}

func TestSessionsNoIDNoChangesNoCookie(t *testing.T) {
	store := NewMemoryStore()
	a := newSessionApp(Config{Store: store})
	rec := do(a, "/get", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, 0, store.Len())
}

func TestSessionsCookieWrittenBeforeRawWrites(t *testing.T) {
	tests := []struct {
		name  string
		write func(w http.ResponseWriter)
		code  int
	}{
		{"body", func(w http.ResponseWriter) { _, _ = w.Write([]byte("ok")) }, http.StatusOK},
		{"header", func(w http.ResponseWriter) { w.WriteHeader(http.StatusFound) }, http.StatusFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := flash.New()
			a.Use(Sessions(Config{CookieName: "sid"}))
			a.GET("/w", func(c flash.Ctx) error {
				FromCtx(c).Set("k", "v")
				tt.write(c.ResponseWriter())
				return nil
			})
			rec := do(a, "/w", nil)
			assert.Equal(t, tt.code, rec.Code)
			assert.Len(t, rec.Result().Cookies(), 1)
		})
	}
}

// An inner middleware that swaps the writer must not swallow the cookie.
func TestSessionsCookieSurvivesInnerWriterSwap(t *testing.T) {
	a := flash.New()
	a.Use(Sessions(Config{CookieName: "sid"}))
	a.GET("/swap", func(c flash.Ctx) error {
		FromCtx(c).Set("k", "v")
		outer := c.ResponseWriter()
		c.SetResponseWriter(httptest.NewRecorder())
		outer.WriteHeader(http.StatusNoContent)
		return nil
	})
	rec := do(a, "/swap", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, rec.Result().Cookies(), 1)
}

type failingStore struct{ getErr, saveErr error }

func (f failingStore) Get(context.Context, string) (map[string]any, bool, error) {
	return nil, false, f.getErr
}
func (f failingStore) Save(context.Context, string, map[string]any, time.Duration) error {
	return f.saveErr
}
func (f failingStore) Delete(context.Context, string) error { return nil }

func TestSessionsStoreErrorsDoNotFailRequest(t *testing.T) {
	boom := errors.New("boom")
	a := newSessionApp(Config{Store: failingStore{getErr: boom, saveErr: boom}, CookieName: "sid"})

	rec := do(a, "/get", []*http.Cookie{{Name: "sid", Value: "x"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(a, "/set", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies(), "no cookie for a record that was not saved")
}

func TestSessionAfterSave(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		store Store
		path  string
		want  error
	}{
		{"saved", NewMemoryStore(), "/set", nil},
		{"unchanged", NewMemoryStore(), "/get", nil},
		{"save failed", failingStore{saveErr: boom}, "/set", boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []error
			a := flash.New()
			a.Use(Sessions(Config{Store: tt.store}))
			a.GET("/set", func(c flash.Ctx) error {
				s := FromCtx(c)
				s.AfterSave(func(err error) { got = append(got, err) })
				s.Set("k", "v")
				assert.Empty(t, got, "runs only once the record is done")
				return c.String(http.StatusOK, "ok")
			})
			a.GET("/get", func(c flash.Ctx) error {
				FromCtx(c).AfterSave(func(err error) { got = append(got, err) })
				return c.String(http.StatusOK, "ok")
			})
			do(a, tt.path, nil)
			require.Len(t, got, 1)
			assert.ErrorIs(t, got[0], tt.want)
			if tt.want == nil {
				assert.NoError(t, got[0])
			}
		})
	}
}

func TestSessionAfterSaveOnceDone(t *testing.T) {
	var late error = errors.New("unset")
	a := flash.New()
	a.Use(Sessions(Config{}))
	a.GET("/x", func(c flash.Ctx) error {
		s := FromCtx(c)
		s.Set("k", "v")
		if err := c.String(http.StatusOK, "ok"); err != nil {
			return err
		}
		s.AfterSave(func(err error) { late = err })
		return nil
	})
	do(a, "/x", nil)
	assert.NoError(t, late)
}

func TestFromCtxWithoutMiddleware(t *testing.T) {
	a := flash.New()
	a.GET("/x", func(c flash.Ctx) error {
		s := FromCtx(c)
		_, ok := s.Get("k")
		assert.False(t, ok)
		assert.Empty(t, s.ID)
		assert.False(t, s.Changed())
		var got error
		s.AfterSave(func(err error) { got = err })
		assert.ErrorIs(t, got, ErrNotManaged)
		return c.String(http.StatusOK, "ok")
	})
	rec := do(a, "/x", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewSessionIDUnique(t *testing.T) {
	a, b := newSessionID(), newSessionID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
}
