package app

import (
	"net/http"

	"github.com/goflash/flash-messages/ctx"
)

// defaultErrorHandler logs the error and writes a 500 if the response has not
// started yet.
func defaultErrorHandler(c ctx.Ctx, err error) {
	ctx.LoggerFromContext(c.Context()).Error("handler error",
		"method", c.Method(),
		"path", c.Path(),
		"err", err,
	)
	if c.WroteHeader() {
		return
	}
	_ = c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func methodNotAllowedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte(http.StatusText(http.StatusMethodNotAllowed)))
	})
}
