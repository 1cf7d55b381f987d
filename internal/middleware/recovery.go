package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	slogcontext "github.com/veqryn/slog-context"
)

// Recoverer turns a handler panic into a 500 JSON response. The panic is
// logged with the request-scoped logger so it carries the request ID.
// http.ErrAbortHandler is re-raised for net/http to handle.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			slogcontext.FromCtx(r.Context()).Error("panic recovered",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Any("panic", rvr),
				slog.String("stack", string(debug.Stack())),
			)
			writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		}()

		next.ServeHTTP(w, r)
	})
}
