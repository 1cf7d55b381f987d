package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/tasktrack/tasktrack/internal/auth"
)

// DefaultMinAuthDuration is the minimum time spent on a rejected credential.
const DefaultMinAuthDuration = 200 * time.Millisecond

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Resolver *auth.Resolver
	// MinDuration pads rejected requests to a constant time. Zero disables it.
	MinDuration time.Duration
}

// Auth returns a middleware that authenticates requests with a bearer token.
// The resolved identity is injected into the request context and the request
// logger gains a user_id attribute.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			logger := slogcontext.FromCtx(r.Context())

			identity, err := cfg.Resolver.Resolve(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				padDuration(start, cfg.MinDuration)

				var rejection *auth.RejectionError
				if errors.As(err, &rejection) || errors.Is(err, auth.ErrUnauthorized) {
					reason := auth.ReasonInvalidToken
					if rejection != nil {
						reason = rejection.Reason
					}
					logger.Warn("authentication failed",
						slog.String("reason", reason),
						slog.String("ip", r.RemoteAddr),
						slog.String("endpoint", r.Method+" "+r.URL.Path),
					)
					writeAuthError(w)
					return
				}

				logger.Error("authentication lookup failed", slog.String("error", err.Error()))
				writeJSONError(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			ctx := auth.ContextWithIdentity(r.Context(), identity)
			ctx = slogcontext.NewCtx(ctx, logger.With(slog.String("user_id", identity.UserID)))

			slogcontext.FromCtx(ctx).Debug("authentication successful",
				slog.String("token_prefix", identity.TokenPrefix),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func padDuration(start time.Time, floor time.Duration) {
	if elapsed := time.Since(start); elapsed < floor {
		time.Sleep(floor - elapsed)
	}
}

// writeAuthError writes a 401 Unauthorized response.
// Every failure uses the same body to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}`))
}
