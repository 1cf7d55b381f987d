package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Methods and headers browsers may use against the API. They follow the
// routes and the bearer-token authentication of the service.
var (
	corsMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete,
	}, ", ")
	corsHeaders = strings.Join([]string{"Authorization", "Content-Type", RequestIDHeader}, ", ")
)

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	// AllowedOrigins are exact origins ("https://app.example.com") or
	// subdomain patterns ("https://*.example.com"). Empty denies every
	// cross-origin request.
	AllowedOrigins []string
	// MaxAge is how long browsers may cache a preflight response.
	MaxAge time.Duration
}

// DefaultCORSConfig denies cross-origin requests and caches preflights for a day.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{MaxAge: 24 * time.Hour}
}

// originPattern matches "<scheme>://*.<domain>" origins.
type originPattern struct {
	scheme string // "https://"
	suffix string // ".example.com"
}

// originMatcher decides whether an Origin header value is allowed.
type originMatcher struct {
	exact    map[string]struct{}
	patterns []originPattern
}

func newOriginMatcher(origins []string) *originMatcher {
	m := &originMatcher{exact: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		origin = strings.ToLower(strings.TrimSpace(origin))
		scheme, host, found := strings.Cut(origin, "://")
		if found && strings.HasPrefix(host, "*.") {
			m.patterns = append(m.patterns, originPattern{scheme: scheme + "://", suffix: host[1:]})
			continue
		}
		if origin != "" {
			m.exact[origin] = struct{}{}
		}
	}
	return m
}

func (m *originMatcher) allows(origin string) bool {
	origin = strings.ToLower(origin)
	if _, ok := m.exact[origin]; ok {
		return true
	}
	for _, p := range m.patterns {
		host, ok := strings.CutPrefix(origin, p.scheme)
		if ok && len(host) > len(p.suffix) && strings.HasSuffix(host, p.suffix) {
			return true
		}
	}
	return false
}

// CORS answers preflight requests and tags responses for allowed origins.
// Requests without an Origin header pass through untouched. A preflight
// from a foreign origin is refused with 403; other requests from it are
// served without CORS headers so the browser withholds the response.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	matcher := newOriginMatcher(cfg.AllowedOrigins)
	maxAge := ""
	if cfg.MaxAge > 0 {
		maxAge = strconv.Itoa(int(cfg.MaxAge / time.Second))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

			if !matcher.allows(origin) {
				if preflight {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Expose-Headers", RequestIDHeader)

			if preflight {
				h.Set("Access-Control-Allow-Methods", corsMethods)
				h.Set("Access-Control-Allow-Headers", corsHeaders)
				if maxAge != "" {
					h.Set("Access-Control-Max-Age", maxAge)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
