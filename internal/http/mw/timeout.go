package mw

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// TimeoutConfig defines timeout behavior for different path patterns.
type TimeoutConfig struct {
	// Default timeout for most endpoints
	Default time.Duration
	// Extended timeout for long-running operations (rendering, LLM calls)
	Extended time.Duration
	// Paths that get the Extended timeout (e.g. "/buffered", "/extract")
	ExtendedPatterns []string
	// Paths that run without a deadline (e.g. "/streaming")
	SkipPatterns []string
}

// Timeout returns a middleware that applies a per-path request deadline. When a
// deadline passes chi's Timeout writes 504 after the handler returns.
func Timeout(cfg TimeoutConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		standard := middleware.Timeout(cfg.Default)(next)
		extended := standard
		if cfg.Extended > 0 {
			extended = middleware.Timeout(cfg.Extended)(next)
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case matchPath(r.URL.Path, cfg.SkipPatterns):
				next.ServeHTTP(w, r)
			case matchPath(r.URL.Path, cfg.ExtendedPatterns):
				extended.ServeHTTP(w, r)
			default:
				standard.ServeHTTP(w, r)
			}
		})
	}
}

// matchPath reports whether path is one of patterns or below one of them.
func matchPath(path string, patterns []string) bool {
	for _, p := range patterns {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}
