package handler

import (
	"net/http"
	"regexp"
	"slices"

	"github.com/go-chi/cors"
)

// CORS allows the listed site origins plus any origin matching pattern
// (the hosting platform's preview domains). pattern may be nil.
func CORS(allowed []string, pattern *regexp.Regexp) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			if slices.Contains(allowed, origin) {
				return true
			}
			return pattern != nil && pattern.MatchString(origin)
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", idempotencyKeyHeader},
		ExposedHeaders:   []string{replayedHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
