package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows credentials so the session cookie travels with SPA calls;
// a wildcard origin is therefore never used.
func CORS(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "If-Match", "X-Confirm-Token", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Length", "X-Request-ID"},
		MaxAge:           3600,
		AllowCredentials: true,
	}
	if len(origins) == 0 {
		// rs/cors treats an empty list as "any origin".
		opts.AllowOriginFunc = func(string) bool { return false }
	}

	return cors.New(opts).Handler
}
