package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"
)

const defaultRequestTimeout = 30 * time.Second

// Timeout puts a deadline on the request context. Backend calls share that
// context, so they are cancelled with it and the handler maps the
// resulting error to 504. A handler that returns past the deadline without
// writing anything still gets a TIMEOUT envelope.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			tw := &timeoutWriter{ResponseWriter: w}
			next.ServeHTTP(tw, r.WithContext(ctx))

			if !tw.wrote && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				writeJSONError(w, http.StatusGatewayTimeout, "TIMEOUT", "The request took too long")
			}
		})
	}
}

type timeoutWriter struct {
	http.ResponseWriter
	wrote bool
}

func (w *timeoutWriter) WriteHeader(status int) {
	w.wrote = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *timeoutWriter) Write(b []byte) (int, error) {
	w.wrote = true
	return w.ResponseWriter.Write(b)
}

func (w *timeoutWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
