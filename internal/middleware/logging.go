package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"code2deploy-console/internal/logger"
)

const requestIDHeader = "X-Request-ID"

// errorBody is a minimal struct used to extract error details from JSON responses.
type errorBody struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

// Logging assigns a request id, scopes a request logger into the context
// and writes one access line per request.
func Logging(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, requestID)

			reqLogger := base.With("request_id", requestID)
			ctx := logger.WithRequestID(r.Context(), requestID)
			ctx = logger.NewContext(ctx, reqLogger)

			started := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r.WithContext(ctx))

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.status,
				"duration_ms", time.Since(started).Milliseconds(),
				"client_ip", ClientIPFromRequest(r),
			}

			if rctx := chi.RouteContext(ctx); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					attrs = append(attrs, "route", pattern)
				}
			}

			// Query strings can carry search terms, so only error lines get them.
			if wrapped.status >= 400 && r.URL.RawQuery != "" {
				attrs = append(attrs, "query", r.URL.RawQuery)
			}

			if wrapped.status >= 400 && wrapped.body.Len() > 0 {
				var parsed errorBody
				if err := json.Unmarshal(wrapped.body.Bytes(), &parsed); err == nil && parsed.Error != nil {
					attrs = append(attrs, "error_code", parsed.Error.Code, "error_message", parsed.Error.Message)
					if parsed.Error.Details != "" {
						attrs = append(attrs, "error_details", parsed.Error.Details)
					}
				}
			}

			switch {
			case wrapped.status >= 500:
				reqLogger.Error("request", attrs...)
			case wrapped.status >= 400:
				reqLogger.Warn("request", attrs...)
			default:
				reqLogger.Info("request", attrs...)
			}
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status      int
	body        bytes.Buffer
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if rw.wroteHeader {
		return
	}
	rw.status = statusCode
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	// Capture the body only for error responses so we can log error details.
	if rw.status >= 400 && rw.body.Len() < 4096 {
		rw.body.Write(b)
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}
