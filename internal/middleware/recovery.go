package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"code2deploy-console/internal/logger"
)

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}
				logger.FromContext(r.Context()).Error("panic recovered",
					"error", fmt.Sprintf("%v", recovered),
					"stack", string(debug.Stack()),
				)
				writeJSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
