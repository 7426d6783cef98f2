package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"code2deploy-console/internal/logger"
	"code2deploy-console/internal/model"
)

type sessionReader interface {
	CurrentUser(ctx context.Context, sid string) (*model.User, error)
}

type contextKey string

const (
	sessionIDContextKey contextKey = "session_id"
	userContextKey      contextKey = "session_user"
)

// SessionMiddleware resolves the console session from the session cookie
// or an "Authorization: Bearer <session id>" header.
type SessionMiddleware struct {
	sessions   sessionReader
	cookieName string
}

func NewSessionMiddleware(sessions sessionReader, cookieName string) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, cookieName: cookieName}
}

// SessionID extracts the raw session id without checking it.
func (m *SessionMiddleware) SessionID(r *http.Request) string {
	if c, err := r.Cookie(m.cookieName); err == nil && strings.TrimSpace(c.Value) != "" {
		return strings.TrimSpace(c.Value)
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func (m *SessionMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := m.SessionID(r)
		if sid == "" {
			writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
			return
		}

		user, err := m.sessions.CurrentUser(r.Context(), sid)
		switch {
		case err == nil:
		case errors.Is(err, model.ErrUnauthenticated):
			writeUnauthorized(w, "UNAUTHORIZED", "session expired or invalid")
			return
		case errors.Is(err, model.ErrNetwork), errors.Is(err, model.ErrBackendUnavailable):
			writeJSONError(w, http.StatusServiceUnavailable, "BACKEND_UNAVAILABLE", "backend is unreachable")
			return
		default:
			logger.FromContext(r.Context()).Error("session lookup failed", "error", err.Error())
			writeJSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected server error")
			return
		}

		ctx := context.WithValue(r.Context(), sessionIDContextKey, sid)
		ctx = context.WithValue(ctx, userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles must run after RequireSession. Roles are compared after
// normalisation, so "Admin" and "admin" match.
func (m *SessionMiddleware) RequireRoles(allowedRoles ...model.Role) func(http.Handler) http.Handler {
	roleSet := map[model.Role]struct{}{}
	for _, role := range allowedRoles {
		roleSet[role.Normalize()] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
				return
			}

			if _, exists := roleSet[user.Role.Normalize()]; !exists {
				writeUnauthorized(w, "FORBIDDEN", "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	return user, ok && user != nil
}

func SessionIDFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(sessionIDContextKey).(string)
	return sid
}

func writeUnauthorized(w http.ResponseWriter, code string, message string) {
	status := http.StatusUnauthorized
	if code == "FORBIDDEN" {
		status = http.StatusForbidden
	}
	writeJSONError(w, status, code, message)
}
