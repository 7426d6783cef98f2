package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code2deploy-console/internal/logger"
	"code2deploy-console/internal/model"
)

type stubSessions struct {
	users map[string]*model.User
	err   error
}

func (s stubSessions) CurrentUser(_ context.Context, sid string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if user, ok := s.users[sid]; ok {
		return user, nil
	}
	return nil, model.ErrUnauthenticated
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) model.APIError {
	t.Helper()
	var body model.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.False(t, body.Success)
	return *body.Error
}

func TestRequireSession(t *testing.T) {
	admin := &model.User{ID: 1, Username: "root", Role: model.RoleAdmin}
	mw := NewSessionMiddleware(stubSessions{users: map[string]*model.User{"sid-1": admin}}, "c2d_session")

	var seen *model.User
	var seenSID string
	handler := mw.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		seenSID = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "c2d_session", Value: "sid-1"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, admin, seen)
		assert.Equal(t, "sid-1", seenSID)
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer sid-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code)
	})

	t.Run("unknown session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireSession_BackendDown(t *testing.T) {
	mw := NewSessionMiddleware(stubSessions{err: fmt.Errorf("refresh: %w", model.ErrNetwork)}, "c2d_session")
	handler := mw.RequireSession(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer sid-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "BACKEND_UNAVAILABLE", decodeError(t, rec).Code)
}

func TestRequireSession_UnexpectedError(t *testing.T) {
	mw := NewSessionMiddleware(stubSessions{err: errors.New("redis exploded")}, "c2d_session")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer sid-1")
	rec := httptest.NewRecorder()
	mw.RequireSession(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "redis exploded")
}

func TestRequireRoles(t *testing.T) {
	users := map[string]*model.User{
		"admin":   {ID: 1, Role: model.Role("Admin")},
		"mentor":  {ID: 2, Role: model.RoleMentor},
		"learner": {ID: 3, Role: model.RoleLearner},
	}
	mw := NewSessionMiddleware(stubSessions{users: users}, "c2d_session")
	handler := mw.RequireSession(mw.RequireRoles(model.RoleAdmin)(okHandler()))

	cases := map[string]int{
		"admin":   http.StatusOK,
		"mentor":  http.StatusForbidden,
		"learner": http.StatusForbidden,
	}
	for sid, want := range cases {
		t.Run(sid, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+sid)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, want, rec.Code)
		})
	}
}

func TestRequireRoles_WithoutSession(t *testing.T) {
	mw := NewSessionMiddleware(stubSessions{}, "c2d_session")
	rec := httptest.NewRecorder()
	mw.RequireRoles(model.RoleAdmin)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogging_RequestIDAndRoute(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(Logging(base))
	var ctxID string
	r.Get("/api/v1/admin/{resource}/{id}", func(w http.ResponseWriter, r *http.Request) {
		ctxID = logger.RequestIDFromContext(r.Context())
		writeJSONError(w, http.StatusNotFound, "NOT_FOUND", "record not found")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/programs/9", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
	assert.Equal(t, "req-42", ctxID)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "req-42", line["request_id"])
	assert.Equal(t, "/api/v1/admin/{resource}/{id}", line["route"])
	assert.Equal(t, "NOT_FOUND", line["error_code"])
}

func TestLogging_GeneratesRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	Logging(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))(okHandler()).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)
}

func TestRecovery(t *testing.T) {
	handler := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, rec).Code)
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestCORS_CredentialedOrigin(t *testing.T) {
	handler := CORS([]string{"https://console.code2deploy.dev"})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/auth/me", nil)
	req.Header.Set("Origin", "https://console.code2deploy.dev")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "https://console.code2deploy.dev", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	other := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	other.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_NoOriginsDeniesAll(t *testing.T) {
	handler := CORS(nil)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://anything.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
