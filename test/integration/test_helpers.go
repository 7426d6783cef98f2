//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"code2deploy-console/docs"
	"code2deploy-console/internal/avatar"
	"code2deploy-console/internal/backend"
	"code2deploy-console/internal/config"
	"code2deploy-console/internal/handler"
	"code2deploy-console/internal/middleware"
	"code2deploy-console/internal/model"
	"code2deploy-console/internal/repository"
	"code2deploy-console/internal/resource"
	"code2deploy-console/internal/router"
	"code2deploy-console/internal/seal"
	"code2deploy-console/internal/session"
)

const (
	testPassword  = "s3cret-pass"
	programsTotal = 45
)

// fakeAPI imitates the Django backend routes the console calls.
type fakeAPI struct {
	mu       sync.Mutex
	users    map[string]model.User
	tokens   map[string]string
	deleted  []string
	requests []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		users: map[string]model.User{
			"root":    {ID: 1, Username: "root", Email: "root@code2deploy.test", Role: model.RoleAdmin, IsActive: true},
			"mentora": {ID: 2, Username: "mentora", Email: "m@code2deploy.test", Role: model.RoleMentor, IsActive: true},
			"ada":     {ID: 3, Username: "ada", Email: "ada@code2deploy.test", Role: model.RoleLearner, IsActive: true},
			"sam":     {ID: 4, Username: "sam", Email: "sam@code2deploy.test", Role: "sponsor", IsActive: true},
		},
		tokens: map[string]string{},
	}
}

func (f *fakeAPI) issue(t *testing.T, username string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": username,
		"exp": time.Now().Add(time.Hour).Unix(),
		"jti": strconv.FormatInt(time.Now().UnixNano(), 36),
	}).SignedString([]byte("backend-secret"))
	require.NoError(t, err)

	f.mu.Lock()
	f.tokens[token] = username
	f.mu.Unlock()
	return token
}

func (f *fakeAPI) userFor(r *http.Request) (model.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name, ok := f.tokens[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
	if !ok {
		return model.User{}, false
	}
	return f.users[name], true
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/jwt/create/", func(w http.ResponseWriter, r *http.Request) {
		var creds model.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if _, ok := f.users[creds.Username]; !ok || creds.Password != testPassword {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"access":  f.issue(t, creds.Username),
			"refresh": "refresh-" + creds.Username,
		})
	})

	mux.HandleFunc("POST /api/auth/jwt/refresh/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		name, ok := strings.CutPrefix(body["refresh"], "refresh-")
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access": f.issue(t, name)})
	})

	mux.HandleFunc("GET /api/auth/me/", func(w http.ResponseWriter, r *http.Request) {
		user, ok := f.userFor(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
			return
		}
		writeJSON(w, http.StatusOK, user)
	})

	mux.HandleFunc("GET /api/programs/", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
		start := (page - 1) * size
		if page < 1 || start >= programsTotal {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Invalid page."})
			return
		}
		results := []map[string]any{}
		for i := start; i < min(start+size, programsTotal); i++ {
			results = append(results, map[string]any{"id": i + 1, "title": fmt.Sprintf("Program %d", i+1), "level": "Beginner"})
		}
		writeJSON(w, http.StatusOK, map[string]any{"count": programsTotal, "results": results})
	})

	mux.HandleFunc("DELETE /api/programs/{id}/", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := f.userFor(r); !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
			return
		}
		f.mu.Lock()
		f.deleted = append(f.deleted, r.PathValue("id"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

func (f *fakeAPI) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.RequestURI())
}

func (f *fakeAPI) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type consoleEnv struct {
	server *httptest.Server
	api    *fakeAPI
	redis  *miniredis.Miniredis
}

func newConsole(t *testing.T) *consoleEnv {
	t.Helper()

	api := newFakeAPI()
	backendServer := httptest.NewServer(api.handler(t))
	t.Cleanup(backendServer.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	cfg := &config.Config{
		APIURL:           backendServer.URL + "/api",
		BackendTimeout:   5 * time.Second,
		RequestTimeout:   10 * time.Second,
		SessionTTL:       time.Hour,
		SessionCookie:    "c2d_session",
		CORSOrigins:      []string{"http://localhost:5173"},
		RateLimitRPM:     1000,
		AuthRateLimitRPM: 1000,
		DeleteConfirmTTL: time.Minute,
		AvatarMaxBytes:   1 << 20,
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	sealer, err := seal.New("integration-session-secret-0123456789")
	require.NoError(t, err)
	client, err := backend.New(backend.DefaultConfig(cfg.APIURL), log)
	require.NoError(t, err)

	manager := session.NewManager(repository.NewSessionRepository(rdb, sealer, cfg.SessionTTL), client, log)
	sessions := middleware.NewSessionMiddleware(manager, cfg.SessionCookie)
	adminOpts := resource.Options{
		Confirmations: repository.NewConfirmationRepository(rdb),
		ConfirmTTL:    cfg.DeleteConfirmTTL,
		Logger:        log,
	}

	handlers := router.Handlers{
		Auth: handler.NewAuthHandler(manager, sessions, avatar.NewProcessor(cfg.AvatarMaxBytes, avatar.DefaultSize), handler.CookieConfig{
			Name:   cfg.SessionCookie,
			MaxAge: cfg.SessionTTL,
		}),
		Activity: handler.NewActivityHandler(repository.NewActivityRepository(pool)),
		Drafts:   handler.NewDraftHandler(repository.NewDraftRepository(pool)),
		Docs:     handler.NewDocsHandler(docs.OpenAPI),
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}, client),
		Admin: []handler.Mountable{
			handler.NewResourceHandler(resource.NewPanel[model.Program](resource.Programs, client, adminOpts), manager),
		},
	}

	server := httptest.NewServer(router.New(cfg, log, sessions, handlers))
	t.Cleanup(server.Close)

	return &consoleEnv{server: server, api: api, redis: mr}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
	Meta    *model.Meta     `json:"meta"`
}

func (e *consoleEnv) do(t *testing.T, method, path, sid string, body any, headers ...string) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sid != "" {
		req.Header.Set("Authorization", "Bearer "+sid)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

type loginResult struct {
	User      model.User `json:"user"`
	Route     string     `json:"route"`
	SessionID string     `json:"session_id"`
}

func (e *consoleEnv) login(t *testing.T, username string) loginResult {
	t.Helper()

	resp, env := e.do(t, http.MethodPost, "/api/v1/auth/login", "", model.Credentials{Username: username, Password: testPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Error)

	var result loginResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.NotEmpty(t, result.SessionID)
	return result
}
