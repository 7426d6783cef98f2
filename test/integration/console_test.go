//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code2deploy-console/internal/model"
	"code2deploy-console/internal/resource"
)

func TestLoginRoutesEachRole(t *testing.T) {
	env := newConsole(t)

	tests := []struct {
		username string
		route    string
	}{
		{"root", "/admin"},
		{"mentora", "/mentor-dashboard"},
		{"ada", "/learner-dashboard"},
		{"sam", "/learner-dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			result := env.login(t, tt.username)
			assert.Equal(t, tt.route, result.Route)

			resp, body := env.do(t, http.MethodGet, "/api/v1/dashboard", result.SessionID, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			var dash map[string]string
			require.NoError(t, json.Unmarshal(body.Data, &dash))
			assert.Equal(t, tt.route, dash["route"])
		})
	}
}

func TestLoginFailureLeavesNoSession(t *testing.T) {
	env := newConsole(t)

	resp, body := env.do(t, http.MethodPost, "/api/v1/auth/login", "", model.Credentials{Username: "root", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_CREDENTIALS", body.Error.Code)
	assert.Empty(t, resp.Cookies())
	assert.Empty(t, env.redis.Keys())
}

func TestSessionTokensAreSealedAtRest(t *testing.T) {
	env := newConsole(t)
	env.login(t, "root")

	keys := env.redis.Keys()
	require.Len(t, keys, 1)
	stored, err := env.redis.Get(keys[0])
	require.NoError(t, err)

	env.api.mu.Lock()
	defer env.api.mu.Unlock()
	for token := range env.api.tokens {
		assert.NotContains(t, stored, token)
	}
	assert.NotContains(t, stored, "refresh-root")
}

func TestStatusAndLogout(t *testing.T) {
	env := newConsole(t)
	sid := env.login(t, "ada").SessionID

	_, body := env.do(t, http.MethodGet, "/api/v1/auth/status", sid, nil)
	var status model.SessionStatus
	require.NoError(t, json.Unmarshal(body.Data, &status))
	assert.True(t, status.Authenticated)
	assert.Equal(t, "/learner-dashboard", status.Route)

	resp, _ := env.do(t, http.MethodPost, "/api/v1/auth/refresh", sid, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/v1/auth/logout", sid, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/me", sid, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, body = env.do(t, http.MethodGet, "/api/v1/auth/status", sid, nil)
	require.NoError(t, json.Unmarshal(body.Data, &status))
	assert.False(t, status.Authenticated)
}

func TestAdminPanelRequiresAdmin(t *testing.T) {
	env := newConsole(t)

	resp, _ := env.do(t, http.MethodGet, "/api/v1/admin/programs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/admin/programs", env.login(t, "mentora").SessionID, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminProgramsPagination(t *testing.T) {
	env := newConsole(t)
	sid := env.login(t, "root").SessionID

	tests := []struct {
		page  string
		items int
		first string
	}{
		{"1", 20, "Program 1"},
		{"3", 5, "Program 41"},
		{"7", 0, ""},
	}
	for _, tt := range tests {
		t.Run("page "+tt.page, func(t *testing.T) {
			resp, body := env.do(t, http.MethodGet, "/api/v1/admin/programs?page="+tt.page, sid, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var items []model.Program
			require.NoError(t, json.Unmarshal(body.Data, &items))
			assert.Len(t, items, tt.items)
			if tt.first != "" {
				assert.Equal(t, tt.first, items[0].Title)
			}
			require.NotNil(t, body.Meta)
			assert.Equal(t, programsTotal, body.Meta.Total)
			assert.Equal(t, 3, body.Meta.TotalPages)
			assert.Equal(t, resource.PageSize, body.Meta.Limit)
		})
	}
}

func TestAdminDeleteNeedsConfirmation(t *testing.T) {
	env := newConsole(t)
	sid := env.login(t, "root").SessionID

	resp, body := env.do(t, http.MethodDelete, "/api/v1/admin/programs/7", sid, nil)
	assert.Equal(t, http.StatusPreconditionRequired, resp.StatusCode)
	assert.Equal(t, "CONFIRMATION_REQUIRED", body.Error.Code)
	assert.Empty(t, env.api.deletedIDs())

	resp, body = env.do(t, http.MethodPost, "/api/v1/admin/programs/7/delete-request", sid, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var confirmation resource.Confirmation
	require.NoError(t, json.Unmarshal(body.Data, &confirmation))

	// bound to the record it was issued for
	resp, _ = env.do(t, http.MethodDelete, "/api/v1/admin/programs/8", sid, nil, "X-Confirm-Token", confirmation.Token)
	assert.Equal(t, http.StatusPreconditionRequired, resp.StatusCode)

	resp, body = env.do(t, http.MethodPost, "/api/v1/admin/programs/7/delete-request", sid, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body.Data, &confirmation))

	resp, _ = env.do(t, http.MethodDelete, "/api/v1/admin/programs/7", sid, nil, "X-Confirm-Token", confirmation.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"7"}, env.api.deletedIDs())

	resp, _ = env.do(t, http.MethodDelete, "/api/v1/admin/programs/7", sid, nil, "X-Confirm-Token", confirmation.Token)
	assert.Equal(t, http.StatusPreconditionRequired, resp.StatusCode)
	assert.Len(t, env.api.deletedIDs(), 1)
}

func TestOperationalEndpoints(t *testing.T) {
	env := newConsole(t)

	resp, _ := env.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/openapi.yaml", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	env.login(t, "root")
	metrics, err := http.Get(env.server.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	assert.Equal(t, http.StatusOK, metrics.StatusCode)
	assert.True(t, strings.HasPrefix(metrics.Header.Get("Content-Type"), "text/plain"))
}
