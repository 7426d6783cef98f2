package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedBreaker gobreaker.State

func (b fixedBreaker) State() gobreaker.State { return gobreaker.State(b) }

func TestHealthHandler_Live(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(nil, nil).Live(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestHealthHandler_Ready(t *testing.T) {
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name    string
		checks  map[string]Pinger
		status  int
		success bool
		redis   string
	}{
		{"all up", map[string]Pinger{"postgres": up, "redis": up}, http.StatusOK, true, "up"},
		{"redis down", map[string]Pinger{"postgres": up, "redis": down}, http.StatusServiceUnavailable, false, "down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealthHandler(tt.checks, fixedBreaker(gobreaker.StateOpen)).
				Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			require.Equal(t, tt.status, rec.Code)
			var report map[string]string
			resp := decodeBody(t, rec, &report)
			assert.Equal(t, tt.success, resp.Success)
			assert.Equal(t, tt.redis, report["redis"])
			assert.Equal(t, "open", report["backend"])
		})
	}
}
