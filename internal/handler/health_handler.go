package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"code2deploy-console/internal/model"
)

// Pinger is a dependency the console cannot serve without.
type Pinger func(ctx context.Context) error

type breakerState interface {
	State() gobreaker.State
}

type HealthHandler struct {
	checks  map[string]Pinger
	backend breakerState
}

func NewHealthHandler(checks map[string]Pinger, backend breakerState) *HealthHandler {
	return &HealthHandler{checks: checks, backend: backend}
}

// Live only reports that the process is serving.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready pings storage and reports the backend circuit breaker. An open
// breaker degrades the console but does not make it unready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	report := map[string]string{}
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			report[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		report[name] = "up"
	}
	if h.backend != nil {
		report["backend"] = h.backend.State().String()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{Success: status == http.StatusOK, Data: report})
}
