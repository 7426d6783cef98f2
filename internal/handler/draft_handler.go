package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"code2deploy-console/internal/middleware"
	"code2deploy-console/internal/model"
	"code2deploy-console/internal/validation"
)

type draftStore interface {
	Get(ctx context.Context, userID int64, pageKey string) (*model.Draft, error)
	Upsert(ctx context.Context, d *model.Draft) error
	Delete(ctx context.Context, userID int64, pageKey string) error
}

// DraftHandler keeps per-admin page-section drafts. Drafts are a
// convenience copy and never reach the backend.
type DraftHandler struct {
	drafts draftStore
}

func NewDraftHandler(drafts draftStore) *DraftHandler {
	return &DraftHandler{drafts: drafts}
}

type draftPayload struct {
	Sections json.RawMessage `json:"sections"`
}

func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, key, ok := h.target(w, r)
	if !ok {
		return
	}

	draft, err := h.drafts.Get(r.Context(), user.ID, key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, draft, nil)
}

func (h *DraftHandler) Save(w http.ResponseWriter, r *http.Request) {
	user, key, ok := h.target(w, r)
	if !ok {
		return
	}

	var payload draftPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}
	trimmed := strings.TrimSpace(string(payload.Sections))
	if trimmed == "" || (trimmed[0] != '[' && trimmed[0] != '{') {
		writeError(w, r, validation.NewError(map[string]string{"sections": "must be a JSON array or object"}))
		return
	}

	draft := &model.Draft{UserID: user.ID, PageKey: key, Sections: payload.Sections}
	if err := h.drafts.Upsert(r.Context(), draft); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, draft, nil)
}

func (h *DraftHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, key, ok := h.target(w, r)
	if !ok {
		return
	}

	if err := h.drafts.Delete(r.Context(), user.ID, key); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]bool{"deleted": true}, nil)
}

func (h *DraftHandler) target(w http.ResponseWriter, r *http.Request) (*model.User, string, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, model.ErrUnauthenticated)
		return nil, "", false
	}

	key := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "key")))
	if !validPageKey(key) {
		writeError(w, r, validation.NewError(map[string]string{"key": "must be 1-64 characters of a-z, 0-9 or -"}))
		return nil, "", false
	}
	return user, key, true
}

func validPageKey(key string) bool {
	if key == "" || len(key) > 64 {
		return false
	}
	for _, c := range key {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return false
		}
	}
	return true
}
