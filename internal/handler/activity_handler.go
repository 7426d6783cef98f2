package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"code2deploy-console/internal/model"
)

type activityReader interface {
	Query(ctx context.Context, query model.ActivityQuery) ([]model.Activity, model.Meta, error)
}

// ActivityHandler lists the console's own record of admin mutations.
type ActivityHandler struct {
	activity activityReader
}

func NewActivityHandler(activity activityReader) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	actorID, _ := strconv.ParseInt(strings.TrimSpace(query.Get("actor_id")), 10, 64)
	items, meta, err := h.activity.Query(r.Context(), model.ActivityQuery{
		Resource: strings.TrimSpace(query.Get("resource")),
		Action:   strings.TrimSpace(query.Get("action")),
		ActorID:  actorID,
		Status:   strings.TrimSpace(query.Get("status")),
		Page:     parseIntOrDefault(query.Get("page"), 1),
		Limit:    parseIntOrDefault(query.Get("limit"), 50),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, items, &meta)
}
