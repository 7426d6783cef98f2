package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"code2deploy-console/internal/backend"
	"code2deploy-console/internal/middleware"
	"code2deploy-console/internal/model"
	"code2deploy-console/internal/resource"
	"code2deploy-console/internal/upload"
	"code2deploy-console/pkg/apierror"
)

const (
	confirmTokenHeader = "X-Confirm-Token"
	maxUploadBytes     = 10 << 20
)

type credentialSource interface {
	Credentials(sid string) backend.Credentials
}

// Mountable is a handler that owns a sub-tree of routes.
type Mountable interface {
	Name() string
	Routes() chi.Router
}

// ResourceHandler exposes one resource panel over HTTP. Only the
// operations and actions the resource declares are routed.
type ResourceHandler[T any] struct {
	panel    *resource.Panel[T]
	sessions credentialSource
}

func NewResourceHandler[T any](panel *resource.Panel[T], sessions credentialSource) *ResourceHandler[T] {
	return &ResourceHandler[T]{panel: panel, sessions: sessions}
}

func (h *ResourceHandler[T]) Name() string {
	return h.panel.Definition().Name
}

func (h *ResourceHandler[T]) Routes() chi.Router {
	def := h.panel.Definition()
	r := chi.NewRouter()

	if def.Supports(resource.OpList) {
		r.Get("/", h.List)
	}
	if def.Supports(resource.OpCreate) {
		r.Post("/", h.Create)
	}
	if def.Supports(resource.OpGet) {
		r.Get("/{id}", h.Get)
	}
	if def.Supports(resource.OpUpdate) {
		r.Patch("/{id}", h.Update)
	}
	if def.Supports(resource.OpDelete) {
		r.Post("/{id}/delete-request", h.RequestDelete)
		r.Delete("/{id}", h.Delete)
	}

	for _, action := range def.Actions {
		pattern := "/actions/" + action.Name
		if action.RecordScoped() {
			pattern = "/{id}/actions/" + action.Name
		}
		r.Method(action.HTTPMethod(), pattern, h.action(action.Name))
	}

	return r
}

func (h *ResourceHandler[T]) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.panel.List(r.Context(), h.credentials(r), listQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, page.Items, &model.Meta{
		Page:       page.Page,
		Limit:      page.PageSize,
		Total:      page.TotalCount,
		TotalPages: page.TotalPages,
	})
}

func (h *ResourceHandler[T]) Get(w http.ResponseWriter, r *http.Request) {
	record, err := h.panel.Get(r.Context(), h.credentials(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, record, nil)
}

func (h *ResourceHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	draft, files, err := readDraft(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	record, err := h.panel.Create(r.Context(), h.credentials(r), actorOf(r), draft, files)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, record, nil)
}

func (h *ResourceHandler[T]) Update(w http.ResponseWriter, r *http.Request) {
	draft, files, err := readDraft(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	record, err := h.panel.Update(r.Context(), h.credentials(r), actorOf(r),
		chi.URLParam(r, "id"), draft, files, strings.TrimSpace(r.Header.Get("If-Match")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, record, nil)
}

func (h *ResourceHandler[T]) RequestDelete(w http.ResponseWriter, r *http.Request) {
	confirmation, err := h.panel.RequestDelete(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, confirmation, nil)
}

func (h *ResourceHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.Header.Get(confirmTokenHeader))
	if token == "" {
		token = strings.TrimSpace(r.URL.Query().Get("confirm_token"))
	}

	if err := h.panel.Delete(r.Context(), h.credentials(r), actorOf(r), chi.URLParam(r, "id"), token); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]bool{"deleted": true}, nil)
}

func (h *ResourceHandler[T]) action(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Method != http.MethodGet && r.ContentLength > 0 {
			if err := decodeJSON(r, &body); err != nil {
				writeError(w, r, err)
				return
			}
		}

		raw, err := h.panel.Action(r.Context(), h.credentials(r), actorOf(r), name, chi.URLParam(r, "id"), body)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, raw, nil)
	}
}

func (h *ResourceHandler[T]) credentials(r *http.Request) backend.Credentials {
	return h.sessions.Credentials(middleware.SessionIDFromContext(r.Context()))
}

func actorOf(r *http.Request) resource.Actor {
	user, _ := middleware.UserFromContext(r.Context())
	return resource.ActorFrom(user)
}

// listQuery reads page and search; every other parameter is offered as a
// filter and the panel keeps the ones the resource declares.
func listQuery(r *http.Request) resource.Query {
	values := r.URL.Query()

	q := resource.Query{Page: 1, Search: values.Get("search"), Filters: map[string]string{}}
	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			page = 0
		}
		q.Page = page
	}

	for key := range values {
		if key == "page" || key == "search" || key == "page_size" {
			continue
		}
		q.Filters[key] = values.Get(key)
	}
	return q
}

// readDraft accepts either a JSON object or a multipart form. Multipart
// values arrive as strings; the panel coerces them per field kind.
func readDraft(r *http.Request) (resource.Draft, []backend.File, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var draft resource.Draft
		if err := decodeJSON(r, &draft); err != nil {
			return nil, nil, err
		}
		return draft, nil, nil
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		return nil, nil, apierror.BadRequest("invalid multipart form", err.Error())
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	draft := resource.Draft{}
	for key, vals := range r.MultipartForm.Value {
		if len(vals) > 0 {
			draft[key] = vals[0]
		}
	}

	files := make([]backend.File, 0, len(r.MultipartForm.File))
	for field, headers := range r.MultipartForm.File {
		if len(headers) == 0 {
			continue
		}
		header := headers[0]
		if header.Size > maxUploadBytes {
			return nil, nil, apierror.New("PAYLOAD_TOO_LARGE", fmt.Sprintf("%s is too large", field), "", http.StatusRequestEntityTooLarge)
		}
		src, err := header.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("open upload %s: %w", field, err)
		}
		data, err := io.ReadAll(src)
		_ = src.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("read upload %s: %w", field, err)
		}
		name := upload.CleanFilename(header.Filename, field)
		files = append(files, backend.File{
			Field:       field,
			Filename:    name,
			ContentType: upload.ContentType(header.Header.Get("Content-Type"), name, data),
			Data:        data,
		})
	}
	return draft, files, nil
}
