package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"code2deploy-console/internal/avatar"
	"code2deploy-console/internal/backend"
	"code2deploy-console/internal/dashboard"
	"code2deploy-console/internal/middleware"
	"code2deploy-console/internal/model"
	"code2deploy-console/pkg/apierror"
)

// SessionService is the part of session.Manager the HTTP layer drives.
type SessionService interface {
	Login(ctx context.Context, sid string, creds model.Credentials) (*model.User, error)
	Signup(ctx context.Context, form model.SignupForm) (*model.SignupResult, error)
	Logout(ctx context.Context, sid string)
	Refresh(ctx context.Context, sid string) error
	Status(ctx context.Context, sid string) model.SessionStatus
	CurrentUser(ctx context.Context, sid string) (*model.User, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResendConfirmationEmail(ctx context.Context, email string) (string, error)
	ConfirmEmail(ctx context.Context, req model.ConfirmEmailRequest) (string, error)
	ResetPassword(ctx context.Context, req model.ResetPasswordRequest) (string, error)
	ChangePassword(ctx context.Context, sid string, form model.ChangePasswordForm) error
	UpdateProfile(ctx context.Context, sid string, patch model.ProfileUpdate) (*model.User, error)
	UploadAvatar(ctx context.Context, sid string, file backend.File) (*model.User, error)
	RequestAccountDeletion(ctx context.Context, sid string, req model.AccountDeletionRequest) (string, error)
	ExportData(ctx context.Context, sid string) (json.RawMessage, error)
	Credentials(sid string) backend.Credentials
}

type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

type loginResponse struct {
	User      *model.User `json:"user"`
	Route     string      `json:"route"`
	SessionID string      `json:"session_id"`
}

type AuthHandler struct {
	sessions SessionService
	reader   *middleware.SessionMiddleware
	avatars  *avatar.Processor
	cookie   CookieConfig
}

func NewAuthHandler(sessions SessionService, reader *middleware.SessionMiddleware, avatars *avatar.Processor, cookie CookieConfig) *AuthHandler {
	if avatars == nil {
		avatars = avatar.NewProcessor(0, 0)
	}
	return &AuthHandler{sessions: sessions, reader: reader, avatars: avatars, cookie: cookie}
}

// Login always binds a fresh session id; an id presented by the browser is
// logged out first and never reused.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.Credentials
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	if previous := h.reader.SessionID(r); previous != "" {
		h.sessions.Logout(r.Context(), previous)
	}

	sid := uuid.NewString()
	user, err := h.sessions.Login(r.Context(), sid, payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.setCookie(w, sid)
	writeSuccess(w, http.StatusOK, loginResponse{
		User:      user,
		Route:     dashboard.RouteFor(user.Role),
		SessionID: sid,
	}, nil)
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload model.SignupForm
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.sessions.Signup(r.Context(), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, result, nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sid := h.reader.SessionID(r); sid != "" {
		h.sessions.Logout(r.Context(), sid)
	}
	h.clearCookie(w)
	writeSuccess(w, http.StatusOK, map[string]bool{"logged_out": true}, nil)
}

// Status never fails: an unknown or expired session is simply
// unauthenticated.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, h.sessions.Status(r.Context(), h.reader.SessionID(r)), nil)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	sid := h.reader.SessionID(r)
	if sid == "" {
		writeError(w, r, model.ErrUnauthenticated)
		return
	}

	if err := h.sessions.Refresh(r.Context(), sid); err != nil {
		if errors.Is(err, model.ErrUnauthenticated) {
			h.clearCookie(w)
		}
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, h.sessions.Status(r.Context(), sid), nil)
}

func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var payload model.EmailRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeDetail(w, r)(h.sessions.RequestPasswordReset(r.Context(), payload.Email))
}

func (h *AuthHandler) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	var payload model.EmailRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeDetail(w, r)(h.sessions.ResendConfirmationEmail(r.Context(), payload.Email))
}

func (h *AuthHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	var payload model.ConfirmEmailRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeDetail(w, r)(h.sessions.ConfirmEmail(r.Context(), payload))
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload model.ResetPasswordRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeDetail(w, r)(h.sessions.ResetPassword(r.Context(), payload))
}

func (h *AuthHandler) writeDetail(w http.ResponseWriter, r *http.Request) func(string, error) {
	return func(detail string, err error) {
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, model.Detail{Detail: detail}, nil)
	}
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, sid string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Handlers below run behind RequireSession.

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *AuthHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	writeSuccess(w, http.StatusOK, map[string]string{
		"role":  string(user.Role.Normalize()),
		"route": dashboard.RouteFor(user.Role),
	}, nil)
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var payload model.ProfileUpdate
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.sessions.UpdateProfile(r.Context(), middleware.SessionIDFromContext(r.Context()), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *AuthHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.avatars.MaxBytes()+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, apierror.New("PAYLOAD_TOO_LARGE", "avatar is too large", "", http.StatusRequestEntityTooLarge))
			return
		}
		writeError(w, r, apierror.BadRequest("expected a multipart form", err.Error()))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	src, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, r, apierror.BadRequest("avatar file is required", "avatar"))
		return
	}
	defer src.Close()

	file, err := h.avatars.Process(src, header.Filename)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.sessions.UploadAvatar(r.Context(), middleware.SessionIDFromContext(r.Context()), file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var payload model.ChangePasswordForm
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.sessions.ChangePassword(r.Context(), middleware.SessionIDFromContext(r.Context()), payload); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, model.Detail{Detail: "Password updated."}, nil)
}

func (h *AuthHandler) RequestAccountDeletion(w http.ResponseWriter, r *http.Request) {
	var payload model.AccountDeletionRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeDetail(w, r)(h.sessions.RequestAccountDeletion(r.Context(), middleware.SessionIDFromContext(r.Context()), payload))
}

func (h *AuthHandler) ExportData(w http.ResponseWriter, r *http.Request) {
	raw, err := h.sessions.ExportData(r.Context(), middleware.SessionIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="code2deploy-export.json"`)
	writeSuccess(w, http.StatusOK, raw, nil)
}
