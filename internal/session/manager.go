// Package session owns the console's notion of "who is logged in". Each
// browser is identified by an opaque session id; the backend tokens bound
// to it never leave this package except through Credentials.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"code2deploy-console/internal/backend"
	"code2deploy-console/internal/dashboard"
	"code2deploy-console/internal/model"
	"code2deploy-console/internal/validation"
)

// Store persists sessions keyed by id. Get returns model.ErrSessionNotFound
// for unknown or expired ids; so does Update, which never recreates a
// session that was deleted in the meantime.
type Store interface {
	Get(ctx context.Context, sid string) (*model.Session, error)
	Save(ctx context.Context, sess *model.Session) error
	Update(ctx context.Context, sess *model.Session) error
	Delete(ctx context.Context, sid string) error
}

// API is the subset of the backend client the manager needs.
type API interface {
	Do(ctx context.Context, creds backend.Credentials, req backend.Request, out any) error
}

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	Detail  string `json:"detail"`
}

type Manager struct {
	store  Store
	api    API
	logger *slog.Logger
	now    func() time.Time
}

func NewManager(store Store, api API, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  store,
		api:    api,
		logger: logger,
		now:    time.Now,
	}
}

// Login exchanges credentials for backend tokens and binds them, with the
// current user, to sid. Any previous session for sid is cleared first and
// nothing is stored unless every step succeeds.
func (m *Manager) Login(ctx context.Context, sid string, creds model.Credentials) (*model.User, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if err := validation.Struct(creds); err != nil {
		return nil, err
	}

	m.drop(ctx, sid)

	var tokens tokenPair
	err := m.api.Do(ctx, backend.Anonymous, backend.Request{
		Method:   http.MethodPost,
		Path:     "auth/jwt/create/",
		Body:     creds,
		Resource: "auth",
	}, &tokens)
	if err != nil {
		return nil, loginError(err)
	}
	if tokens.Access == "" {
		return nil, fmt.Errorf("%w: login returned no access token", model.ErrBackendUnavailable)
	}

	var user model.User
	if err := m.api.Do(ctx, backend.StaticToken(tokens.Access), backend.Request{Path: "auth/me/", Resource: "auth"}, &user); err != nil {
		return nil, fmt.Errorf("fetch current user: %w", err)
	}

	now := m.now().UTC()
	sess := &model.Session{
		ID:              sid,
		AccessToken:     tokens.Access,
		RefreshToken:    tokens.Refresh,
		AccessExpiresAt: accessExpiry(tokens.Access),
		User:            &user,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	m.logger.InfoContext(ctx, "user logged in", "user_id", user.ID, "role", user.Role)
	return &user, nil
}

// loginError maps the token endpoint's responses. Credentials are known to
// be non-empty here, so a 400/403 can only mean an inactive account.
func loginError(err error) error {
	if errors.Is(err, model.ErrEmailNotConfirmed) {
		return model.ErrEmailNotConfirmed
	}

	var apiErr *backend.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.Status {
	case http.StatusUnauthorized:
		return model.ErrInvalidCredentials
	case http.StatusBadRequest, http.StatusForbidden:
		return model.ErrEmailNotConfirmed
	default:
		return err
	}
}

// Signup registers an account. It never creates a session.
func (m *Manager) Signup(ctx context.Context, form model.SignupForm) (*model.SignupResult, error) {
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)
	if err := validation.Struct(form); err != nil {
		return nil, err
	}

	body := map[string]string{
		"username":   form.Username,
		"email":      form.Email,
		"password":   form.Password,
		"first_name": form.FirstName,
		"last_name":  form.LastName,
	}
	if form.Phone != "" {
		body["phone"] = form.Phone
	}
	if form.Organization != "" {
		body["organization"] = form.Organization
	}
	if form.Role != "" {
		body["role"] = form.Role
	}

	var result model.SignupResult
	err := m.api.Do(ctx, backend.Anonymous, backend.Request{
		Method:   http.MethodPost,
		Path:     "auth/register/",
		Body:     body,
		Resource: "auth",
	}, &result)
	if err != nil {
		return nil, signupError(err)
	}
	return &result, nil
}

func signupError(err error) error {
	if errors.Is(err, model.ErrDuplicateEmail) || errors.Is(err, model.ErrDuplicateUsername) {
		return err
	}

	var apiErr *backend.Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
		switch {
		case apiErr.HasField("email"):
			return fmt.Errorf("%w: %s", model.ErrDuplicateEmail, strings.Join(apiErr.Fields["email"], " "))
		case apiErr.HasField("username"):
			return fmt.Errorf("%w: %s", model.ErrDuplicateUsername, strings.Join(apiErr.Fields["username"], " "))
		}
	}
	return err
}

// Logout forgets the session. It never fails from the caller's view.
func (m *Manager) Logout(ctx context.Context, sid string) {
	m.drop(ctx, sid)
}

func (m *Manager) drop(ctx context.Context, sid string) {
	if sid == "" {
		return
	}
	if err := m.store.Delete(ctx, sid); err != nil && !errors.Is(err, model.ErrSessionNotFound) {
		m.logger.WarnContext(ctx, "failed to delete session", "error", err)
	}
}

func (m *Manager) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	return m.emailAction(ctx, "auth/password/reset/", email)
}

func (m *Manager) ResendConfirmationEmail(ctx context.Context, email string) (string, error) {
	return m.emailAction(ctx, "auth/resend-confirmation/", email)
}

func (m *Manager) emailAction(ctx context.Context, path string, email string) (string, error) {
	req := model.EmailRequest{Email: strings.TrimSpace(email)}
	if err := validation.Struct(req); err != nil {
		return "", err
	}
	return m.passThrough(ctx, backend.Anonymous, path, req)
}

func (m *Manager) ConfirmEmail(ctx context.Context, req model.ConfirmEmailRequest) (string, error) {
	if err := validation.Struct(req); err != nil {
		return "", err
	}
	return m.passThrough(ctx, backend.Anonymous, "auth/confirm-email/", req)
}

func (m *Manager) ResetPassword(ctx context.Context, req model.ResetPasswordRequest) (string, error) {
	if err := validation.Struct(req); err != nil {
		return "", err
	}
	return m.passThrough(ctx, backend.Anonymous, "auth/password/reset/confirm/", map[string]string{
		"uid":          req.UID,
		"token":        req.Token,
		"new_password": req.NewPassword,
	})
}

// ChangePassword validates the form locally before any network call.
func (m *Manager) ChangePassword(ctx context.Context, sid string, form model.ChangePasswordForm) error {
	if err := validation.Struct(form); err != nil {
		return err
	}

	return m.api.Do(ctx, m.Credentials(sid), backend.Request{
		Method: http.MethodPost,
		Path:   "auth/users/set_password/",
		Body: map[string]string{
			"current_password": form.CurrentPassword,
			"new_password":     form.NewPassword,
			"re_new_password":  form.ConfirmPassword,
		},
		Resource: "auth",
	}, nil)
}

// RequestAccountDeletion asks the backend to email a deletion link.
func (m *Manager) RequestAccountDeletion(ctx context.Context, sid string, req model.AccountDeletionRequest) (string, error) {
	if err := validation.Struct(req); err != nil {
		return "", err
	}
	return m.passThrough(ctx, m.Credentials(sid), "auth/me/delete/", req)
}

// ExportData returns the backend's personal-data export verbatim.
func (m *Manager) ExportData(ctx context.Context, sid string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := m.api.Do(ctx, m.Credentials(sid), backend.Request{Path: "auth/me/export/", Resource: "auth"}, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (m *Manager) passThrough(ctx context.Context, creds backend.Credentials, path string, body any) (string, error) {
	var out model.Detail
	err := m.api.Do(ctx, creds, backend.Request{
		Method:   http.MethodPost,
		Path:     path,
		Body:     body,
		Resource: "auth",
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Detail, nil
}

// CurrentUser returns the cached user, fetching it once if the session was
// stored without one.
func (m *Manager) CurrentUser(ctx context.Context, sid string) (*model.User, error) {
	sess, err := m.active(ctx, sid)
	if err != nil {
		return nil, err
	}
	if sess.User != nil {
		return sess.User, nil
	}

	var user model.User
	if err := m.api.Do(ctx, m.Credentials(sid), backend.Request{Path: "auth/me/", Resource: "auth"}, &user); err != nil {
		return nil, err
	}
	if err := m.cacheUser(ctx, sid, &user); errors.Is(err, model.ErrSessionNotFound) {
		return nil, model.ErrUnauthenticated
	}
	return &user, nil
}

// IsAuthenticated is true iff sid holds an access token that has not
// expired. It never calls the backend.
func (m *Manager) IsAuthenticated(ctx context.Context, sid string) bool {
	if sid == "" {
		return false
	}
	sess, err := m.store.Get(ctx, sid)
	if err != nil {
		return false
	}
	return !sess.Expired(m.now())
}

// Status is the combined view used by the status endpoint. Unlike
// IsAuthenticated it goes through CurrentUser, so an expired access token
// with a live refresh token is renewed the same way RequireSession does.
func (m *Manager) Status(ctx context.Context, sid string) model.SessionStatus {
	if sid == "" {
		return model.SessionStatus{}
	}
	user, err := m.CurrentUser(ctx, sid)
	if err != nil {
		return model.SessionStatus{}
	}
	return model.SessionStatus{Authenticated: true, User: user, Route: dashboard.RouteFor(user.Role)}
}

// Refresh trades the refresh token for a new access token. A rejected
// refresh token ends the session.
func (m *Manager) Refresh(ctx context.Context, sid string) error {
	sess, err := m.load(ctx, sid)
	if err != nil {
		return err
	}
	_, err = m.refresh(ctx, sess)
	return err
}

func (m *Manager) refresh(ctx context.Context, sess *model.Session) (*model.Session, error) {
	if sess.RefreshToken == "" {
		m.drop(ctx, sess.ID)
		return nil, model.ErrUnauthenticated
	}

	var tokens tokenPair
	err := m.api.Do(ctx, backend.Anonymous, backend.Request{
		Method:   http.MethodPost,
		Path:     "auth/jwt/refresh/",
		Body:     map[string]string{"refresh": sess.RefreshToken},
		Resource: "auth",
	}, &tokens)
	if err != nil {
		var apiErr *backend.Error
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusBadRequest) {
			m.drop(ctx, sess.ID)
			return nil, model.ErrUnauthenticated
		}
		return nil, err
	}
	if tokens.Access == "" {
		return nil, fmt.Errorf("%w: refresh returned no access token", model.ErrBackendUnavailable)
	}

	updated := *sess
	updated.AccessToken = tokens.Access
	updated.AccessExpiresAt = accessExpiry(tokens.Access)
	if tokens.Refresh != "" {
		updated.RefreshToken = tokens.Refresh
	}
	updated.UpdatedAt = m.now().UTC()

	// Logout may have run while the refresh call was in flight.
	err = m.store.Update(ctx, &updated)
	if errors.Is(err, model.ErrSessionNotFound) {
		return nil, model.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("save refreshed session: %w", err)
	}
	return &updated, nil
}

// UpdateProfile patches the editable profile fields and refreshes the
// cached user.
func (m *Manager) UpdateProfile(ctx context.Context, sid string, patch model.ProfileUpdate) (*model.User, error) {
	if err := validation.Struct(patch); err != nil {
		return nil, err
	}

	var user model.User
	err := m.api.Do(ctx, m.Credentials(sid), backend.Request{
		Method:   http.MethodPatch,
		Path:     "auth/me/",
		Body:     patch,
		Resource: "auth",
	}, &user)
	if err != nil {
		return nil, err
	}
	_ = m.cacheUser(ctx, sid, &user)
	return &user, nil
}

// UploadAvatar sends an already-processed image as the avatar field.
func (m *Manager) UploadAvatar(ctx context.Context, sid string, file backend.File) (*model.User, error) {
	file.Field = "avatar"

	var user model.User
	err := m.api.Do(ctx, m.Credentials(sid), backend.Request{
		Method:   http.MethodPatch,
		Path:     "auth/me/",
		Form:     &backend.Form{Files: []backend.File{file}},
		Resource: "auth",
	}, &user)
	if err != nil {
		return nil, err
	}
	_ = m.cacheUser(ctx, sid, &user)
	return &user, nil
}

// cacheUser stores user on the session if it still exists. Only
// model.ErrSessionNotFound is reported; other failures are logged.
func (m *Manager) cacheUser(ctx context.Context, sid string, user *model.User) error {
	sess, err := m.store.Get(ctx, sid)
	if errors.Is(err, model.ErrSessionNotFound) {
		return err
	}
	if err != nil {
		m.logger.WarnContext(ctx, "failed to load session for user cache", "error", err)
		return nil
	}
	sess.User = user
	sess.UpdatedAt = m.now().UTC()
	err = m.store.Update(ctx, sess)
	if errors.Is(err, model.ErrSessionNotFound) {
		return err
	}
	if err != nil {
		m.logger.WarnContext(ctx, "failed to cache user on session", "error", err)
	}
	return nil
}

func (m *Manager) load(ctx context.Context, sid string) (*model.Session, error) {
	if sid == "" {
		return nil, model.ErrUnauthenticated
	}
	sess, err := m.store.Get(ctx, sid)
	if errors.Is(err, model.ErrSessionNotFound) {
		return nil, model.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

// active returns a session with a usable access token, refreshing it once
// if it has expired.
func (m *Manager) active(ctx context.Context, sid string) (*model.Session, error) {
	sess, err := m.load(ctx, sid)
	if err != nil {
		return nil, err
	}
	if !sess.Expired(m.now()) {
		return sess, nil
	}
	return m.refresh(ctx, sess)
}
