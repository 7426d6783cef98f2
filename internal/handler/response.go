package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"code2deploy-console/internal/backend"
	"code2deploy-console/internal/logger"
	"code2deploy-console/internal/model"
	"code2deploy-console/internal/validation"
	"code2deploy-console/pkg/apierror"
)

// statusClientClosedRequest follows the nginx convention for a caller that
// went away before the response was ready.
const statusClientClosedRequest = 499

const maxJSONBody = 1 << 20

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("unhandled error", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}

// classify maps an error to its response. Backend field errors are passed
// through so forms can highlight the offending inputs.
func classify(err error) (int, *model.APIError) {
	var (
		apiErr     *apierror.APIError
		fieldErr   *validation.Error
		backendErr *backend.Error
	)

	switch {
	case errors.As(err, &apiErr):
		return apiErr.HTTPStatus, &model.APIError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
			Fields:  apiErr.Fields,
		}
	case errors.As(err, &fieldErr):
		return http.StatusBadRequest, &model.APIError{
			Code:    "VALIDATION_ERROR",
			Message: "Some fields are invalid",
			Fields:  fieldErr.Fields(),
		}
	case errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusUnauthorized, &model.APIError{Code: "INVALID_CREDENTIALS", Message: "Invalid username or password"}
	case errors.Is(err, model.ErrEmailNotConfirmed):
		return http.StatusForbidden, &model.APIError{Code: "EMAIL_NOT_CONFIRMED", Message: "Please confirm your email address before signing in"}
	case errors.Is(err, model.ErrDuplicateEmail):
		return http.StatusConflict, &model.APIError{Code: "DUPLICATE_EMAIL", Message: "An account with this email already exists", Fields: map[string]string{"email": "is already registered"}}
	case errors.Is(err, model.ErrDuplicateUsername):
		return http.StatusConflict, &model.APIError{Code: "DUPLICATE_USERNAME", Message: "This username is already taken", Fields: map[string]string{"username": "is already taken"}}
	case errors.Is(err, model.ErrUnauthenticated), errors.Is(err, model.ErrSessionNotFound):
		return http.StatusUnauthorized, &model.APIError{Code: "UNAUTHORIZED", Message: "Authentication required"}
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden, &model.APIError{Code: "FORBIDDEN", Message: "Access denied"}
	case errors.Is(err, model.ErrConfirmationRequired):
		return http.StatusPreconditionRequired, &model.APIError{Code: "CONFIRMATION_REQUIRED", Message: "Request a delete confirmation and send its token"}
	case errors.Is(err, model.ErrUnknownResource), errors.Is(err, model.ErrUnknownAction):
		return http.StatusNotFound, &model.APIError{Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, &model.APIError{Code: "NOT_FOUND", Message: "Record not found"}
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict, &model.APIError{Code: "CONFLICT", Message: "The record was changed by someone else"}
	case errors.Is(err, model.ErrRateLimited):
		return http.StatusTooManyRequests, &model.APIError{Code: "RATE_LIMITED", Message: "The API is rate limiting requests, try again shortly"}
	case errors.Is(err, model.ErrNetwork), errors.Is(err, model.ErrBackendUnavailable):
		return http.StatusServiceUnavailable, &model.APIError{Code: "BACKEND_UNAVAILABLE", Message: "The Code2Deploy API is unreachable"}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, &model.APIError{Code: "TIMEOUT", Message: "The request took too long"}
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, &model.APIError{Code: "CANCELLED", Message: "The request was cancelled"}
	case errors.Is(err, model.ErrInvalidInput):
		body := &model.APIError{Code: "BAD_REQUEST", Message: "Invalid input"}
		if errors.As(err, &backendErr) {
			if backendErr.Detail != "" {
				body.Message = backendErr.Detail
			}
			if fields := backendErr.FieldMessages(); len(fields) > 0 {
				body.Code = "VALIDATION_ERROR"
				body.Message = "Some fields are invalid"
				body.Fields = fields
			}
		} else {
			body.Details = err.Error()
		}
		return http.StatusBadRequest, body
	default:
		return http.StatusInternalServerError, &model.APIError{Code: "INTERNAL_ERROR", Message: "Unexpected server error"}
	}
}

// decodeJSON reads a bounded JSON body into dst. An empty body is an error.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apierror.BadRequest("request body is required", "")
		}
		return apierror.BadRequest("invalid JSON body", err.Error())
	}
	return nil
}

func parseIntOrDefault(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}
