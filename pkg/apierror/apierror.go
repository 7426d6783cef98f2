package apierror

import (
	"fmt"
	"net/http"
)

type APIError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    string            `json:"details,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	HTTPStatus int               `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

// BadRequest is the common shape for malformed request bodies and parameters.
func BadRequest(message string, details string) *APIError {
	return New("BAD_REQUEST", message, details, http.StatusBadRequest)
}

// WithFields returns a copy carrying per-field messages.
func (e *APIError) WithFields(fields map[string]string) *APIError {
	cpy := *e
	cpy.Fields = fields
	return &cpy
}
