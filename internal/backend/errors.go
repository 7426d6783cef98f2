package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"code2deploy-console/internal/model"
)

// Machine-readable codes the backend may attach to an error body.
const (
	CodeEmailNotConfirmed = "email_not_confirmed"
	CodeDuplicateEmail    = "duplicate_email"
	CodeDuplicateUsername = "duplicate_username"
)

// Error is a non-2xx backend response. It unwraps to one of the model
// error kinds so callers can use errors.Is without inspecting text.
type Error struct {
	Status int
	Code   string
	Detail string
	Fields map[string][]string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend status %d: %s", e.Status, e.Detail)
	}
	if len(e.Fields) > 0 {
		return fmt.Sprintf("backend status %d: invalid fields %s", e.Status, strings.Join(e.FieldNames(), ", "))
	}
	return fmt.Sprintf("backend status %d", e.Status)
}

func (e *Error) Unwrap() error {
	switch e.Code {
	case CodeEmailNotConfirmed:
		return model.ErrEmailNotConfirmed
	case CodeDuplicateEmail:
		return model.ErrDuplicateEmail
	case CodeDuplicateUsername:
		return model.ErrDuplicateUsername
	}

	switch {
	case e.Status == http.StatusUnauthorized:
		return model.ErrUnauthenticated
	case e.Status == http.StatusForbidden:
		return model.ErrForbidden
	case e.Status == http.StatusNotFound:
		return model.ErrNotFound
	case e.Status == http.StatusConflict, e.Status == http.StatusPreconditionFailed:
		return model.ErrConflict
	case e.Status == http.StatusTooManyRequests:
		return model.ErrRateLimited
	case e.Status >= 500:
		return model.ErrBackendUnavailable
	default:
		return model.ErrInvalidInput
	}
}

// HasField reports whether the backend rejected the named input field.
func (e *Error) HasField(name string) bool {
	_, ok := e.Fields[name]
	return ok
}

func (e *Error) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// FieldMessages flattens the field errors to one message per field.
func (e *Error) FieldMessages() map[string]string {
	if len(e.Fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(e.Fields))
	for k, msgs := range e.Fields {
		out[k] = strings.Join(msgs, " ")
	}
	return out
}

// parseError builds an Error from a DRF-style body. Recognised shapes:
// {"detail": "...", "code": "..."}, {"error": "..."}, a field-error map
// {"email": ["..."]}, or a bare list of messages.
func parseError(status int, body []byte) *Error {
	e := &Error{Status: status}
	if len(body) == 0 {
		return e
	}

	var list []string
	if err := json.Unmarshal(body, &list); err == nil {
		e.Detail = strings.Join(list, " ")
		return e
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return e
	}

	for key, raw := range obj {
		switch key {
		case "detail", "error", "message":
			var s string
			if json.Unmarshal(raw, &s) == nil && e.Detail == "" {
				e.Detail = s
			}
		case "code":
			// A list here is a field error on a resource's own "code"
			// column (coupons), not a machine code.
			if json.Unmarshal(raw, &e.Code) == nil {
				continue
			}
			fallthrough
		default:
			if msgs := decodeMessages(raw); len(msgs) > 0 {
				if e.Fields == nil {
					e.Fields = map[string][]string{}
				}
				e.Fields[key] = msgs
			}
		}
	}

	return e
}

func decodeMessages(raw json.RawMessage) []string {
	var many []string
	if json.Unmarshal(raw, &many) == nil {
		return many
	}
	var one string
	if json.Unmarshal(raw, &one) == nil && one != "" {
		return []string{one}
	}
	return nil
}
