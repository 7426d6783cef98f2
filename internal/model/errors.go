package model

import "errors"

var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrSessionNotFound    = errors.New("session not found")

	// Signup errors
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateUsername = errors.New("username already taken")

	// Backend/network errors
	ErrNetwork            = errors.New("network error")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrRateLimited        = errors.New("rate limited by backend")

	// Admin panel errors
	ErrConfirmationRequired = errors.New("delete confirmation required")
	ErrUnknownResource      = errors.New("unknown resource")
	ErrUnknownAction        = errors.New("unknown action")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
