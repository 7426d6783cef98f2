package model

import "time"

// Session is the console-side record of one logged-in browser.
type Session struct {
	ID              string    `json:"id"`
	AccessToken     string    `json:"access_token"`
	RefreshToken    string    `json:"refresh_token,omitempty"`
	AccessExpiresAt time.Time `json:"access_expires_at,omitempty"`
	User            *User     `json:"user,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Expired reports whether the access token is past its expiry. A zero
// expiry means the token carried no exp claim.
func (s Session) Expired(now time.Time) bool {
	if s.AccessToken == "" {
		return true
	}
	if s.AccessExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.AccessExpiresAt)
}

type SessionStatus struct {
	Authenticated bool   `json:"authenticated"`
	User          *User  `json:"user,omitempty"`
	Route         string `json:"route,omitempty"`
}
