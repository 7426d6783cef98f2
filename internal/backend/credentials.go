package backend

import "context"

// Credentials supplies the bearer token for one outbound call. The session
// manager is the only implementation that holds a real token; Expire is
// invoked when the backend answers 401 so the session drops to anonymous.
type Credentials interface {
	AccessToken(ctx context.Context) (string, error)
	Expire(ctx context.Context)
}

type anonymous struct{}

func (anonymous) AccessToken(context.Context) (string, error) { return "", nil }
func (anonymous) Expire(context.Context)                      {}

// Anonymous is used for the public auth endpoints.
var Anonymous Credentials = anonymous{}

// StaticToken is a fixed bearer token. Expire is a no-op.
type StaticToken string

func (t StaticToken) AccessToken(context.Context) (string, error) { return string(t), nil }
func (StaticToken) Expire(context.Context)                        {}
