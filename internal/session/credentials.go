package session

import (
	"context"

	"code2deploy-console/internal/backend"
)

type sessionCredentials struct {
	m   *Manager
	sid string
}

// Credentials returns the token source for sid. It is the only way code
// outside this package can get a backend token onto the wire.
func (m *Manager) Credentials(sid string) backend.Credentials {
	return sessionCredentials{m: m, sid: sid}
}

func (c sessionCredentials) AccessToken(ctx context.Context) (string, error) {
	sess, err := c.m.active(ctx, c.sid)
	if err != nil {
		return "", err
	}
	return sess.AccessToken, nil
}

// Expire is called after the backend rejected the token with 401.
func (c sessionCredentials) Expire(ctx context.Context) {
	c.m.logger.InfoContext(ctx, "backend rejected session token; session ended")
	c.m.drop(ctx, c.sid)
}
