package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"code2deploy-console/internal/model"
	"code2deploy-console/internal/seal"
)

const sessionKeyPrefix = "session:"

// sessionRecord is the stored form of a session; tokens are sealed.
type sessionRecord struct {
	ID              string      `json:"id"`
	AccessToken     string      `json:"access_token"`
	RefreshToken    string      `json:"refresh_token,omitempty"`
	AccessExpiresAt time.Time   `json:"access_expires_at"`
	User            *model.User `json:"user,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

type SessionRepository struct {
	client *redis.Client
	sealer *seal.Sealer
	ttl    time.Duration
}

func NewSessionRepository(client *redis.Client, sealer *seal.Sealer, ttl time.Duration) *SessionRepository {
	return &SessionRepository{client: client, sealer: sealer, ttl: ttl}
}

func (r *SessionRepository) Get(ctx context.Context, sid string) (*model.Session, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+sid).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	access, err := r.sealer.Open(rec.AccessToken)
	if err != nil {
		// Written under a different SESSION_SECRET; unusable.
		return nil, model.ErrSessionNotFound
	}
	refresh, err := r.sealer.Open(rec.RefreshToken)
	if err != nil {
		return nil, model.ErrSessionNotFound
	}

	return &model.Session{
		ID:              rec.ID,
		AccessToken:     access,
		RefreshToken:    refresh,
		AccessExpiresAt: rec.AccessExpiresAt,
		User:            rec.User,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}, nil
}

// Save writes the session and restarts its TTL.
func (r *SessionRepository) Save(ctx context.Context, sess *model.Session) error {
	data, err := r.encode(sess)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+sess.ID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Update rewrites a session only if it still exists (SET XX), so a write
// that races a logout cannot bring the session back. A missing key yields
// model.ErrSessionNotFound.
func (r *SessionRepository) Update(ctx context.Context, sess *model.Session) error {
	data, err := r.encode(sess)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	err = r.client.SetArgs(ctx, sessionKeyPrefix+sess.ID, data, redis.SetArgs{Mode: "XX", TTL: r.ttl}).Err()
	if errors.Is(err, redis.Nil) {
		return model.ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("redis update session: %w", err)
	}
	return nil
}

func (r *SessionRepository) encode(sess *model.Session) ([]byte, error) {
	if sess == nil || sess.ID == "" {
		return nil, model.ErrInvalidInput
	}

	access, err := r.sealer.Seal(sess.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("seal access token: %w", err)
	}
	refresh, err := r.sealer.Seal(sess.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("seal refresh token: %w", err)
	}

	data, err := json.Marshal(sessionRecord{
		ID:              sess.ID,
		AccessToken:     access,
		RefreshToken:    refresh,
		AccessExpiresAt: sess.AccessExpiresAt,
		User:            sess.User,
		CreatedAt:       sess.CreatedAt,
		UpdatedAt:       sess.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return data, nil
}

func (r *SessionRepository) Delete(ctx context.Context, sid string) error {
	n, err := r.client.Del(ctx, sessionKeyPrefix+sid).Result()
	if err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	if n == 0 {
		return model.ErrSessionNotFound
	}
	return nil
}
