package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"code2deploy-console/internal/model"
)

const confirmKeyPrefix = "confirm:"

// ConfirmationRepository holds pending delete confirmations. Each token
// can be taken exactly once.
type ConfirmationRepository struct {
	client *redis.Client
}

func NewConfirmationRepository(client *redis.Client) *ConfirmationRepository {
	return &ConfirmationRepository{client: client}
}

func (r *ConfirmationRepository) Put(ctx context.Context, token string, pending model.PendingDelete, ttl time.Duration) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("marshal confirmation: %w", err)
	}
	ok, err := r.client.SetNX(ctx, confirmKeyPrefix+token, data, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis set confirmation: %w", err)
	}
	if !ok {
		return fmt.Errorf("confirmation token reused: %w", model.ErrConflict)
	}
	return nil
}

// Take returns and removes the confirmation. A missing or expired token
// is ErrNotFound.
func (r *ConfirmationRepository) Take(ctx context.Context, token string) (*model.PendingDelete, error) {
	data, err := r.client.GetDel(ctx, confirmKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis take confirmation: %w", err)
	}

	var pending model.PendingDelete
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, fmt.Errorf("unmarshal confirmation: %w", err)
	}
	return &pending, nil
}
