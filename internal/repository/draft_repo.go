package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"code2deploy-console/internal/database"
	"code2deploy-console/internal/model"
)

// DraftRepository keeps per-admin page-section drafts. Drafts are a
// convenience copy; the backend's page content stays authoritative.
type DraftRepository struct {
	db database.DBTX
}

func NewDraftRepository(db database.DBTX) *DraftRepository {
	return &DraftRepository{db: db}
}

func (r *DraftRepository) Get(ctx context.Context, userID int64, pageKey string) (*model.Draft, error) {
	d := model.Draft{UserID: userID, PageKey: pageKey}
	err := r.db.QueryRow(ctx,
		`SELECT sections, updated_at FROM page_drafts
		 WHERE user_id = $1 AND page_key = $2`, userID, pageKey).Scan(&d.Sections, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get page draft: %w", err)
	}
	d.UpdatedAt = d.UpdatedAt.UTC()
	return &d, nil
}

func (r *DraftRepository) Upsert(ctx context.Context, d *model.Draft) error {
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO page_drafts (user_id, page_key, sections, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, page_key)
		 DO UPDATE SET sections = EXCLUDED.sections, updated_at = EXCLUDED.updated_at`,
		d.UserID, d.PageKey, d.Sections, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert page draft: %w", err)
	}
	return nil
}

func (r *DraftRepository) Delete(ctx context.Context, userID int64, pageKey string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM page_drafts WHERE user_id = $1 AND page_key = $2`, userID, pageKey)
	if err != nil {
		return fmt.Errorf("delete page draft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
