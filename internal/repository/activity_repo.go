package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"code2deploy-console/internal/database"
	"code2deploy-console/internal/model"
)

// ActivityRepository is the append-only log of admin mutations made
// through the console.
type ActivityRepository struct {
	db database.DBTX
}

func NewActivityRepository(db database.DBTX) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Log(ctx context.Context, entry model.Activity) error {
	occurredAt := entry.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO admin_activity
		 (resource, action, record_id, actor_id, actor_name, status, error_text, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.Resource, entry.Action, entry.RecordID, entry.ActorID, entry.ActorName,
		entry.Status, entry.Error, occurredAt)
	if err != nil {
		return fmt.Errorf("log admin activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) Query(ctx context.Context, query model.ActivityQuery) ([]model.Activity, model.Meta, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 50
	}
	if query.Limit > 200 {
		query.Limit = 200
	}

	where := make([]string, 0)
	args := make([]any, 0)
	argIdx := 1

	if resource := strings.TrimSpace(query.Resource); resource != "" {
		where = append(where, fmt.Sprintf("resource = $%d", argIdx))
		args = append(args, resource)
		argIdx++
	}
	if action := strings.TrimSpace(query.Action); action != "" {
		where = append(where, fmt.Sprintf("lower(action) = lower($%d)", argIdx))
		args = append(args, action)
		argIdx++
	}
	if query.ActorID > 0 {
		where = append(where, fmt.Sprintf("actor_id = $%d", argIdx))
		args = append(args, query.ActorID)
		argIdx++
	}
	if status := strings.TrimSpace(query.Status); status != "" {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, status)
		argIdx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM admin_activity %s", whereClause)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count admin activity: %w", err)
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + query.Limit - 1) / query.Limit
	}
	meta := model.Meta{Page: query.Page, Limit: query.Limit, Total: total, TotalPages: totalPages}

	offset := (query.Page - 1) * query.Limit
	dataQuery := fmt.Sprintf(
		`SELECT id, resource, action, record_id, actor_id, actor_name, status, error_text, occurred_at
		 FROM admin_activity %s
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT $%d OFFSET $%d`, whereClause, argIdx, argIdx+1)
	args = append(args, query.Limit, offset)

	rows, err := r.db.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("query admin activity: %w", err)
	}
	defer rows.Close()

	entries := make([]model.Activity, 0)
	for rows.Next() {
		var e model.Activity
		if err := rows.Scan(
			&e.ID, &e.Resource, &e.Action, &e.RecordID, &e.ActorID, &e.ActorName,
			&e.Status, &e.Error, &e.OccurredAt,
		); err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan admin activity: %w", err)
		}
		e.OccurredAt = e.OccurredAt.UTC()
		entries = append(entries, e)
	}

	return entries, meta, rows.Err()
}
