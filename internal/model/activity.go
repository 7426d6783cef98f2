package model

import (
	"encoding/json"
	"time"
)

// Activity is one admin mutation performed through the console.
type Activity struct {
	ID         int64     `json:"id"`
	Resource   string    `json:"resource"`
	Action     string    `json:"action"`
	RecordID   string    `json:"record_id,omitempty"`
	ActorID    int64     `json:"actor_id"`
	ActorName  string    `json:"actor_name"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type ActivityQuery struct {
	Resource string
	Action   string
	ActorID  int64
	Status   string
	Page     int
	Limit    int
}

// Draft is a non-authoritative page-section draft kept for an admin.
type Draft struct {
	UserID    int64           `json:"user_id"`
	PageKey   string          `json:"page_key"`
	Sections  json.RawMessage `json:"sections"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PendingDelete is an issued, not yet consumed, delete confirmation.
type PendingDelete struct {
	Resource string `json:"resource"`
	RecordID string `json:"record_id"`
	ActorID  int64  `json:"actor_id"`
}
