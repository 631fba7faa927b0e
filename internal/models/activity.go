package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

var Actions = []string{ActionCreated, ActionUpdated, ActionDeleted}

// ActivityEntry records one inventory action. Entries are never edited.
type ActivityEntry struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	Action    string     `json:"action" db:"action"`
	ItemID    *uuid.UUID `json:"item_id,omitempty" db:"item_id"`
	ItemName  string     `json:"item_name" db:"item_name"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

type ActivityFilter struct {
	UserID *uuid.UUID
	Action string
	ItemID *uuid.UUID
}
