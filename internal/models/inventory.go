package models

import (
	"time"

	"github.com/google/uuid"
)

type InventoryItem struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Department  string     `json:"department" db:"department"`
	Category    string     `json:"category" db:"category"`
	Quantity    int        `json:"quantity" db:"quantity"`
	MinQuantity int        `json:"min_quantity" db:"min_quantity"`
	Unit        string     `json:"unit" db:"unit"`
	Description string     `json:"description" db:"description"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

type InventoryFilter struct {
	Search     string
	Department string
	Category   string
	LowStock   bool
}

type InventoryPatch struct {
	Name        *string `json:"name,omitempty"`
	Department  *string `json:"department,omitempty"`
	Category    *string `json:"category,omitempty"`
	Quantity    *int    `json:"quantity,omitempty"`
	MinQuantity *int    `json:"min_quantity,omitempty"`
	Unit        *string `json:"unit,omitempty"`
	Description *string `json:"description,omitempty"`
}
