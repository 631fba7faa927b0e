package models

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	Department string     `json:"department" db:"department"`
	CreatedBy  *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

type CategoryFilter struct {
	Search     string
	Department string
}

type CategoryPatch struct {
	Name       *string `json:"name,omitempty"`
	Department *string `json:"department,omitempty"`
}

type Department struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

type DepartmentFilter struct {
	Search string
}

type DepartmentPatch struct {
	Name *string `json:"name,omitempty"`
}
