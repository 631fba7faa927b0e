package models

import (
	"time"

	"github.com/google/uuid"
)

// Languages is the closed set of profile languages.
var Languages = []string{"en", "es", "fr", "de", "it", "pt"}

const DefaultLanguage = "en"

type Profile struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Role      string    `json:"role" db:"role"`
	Language  string    `json:"language" db:"language"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type ProfileFilter struct {
	Search string
	Role   string
}

// ProfilePatch carries only the fields present in a partial update.
type ProfilePatch struct {
	Name     *string `json:"name,omitempty"`
	Role     *string `json:"role,omitempty"`
	Language *string `json:"language,omitempty"`
}
