package auth

import (
	"context"
	"strings"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// Roles lists the canonical role values accepted in profiles.
var Roles = []string{string(RoleAdmin), string(RoleStaff)}

// CanonicalRole is the single place role strings are normalized. Unknown values are returned
// lower-cased so callers can still reject them.
func CanonicalRole(raw string) Role {
	return Role(strings.ToLower(strings.TrimSpace(raw)))
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// Identity is what the identity oracle returns for a verified token.
type Identity struct {
	ID     string
	Email  string
	Role   string
	Claims map[string]any
}

// Principal is the authenticated actor for one request.
type Principal struct {
	ID     string         `json:"id"`
	Email  string         `json:"email,omitempty"`
	Role   Role           `json:"role"`
	Claims map[string]any `json:"-"`
	Token  string         `json:"-"`
}

type ctxKey string

const principalKey ctxKey = "principal"

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, &p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	if !ok || p == nil {
		return Principal{}, false
	}
	return *p, true
}
