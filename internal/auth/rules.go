package auth

import (
	"strings"

	"github.com/dioscarr/Topapi/internal/apperr"
)

// CanActOnOwnResource compares ids case-insensitively since both sides are UUID text.
func CanActOnOwnResource(p Principal, ownerID string) bool {
	return p.ID != "" && strings.EqualFold(p.ID, ownerID)
}

func IsAdmin(p Principal) bool {
	return CanonicalRole(string(p.Role)) == RoleAdmin
}

func CanMutate(p Principal, ownerID string) bool {
	return CanActOnOwnResource(p, ownerID) || IsAdmin(p)
}

// RequireAdmin gates admin-managed resources.
func RequireAdmin(p Principal) error {
	if !IsAdmin(p) {
		return apperr.Forbidden("Admin access required")
	}
	return nil
}

// RequireMutate gates self-or-admin resources.
func RequireMutate(p Principal, ownerID string) error {
	if !CanMutate(p, ownerID) {
		return apperr.Forbidden("You do not have permission to modify this resource")
	}
	return nil
}

// RequireRoleChange allows only admins to assign roles.
func RequireRoleChange(p Principal) error {
	if !IsAdmin(p) {
		return apperr.Forbidden("Only admins can change roles")
	}
	return nil
}

// RequireSelfOrAdmin gates reads of per-user resources.
func RequireSelfOrAdmin(p Principal, ownerID string) error {
	if !CanMutate(p, ownerID) {
		return apperr.Forbidden("Access denied")
	}
	return nil
}
