package auth

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dioscarr/Topapi/internal/apperr"
)

// IdentityOracle resolves a bearer token to an account identity.
type IdentityOracle interface {
	Identify(ctx context.Context, token string) (*Identity, error)
}

// RoleResolver looks up a user's stored role when the token carries none.
type RoleResolver interface {
	RoleOf(ctx context.Context, userID string) (string, error)
}

type Verifier struct {
	oracle IdentityOracle
	roles  RoleResolver
}

// NewVerifier builds a verifier. roles may be nil.
func NewVerifier(oracle IdentityOracle, roles RoleResolver) *Verifier {
	return &Verifier{oracle: oracle, roles: roles}
}

// Verify is the mandatory mode: any problem yields an Unauthenticated error.
func (v *Verifier) Verify(ctx context.Context, header string) (Principal, error) {
	token, err := ExtractBearerToken(header)
	if err != nil {
		return Principal{}, err
	}
	return v.VerifyToken(ctx, token)
}

func (v *Verifier) VerifyToken(ctx context.Context, token string) (Principal, error) {
	ident, err := v.oracle.Identify(ctx, token)
	if err != nil {
		slog.Debug("token rejected by identity oracle", "error", err)
		return Principal{}, apperr.Unauthenticated("Invalid or expired token").Wrap(err)
	}
	if ident == nil || strings.TrimSpace(ident.ID) == "" {
		return Principal{}, apperr.Unauthenticated("Invalid or expired token")
	}

	role := CanonicalRole(ident.Role)
	if role == "" && v.roles != nil {
		stored, err := v.roles.RoleOf(ctx, ident.ID)
		if err != nil {
			slog.Debug("role lookup failed", "user_id", ident.ID, "error", err)
		}
		role = CanonicalRole(stored)
	}
	if !role.Valid() {
		role = RoleStaff
	}

	return Principal{
		ID:     ident.ID,
		Email:  ident.Email,
		Role:   role,
		Claims: ident.Claims,
		Token:  token,
	}, nil
}

// VerifyOptional never fails; it reports whether a principal was resolved.
func (v *Verifier) VerifyOptional(ctx context.Context, header string) (Principal, bool) {
	p, err := v.Verify(ctx, header)
	if err != nil {
		return Principal{}, false
	}
	return p, true
}

// ExtractBearerToken accepts "Bearer <token>" with a case-insensitive scheme.
func ExtractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", apperr.Unauthenticated("No token provided")
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", apperr.Unauthenticated("Invalid authorization header format")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperr.Unauthenticated("No token provided")
	}
	return token, nil
}
