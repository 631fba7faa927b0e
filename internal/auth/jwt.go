package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims mirrors the access tokens issued by the Supabase auth service.
type Claims struct {
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	AppMetadata  map[string]any `json:"app_metadata"`
	UserMetadata map[string]any `json:"user_metadata"`
	jwt.RegisteredClaims
}

// JWTOracle verifies access tokens locally with the project's JWT secret instead of
// calling the auth service.
type JWTOracle struct {
	secret []byte
}

func NewJWTOracle(secret string) *JWTOracle {
	return &JWTOracle{secret: []byte(secret)}
}

func (o *JWTOracle) Identify(_ context.Context, token string) (*Identity, error) {
	if len(o.secret) == 0 {
		return nil, errors.New("jwt secret not configured")
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return o.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}

	raw := map[string]any{
		"sub":           claims.Subject,
		"email":         claims.Email,
		"role":          claims.Role,
		"app_metadata":  claims.AppMetadata,
		"user_metadata": claims.UserMetadata,
	}
	return &Identity{
		ID:     claims.Subject,
		Email:  claims.Email,
		Role:   MetadataRole(claims.AppMetadata),
		Claims: raw,
	}, nil
}

// MetadataRole reads the application role from app metadata, which only the service key can
// write. User metadata is editable by the account holder and is never trusted for roles.
// The top-level "role" claim is the database role ("authenticated") and is ignored.
func MetadataRole(appMeta map[string]any) string {
	if s, ok := appMeta["role"].(string); ok {
		return s
	}
	return ""
}
