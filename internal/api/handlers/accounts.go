package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dioscarr/Topapi/internal/apperr"
	"github.com/dioscarr/Topapi/internal/supabase"
)

// Accounts is the identity service: sessions, passwords and account administration.
type Accounts interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*supabase.SignUpResult, error)
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*supabase.Session, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	SignOut(ctx context.Context, token string) error
	UpdateUser(ctx context.Context, token string, attrs supabase.UserAttributes) (*supabase.User, error)
	ListUsers(ctx context.Context, page, perPage int) ([]supabase.User, int, error)
	GetUserByID(ctx context.Context, id string) (*supabase.User, error)
	UpdateUserByID(ctx context.Context, id string, attrs supabase.UserAttributes) (*supabase.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// accountError classifies an identity service failure.
func accountError(err error) error {
	var se *supabase.Error
	if !errors.As(err, &se) {
		return apperr.DependencyFailure("Auth service request failed", err)
	}
	switch se.Status {
	case http.StatusNotFound:
		return apperr.NotFound("User not found").Wrap(err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperr.Unauthenticated(se.Message).Wrap(err)
	case http.StatusTooManyRequests:
		return apperr.RateLimited(se.Message).Wrap(err)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if se.Code == "user_already_exists" || se.Code == "email_exists" || strings.Contains(strings.ToLower(se.Message), "already registered") {
			return apperr.Conflict("User already registered").Wrap(err)
		}
		return apperr.BadRequest(se.Message).Wrap(err)
	default:
		return apperr.DependencyFailure("Auth service request failed", err)
	}
}

// adminAccountError classifies failures of calls made with the service key. A 401 or 403 there
// means the server's own credentials were refused, not the caller's.
func adminAccountError(err error) error {
	if st := supabase.StatusOf(err); st == http.StatusUnauthorized || st == http.StatusForbidden {
		return apperr.DependencyFailure("Auth service rejected the service key", err)
	}
	return accountError(err)
}
