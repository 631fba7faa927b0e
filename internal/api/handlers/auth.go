package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/dioscarr/Topapi/internal/api/respond"
	"github.com/dioscarr/Topapi/internal/apperr"
	"github.com/dioscarr/Topapi/internal/auth"
	"github.com/dioscarr/Topapi/internal/models"
	"github.com/dioscarr/Topapi/internal/supabase"
	"github.com/dioscarr/Topapi/internal/validation"
)

var (
	signupSchema = validation.Schema{Strict: true, Fields: []validation.Field{
		validation.Required("email", validation.Email()),
		validation.Required("password", validation.String(), validation.Length(6, 72)),
		validation.Required("name", validation.NotBlank(), validation.Length(1, 100)),
		validation.Optional("role", validation.OneOf(auth.Roles...)),
		validation.Optional("language", validation.OneOf(models.Languages...)),
	}}
	loginSchema = validation.Schema{Strict: true, Fields: []validation.Field{
		validation.Required("email", validation.Email()),
		validation.Required("password", validation.NotBlank()),
	}}
	refreshSchema = validation.Schema{Strict: true, Fields: []validation.Field{
		validation.Required("refresh_token", validation.NotBlank()),
	}}
	resetSchema = validation.Schema{Strict: true, Fields: []validation.Field{
		validation.Required("email", validation.Email()),
		validation.Optional("redirect_to", validation.String()),
	}}
	passwordSchema = validation.Schema{Strict: true, Fields: []validation.Field{
		validation.Required("password", validation.String(), validation.Length(6, 72)),
	}}
	passwordNormalize = validation.NormalizeOptions{Verbatim: []string{"password"}}
)

type AuthHandler struct {
	accounts Accounts
	profiles ProfileStore
}

func NewAuthHandler(accounts Accounts, profiles ProfileStore) *AuthHandler {
	return &AuthHandler{accounts: accounts, profiles: profiles}
}

// Signup creates the account and its profile as one unit: if the profile insert fails the
// account is deleted again.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	in, err := validated(r, signupSchema, validation.NormalizeOptions{
		Lower:    []string{"email", "role", "language"},
		Defaults: map[string]any{"role": string(auth.RoleStaff), "language": models.DefaultLanguage},
		Verbatim: []string{"password"},
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := auth.RequireAdmin(caller); err != nil {
		respond.Error(w, r, err)
		return
	}

	res, err := h.accounts.SignUp(r.Context(), str(in, "email"), str(in, "password"), map[string]any{
		"name":     str(in, "name"),
		"language": str(in, "language"),
	})
	if err != nil {
		respond.Error(w, r, accountError(err))
		return
	}
	if res.User == nil || res.User.ID == "" {
		respond.Error(w, r, apperr.DependencyFailure("Auth service returned no user", nil))
		return
	}

	userID, err := uuid.Parse(res.User.ID)
	if err == nil {
		var p *models.Profile
		p, err = h.profiles.Create(r.Context(), models.Profile{
			UserID:   userID,
			Name:     str(in, "name"),
			Role:     str(in, "role"),
			Language: str(in, "language"),
		})
		if err == nil {
			respond.Created(w, map[string]any{"user": res.User, "session": res.Session, "profile": p}, "User created successfully")
			return
		}
	}

	// compensate: an account without a profile must not survive
	if delErr := h.accounts.DeleteUser(context.WithoutCancel(r.Context()), res.User.ID); delErr != nil {
		slog.Error("rollback of account after profile failure", "user_id", res.User.ID, "error", delErr)
	}
	respond.Error(w, r, apperr.DependencyFailure("Failed to create user profile", err))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	in, err := validated(r, loginSchema, validation.NormalizeOptions{Lower: []string{"email"}, Verbatim: []string{"password"}})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	sess, err := h.accounts.SignInWithPassword(r.Context(), str(in, "email"), str(in, "password"))
	if err != nil {
		if st := supabase.StatusOf(err); st == http.StatusBadRequest || st == http.StatusUnauthorized {
			respond.Error(w, r, apperr.Unauthenticated("Invalid email or password").Wrap(err))
			return
		}
		respond.Error(w, r, accountError(err))
		return
	}

	data := map[string]any{"user": sess.User, "session": sess}
	if sess.User != nil {
		if p := h.profileOf(r.Context(), sess.User.ID); p != nil {
			data["profile"] = p
		}
	}
	respond.OK(w, data, "Login successful")
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	in, err := validated(r, refreshSchema, validation.NormalizeOptions{})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	sess, err := h.accounts.RefreshSession(r.Context(), str(in, "refresh_token"))
	if err != nil {
		if st := supabase.StatusOf(err); st == http.StatusBadRequest || st == http.StatusUnauthorized {
			respond.Error(w, r, apperr.Unauthenticated("Invalid refresh token").Wrap(err))
			return
		}
		respond.Error(w, r, accountError(err))
		return
	}
	respond.OK(w, map[string]any{"session": sess}, "Token refreshed successfully")
}

// ResetPassword always answers the same way so the response does not reveal whether an account exists.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	in, err := validated(r, resetSchema, validation.NormalizeOptions{Lower: []string{"email"}})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.accounts.ResetPasswordForEmail(r.Context(), str(in, "email"), str(in, "redirect_to")); err != nil {
		slog.Warn("password recovery request failed", "error", err)
	}
	respond.OK(w, nil, "If an account exists for this email, a reset link has been sent")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, map[string]any{
		"user":    caller,
		"profile": h.profileOf(r.Context(), caller.ID),
	}, "")
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.accounts.SignOut(r.Context(), caller.Token); err != nil {
		respond.Error(w, r, accountError(err))
		return
	}
	respond.OK(w, nil, "Logged out successfully")
}

func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	in, err := validated(r, passwordSchema, passwordNormalize)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if _, err := h.accounts.UpdateUser(r.Context(), caller.Token, supabase.UserAttributes{Password: str(in, "password")}); err != nil {
		respond.Error(w, r, accountError(err))
		return
	}
	respond.OK(w, nil, "Password updated successfully")
}

// AdminResetPassword sets another user's password directly.
func (h *AuthHandler) AdminResetPassword(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	id, err := pathUUID(r, "userId")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	in, err := validated(r, passwordSchema, passwordNormalize)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := auth.RequireAdmin(caller); err != nil {
		respond.Error(w, r, err)
		return
	}
	if _, err := h.accounts.UpdateUserByID(r.Context(), id.String(), supabase.UserAttributes{Password: str(in, "password")}); err != nil {
		respond.Error(w, r, adminAccountError(err))
		return
	}
	respond.OK(w, nil, "Password reset successfully")
}

// profileOf is best effort; a missing profile yields nil.
func (h *AuthHandler) profileOf(ctx context.Context, userID string) *models.Profile {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil
	}
	p, err := h.profiles.Get(ctx, id)
	if err != nil {
		slog.Debug("profile lookup", "user_id", userID, "error", err)
		return nil
	}
	return p
}
