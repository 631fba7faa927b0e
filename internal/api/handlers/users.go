package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dioscarr/Topapi/internal/api/respond"
	"github.com/dioscarr/Topapi/internal/auth"
	"github.com/dioscarr/Topapi/internal/models"
	"github.com/dioscarr/Topapi/internal/pagination"
	"github.com/dioscarr/Topapi/internal/store"
	"github.com/dioscarr/Topapi/internal/supabase"
	"github.com/dioscarr/Topapi/internal/validation"
)

var userUpdateSchema = validation.Schema{Strict: true, Fields: []validation.Field{
	validation.Optional("email", validation.Email()),
	validation.Optional("name", validation.NotBlank(), validation.Length(1, 100)),
}}

// UserHandler manages auth accounts together with their profiles.
type UserHandler struct {
	accounts Accounts
	profiles ProfileStore
}

func NewUserHandler(accounts Accounts, profiles ProfileStore) *UserHandler {
	return &UserHandler{accounts: accounts, profiles: profiles}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := auth.RequireAdmin(caller); err != nil {
		respond.Error(w, r, err)
		return
	}

	page := pagination.Parse(r.URL.Query())
	users, total, err := h.accounts.ListUsers(r.Context(), page.Page, page.Limit)
	if err != nil {
		respond.Error(w, r, adminAccountError(err))
		return
	}
	respond.Page(w, users, page.Info(total))
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := auth.RequireSelfOrAdmin(caller, id.String()); err != nil {
		respond.Error(w, r, err)
		return
	}

	u, err := h.accounts.GetUserByID(r.Context(), id.String())
	if err != nil {
		respond.Error(w, r, lookupError(r, err, "User not found"))
		return
	}
	data := map[string]any{"user": u, "profile": nil}
	if p, err := h.profiles.Get(r.Context(), id); err == nil {
		data["profile"] = p
	}
	respond.OK(w, data, "")
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	in, err := validatedPatch(r, userUpdateSchema, validation.NormalizeOptions{Lower: []string{"email"}})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := auth.RequireMutate(caller, id.String()); err != nil {
		respond.Error(w, r, err)
		return
	}

	attrs := supabase.UserAttributes{Email: str(in, "email")}
	name, hasName := in["name"].(string)
	var prev, p *models.Profile
	if hasName {
		attrs.UserMetadata = map[string]any{"name": name}

		// the profile write goes first so a store failure leaves the account untouched
		prev, err = h.profiles.Get(r.Context(), id)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			respond.Error(w, r, storeError(err, "Profile not found"))
			return
		}
		if prev != nil {
			p, err = h.profiles.Update(r.Context(), id, models.ProfilePatch{Name: &name})
			if err != nil {
				respond.Error(w, r, storeError(err, "Profile not found"))
				return
			}
		}
	}

	u, err := h.accounts.UpdateUserByID(r.Context(), id.String(), attrs)
	if err != nil {
		if p != nil {
			h.restoreName(r.Context(), prev)
		}
		respond.Error(w, r, adminAccountError(err))
		return
	}

	data := map[string]any{"user": u}
	if hasName {
		data["profile"] = p
	}
	respond.OK(w, data, "User updated successfully")
}

func (h *UserHandler) restoreName(ctx context.Context, prev *models.Profile) {
	_, err := h.profiles.Update(context.WithoutCancel(ctx), prev.UserID, models.ProfilePatch{Name: &prev.Name})
	if err != nil {
		slog.Error("restore profile name after account update failure", "user_id", prev.UserID, "error", err)
	}
}

// Delete removes the account first; a leftover profile row is inert without it.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := auth.RequireMutate(caller, id.String()); err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.accounts.DeleteUser(r.Context(), id.String()); err != nil {
		respond.Error(w, r, adminAccountError(err))
		return
	}
	if err := h.profiles.Delete(r.Context(), id); err != nil && !errors.Is(err, store.ErrNotFound) {
		respond.Error(w, r, storeError(err, "Profile not found"))
		return
	}
	respond.OK(w, nil, "User deleted successfully")
}
