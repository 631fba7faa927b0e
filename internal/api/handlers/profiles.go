package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/dioscarr/Topapi/internal/api/respond"
	"github.com/dioscarr/Topapi/internal/apperr"
	"github.com/dioscarr/Topapi/internal/auth"
	"github.com/dioscarr/Topapi/internal/models"
	"github.com/dioscarr/Topapi/internal/pagination"
	"github.com/dioscarr/Topapi/internal/validation"
)

type ProfileStore interface {
	List(ctx context.Context, f models.ProfileFilter, page pagination.Params) ([]models.Profile, int, error)
	Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	Create(ctx context.Context, p models.Profile) (*models.Profile, error)
	Update(ctx context.Context, userID uuid.UUID, patch models.ProfilePatch) (*models.Profile, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

var (
	profileCreateSchema = validation.Schema{Strict: true, Fields: []validation.Field{
		validation.Optional("user_id", validation.UUID()),
		validation.Required("name", validation.NotBlank(), validation.Length(1, 100)),
		validation.Optional("role", validation.OneOf(auth.Roles...)),
		validation.Optional("language", validation.OneOf(models.Languages...)),
	}}
	profileUpdateSchema = validation.Schema{Strict: true, Fields: []validation.Field{
		validation.Optional("name", validation.NotBlank(), validation.Length(1, 100)),
		validation.Optional("role", validation.OneOf(auth.Roles...)),
		validation.Optional("language", validation.OneOf(models.Languages...)),
	}}
	profileNormalize = validation.NormalizeOptions{
		Lower: []string{"user_id", "role", "language"},
	}
)

type ProfileHandler struct {
	store ProfileStore
}

func NewProfileHandler(store ProfileStore) *ProfileHandler {
	return &ProfileHandler{store: store}
}

func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.Parse(r.URL.Query())
	f := models.ProfileFilter{
		Search: queryString(r, "search"),
		Role:   string(auth.CanonicalRole(queryString(r, "role"))),
	}

	profiles, total, err := h.store.List(r.Context(), f, page)
	if err != nil {
		respond.Error(w, r, storeError(err, "Profile not found"))
		return
	}
	respond.Page(w, profiles, page.Info(total))
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	p, err := h.store.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, lookupError(r, err, "Profile not found"))
		return
	}
	respond.OK(w, p, "")
}

func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	in, err := validated(r, profileCreateSchema, validation.NormalizeOptions{
		Lower: profileNormalize.Lower,
		Defaults: map[string]any{
			"user_id":  caller.ID,
			"role":     string(auth.RoleStaff),
			"language": models.DefaultLanguage,
		},
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	userID := str(in, "user_id")
	if err := auth.RequireMutate(caller, userID); err != nil {
		respond.Error(w, r, err)
		return
	}
	if str(in, "role") != string(auth.RoleStaff) {
		if err := auth.RequireRoleChange(caller); err != nil {
			respond.Error(w, r, err)
			return
		}
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		respond.Error(w, r, apperr.Unauthenticated("Invalid principal"))
		return
	}
	p, err := h.store.Create(r.Context(), models.Profile{
		UserID:   id,
		Name:     str(in, "name"),
		Role:     str(in, "role"),
		Language: str(in, "language"),
	})
	if err != nil {
		respond.Error(w, r, storeError(err, "Profile not found"))
		return
	}
	respond.Created(w, p, "Profile created successfully")
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	in, err := validatedPatch(r, profileUpdateSchema, profileNormalize)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := auth.RequireMutate(caller, id.String()); err != nil {
		respond.Error(w, r, err)
		return
	}
	var patch models.ProfilePatch
	if err := validation.Decode(in, &patch); err != nil {
		respond.Error(w, r, apperr.BadRequest("Invalid profile payload").Wrap(err))
		return
	}
	if patch.Role != nil {
		if err := auth.RequireRoleChange(caller); err != nil {
			respond.Error(w, r, err)
			return
		}
	}

	p, err := h.store.Update(r.Context(), id, patch)
	if err != nil {
		respond.Error(w, r, storeError(err, "Profile not found"))
		return
	}
	respond.OK(w, p, "Profile updated successfully")
}

func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.store.Delete(r.Context(), id); err != nil {
		respond.Error(w, r, storeError(err, "Profile not found"))
		return
	}
	respond.OK(w, nil, "Profile deleted successfully")
}
