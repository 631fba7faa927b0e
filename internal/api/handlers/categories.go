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

type CategoryStore interface {
	List(ctx context.Context, f models.CategoryFilter, page pagination.Params) ([]models.Category, int, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Category, error)
	Create(ctx context.Context, c models.Category) (*models.Category, error)
	Update(ctx context.Context, id uuid.UUID, patch models.CategoryPatch) (*models.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

var (
	categoryCreateSchema = validation.Schema{Strict: true, Fields: []validation.Field{
		validation.Required("name", validation.NotBlank(), validation.Length(1, 100)),
		validation.Optional("department", validation.Length(0, 100)),
	}}
	categoryUpdateSchema = validation.Schema{Strict: true, Fields: []validation.Field{
		validation.Optional("name", validation.NotBlank(), validation.Length(1, 100)),
		validation.Optional("department", validation.Length(0, 100)),
	}}
)

type CategoryHandler struct {
	store CategoryStore
}

func NewCategoryHandler(store CategoryStore) *CategoryHandler {
	return &CategoryHandler{store: store}
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.Parse(r.URL.Query())
	f := models.CategoryFilter{
		Search:     queryString(r, "search"),
		Department: queryString(r, "department"),
	}
	cats, total, err := h.store.List(r.Context(), f, page)
	if err != nil {
		respond.Error(w, r, storeError(err, "Category not found"))
		return
	}
	respond.Page(w, cats, page.Info(total))
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	c, err := h.store.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, lookupError(r, err, "Category not found"))
		return
	}
	respond.OK(w, c, "")
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	in, err := validated(r, categoryCreateSchema, validation.NormalizeOptions{
		Defaults: map[string]any{"department": ""},
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := auth.RequireAdmin(caller); err != nil {
		respond.Error(w, r, err)
		return
	}

	c, err := h.store.Create(r.Context(), models.Category{
		Name:       str(in, "name"),
		Department: str(in, "department"),
		CreatedBy:  principalUUID(caller),
	})
	if err != nil {
		respond.Error(w, r, storeError(err, "Category not found"))
		return
	}
	respond.Created(w, c, "Category created successfully")
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	in, err := validatedPatch(r, categoryUpdateSchema, validation.NormalizeOptions{})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := auth.RequireAdmin(caller); err != nil {
		respond.Error(w, r, err)
		return
	}

	var patch models.CategoryPatch
	if err := validation.Decode(in, &patch); err != nil {
		respond.Error(w, r, apperr.BadRequest("Invalid category payload").Wrap(err))
		return
	}
	c, err := h.store.Update(r.Context(), id, patch)
	if err != nil {
		respond.Error(w, r, storeError(err, "Category not found"))
		return
	}
	respond.OK(w, c, "Category updated successfully")
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := auth.RequireAdmin(caller); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		respond.Error(w, r, storeError(err, "Category not found"))
		return
	}
	respond.OK(w, nil, "Category deleted successfully")
}
