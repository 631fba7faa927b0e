package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/dioscarr/Topapi/internal/api/respond"
	"github.com/dioscarr/Topapi/internal/auth"
	"github.com/dioscarr/Topapi/internal/models"
	"github.com/dioscarr/Topapi/internal/pagination"
	"github.com/dioscarr/Topapi/internal/validation"
)

type DepartmentStore interface {
	List(ctx context.Context, f models.DepartmentFilter, page pagination.Params) ([]models.Department, int, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Department, error)
	Create(ctx context.Context, d models.Department) (*models.Department, error)
	Update(ctx context.Context, id uuid.UUID, patch models.DepartmentPatch) (*models.Department, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

var departmentSchema = validation.Schema{Strict: true, Fields: []validation.Field{
	validation.Required("name", validation.NotBlank(), validation.Length(1, 100)),
}}

type DepartmentHandler struct {
	store DepartmentStore
}

func NewDepartmentHandler(store DepartmentStore) *DepartmentHandler {
	return &DepartmentHandler{store: store}
}

func (h *DepartmentHandler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.Parse(r.URL.Query())
	deps, total, err := h.store.List(r.Context(), models.DepartmentFilter{Search: queryString(r, "search")}, page)
	if err != nil {
		respond.Error(w, r, storeError(err, "Department not found"))
		return
	}
	respond.Page(w, deps, page.Info(total))
}

func (h *DepartmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	d, err := h.store.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, lookupError(r, err, "Department not found"))
		return
	}
	respond.OK(w, d, "")
}

func (h *DepartmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	in, err := validated(r, departmentSchema, validation.NormalizeOptions{})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := auth.RequireAdmin(caller); err != nil {
		respond.Error(w, r, err)
		return
	}

	d, err := h.store.Create(r.Context(), models.Department{Name: str(in, "name"), CreatedBy: principalUUID(caller)})
	if err != nil {
		respond.Error(w, r, storeError(err, "Department not found"))
		return
	}
	respond.Created(w, d, "Department created successfully")
}

// Update renames a department; name is its only mutable field.
func (h *DepartmentHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	in, err := validated(r, departmentSchema, validation.NormalizeOptions{})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := auth.RequireAdmin(caller); err != nil {
		respond.Error(w, r, err)
		return
	}

	name := str(in, "name")
	d, err := h.store.Update(r.Context(), id, models.DepartmentPatch{Name: &name})
	if err != nil {
		respond.Error(w, r, storeError(err, "Department not found"))
		return
	}
	respond.OK(w, d, "Department updated successfully")
}

func (h *DepartmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
		respond.Error(w, r, storeError(err, "Department not found"))
		return
	}
	respond.OK(w, nil, "Department deleted successfully")
}
