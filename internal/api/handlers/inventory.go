package handlers

import (
	"context"
	"log/slog"
	"math"
	"net/http"

	"github.com/google/uuid"

	"github.com/dioscarr/Topapi/internal/api/respond"
	"github.com/dioscarr/Topapi/internal/apperr"
	"github.com/dioscarr/Topapi/internal/auth"
	"github.com/dioscarr/Topapi/internal/models"
	"github.com/dioscarr/Topapi/internal/pagination"
	"github.com/dioscarr/Topapi/internal/queue"
	"github.com/dioscarr/Topapi/internal/validation"
)

type InventoryStore interface {
	List(ctx context.Context, f models.InventoryFilter, page pagination.Params) ([]models.InventoryItem, int, error)
	Get(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	Create(ctx context.Context, it models.InventoryItem) (*models.InventoryItem, error)
	Update(ctx context.Context, id uuid.UUID, patch models.InventoryPatch) (*models.InventoryItem, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
}

// ActivityEnqueuer hands inventory mutations to the background activity recorder.
type ActivityEnqueuer interface {
	EnqueueActivityRecord(ctx context.Context, p queue.ActivityRecordPayload) error
}

var (
	inventoryCreateSchema = validation.Schema{Strict: true, Fields: []validation.Field{
		validation.Required("name", validation.NotBlank(), validation.Length(1, 200)),
		validation.Optional("department", validation.Length(0, 100)),
		validation.Optional("category", validation.Length(0, 100)),
		validation.Required("quantity", validation.Int(), validation.Min(0), validation.Max(math.MaxInt32)),
		validation.Optional("min_quantity", validation.Int(), validation.Min(0), validation.Max(math.MaxInt32)),
		validation.Optional("unit", validation.Length(0, 50)),
		validation.Optional("description", validation.Length(0, 1000)),
	}}
	inventoryUpdateSchema = validation.Schema{Strict: true, Fields: []validation.Field{
		validation.Optional("name", validation.NotBlank(), validation.Length(1, 200)),
		validation.Optional("department", validation.Length(0, 100)),
		validation.Optional("category", validation.Length(0, 100)),
		validation.Optional("quantity", validation.Int(), validation.Min(0), validation.Max(math.MaxInt32)),
		validation.Optional("min_quantity", validation.Int(), validation.Min(0), validation.Max(math.MaxInt32)),
		validation.Optional("unit", validation.Length(0, 50)),
		validation.Optional("description", validation.Length(0, 1000)),
	}}
)

type InventoryHandler struct {
	store InventoryStore
	tasks ActivityEnqueuer
}

// NewInventoryHandler builds the handler. tasks may be nil when no queue is configured.
func NewInventoryHandler(store InventoryStore, tasks ActivityEnqueuer) *InventoryHandler {
	return &InventoryHandler{store: store, tasks: tasks}
}

func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.Parse(r.URL.Query())
	f := models.InventoryFilter{
		Search:     queryString(r, "search"),
		Department: queryString(r, "department"),
		Category:   queryString(r, "category"),
		LowStock:   queryString(r, "low_stock") == "true",
	}

	items, total, err := h.store.List(r.Context(), f, page)
	if err != nil {
		respond.Error(w, r, storeError(err, "Inventory item not found"))
		return
	}
	respond.Page(w, items, page.Info(total))
}

func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	it, err := h.store.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, lookupError(r, err, "Inventory item not found"))
		return
	}
	respond.OK(w, it, "")
}

func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	in, err := validated(r, inventoryCreateSchema, validation.NormalizeOptions{
		Defaults: map[string]any{"min_quantity": 0, "department": "", "category": "", "unit": "", "description": ""},
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := auth.RequireAdmin(caller); err != nil {
		respond.Error(w, r, err)
		return
	}

	var item models.InventoryItem
	if err := validation.Decode(in, &item); err != nil {
		respond.Error(w, r, apperr.BadRequest("Invalid inventory payload").Wrap(err))
		return
	}
	item.CreatedBy = principalUUID(caller)

	created, err := h.store.Create(r.Context(), item)
	if err != nil {
		respond.Error(w, r, storeError(err, "Inventory item not found"))
		return
	}
	h.record(r.Context(), caller, models.ActionCreated, created)
	respond.Created(w, created, "Inventory item created successfully")
}

func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	in, err := validatedPatch(r, inventoryUpdateSchema, validation.NormalizeOptions{})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := auth.RequireAdmin(caller); err != nil {
		respond.Error(w, r, err)
		return
	}

	var patch models.InventoryPatch
	if err := validation.Decode(in, &patch); err != nil {
		respond.Error(w, r, apperr.BadRequest("Invalid inventory payload").Wrap(err))
		return
	}
	updated, err := h.store.Update(r.Context(), id, patch)
	if err != nil {
		respond.Error(w, r, storeError(err, "Inventory item not found"))
		return
	}
	h.record(r.Context(), caller, models.ActionUpdated, updated)
	respond.OK(w, updated, "Inventory item updated successfully")
}

func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	deleted, err := h.store.Delete(r.Context(), id)
	if err != nil {
		respond.Error(w, r, storeError(err, "Inventory item not found"))
		return
	}
	h.record(r.Context(), caller, models.ActionDeleted, deleted)
	respond.OK(w, nil, "Inventory item deleted successfully")
}

// record never fails the request; the activity log is best effort.
func (h *InventoryHandler) record(ctx context.Context, caller auth.Principal, action string, it *models.InventoryItem) {
	if h.tasks == nil || it == nil {
		return
	}
	err := h.tasks.EnqueueActivityRecord(context.WithoutCancel(ctx), queue.ActivityRecordPayload{
		UserID:   caller.ID,
		Action:   action,
		ItemID:   it.ID.String(),
		ItemName: it.Name,
	})
	if err != nil {
		slog.Warn("enqueue activity record", "action", action, "item_id", it.ID, "error", err)
	}
}
