package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dioscarr/Topapi/internal/api/respond"
	"github.com/dioscarr/Topapi/internal/apperr"
	"github.com/dioscarr/Topapi/internal/auth"
	"github.com/dioscarr/Topapi/internal/models"
	"github.com/dioscarr/Topapi/internal/pagination"
	"github.com/dioscarr/Topapi/internal/validation"
)

type ActivityStore interface {
	List(ctx context.Context, f models.ActivityFilter, page pagination.Params) ([]models.ActivityEntry, int, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ActivityEntry, error)
	Record(ctx context.Context, e models.ActivityEntry) (*models.ActivityEntry, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// user_id is accepted for compatibility but always replaced by the caller's id.
var activityCreateSchema = validation.Schema{Strict: true, Fields: []validation.Field{
	validation.Optional("user_id", validation.UUID()),
	validation.Required("action", validation.OneOf(models.Actions...)),
	validation.Optional("item_id", validation.UUID()),
	validation.Optional("item_name", validation.Length(0, 200)),
}}

type ActivityHandler struct {
	store ActivityStore
}

func NewActivityHandler(store ActivityStore) *ActivityHandler {
	return &ActivityHandler{store: store}
}

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.Parse(r.URL.Query())
	userID, err := queryUUID(r, "user_id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	itemID, err := queryUUID(r, "item_id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	action := strings.ToLower(queryString(r, "action"))
	if action != "" {
		if err := (validation.Schema{Fields: []validation.Field{
			validation.Optional("action", validation.OneOf(models.Actions...)),
		}}).Validate(map[string]any{"action": action}).Err(); err != nil {
			respond.Error(w, r, err)
			return
		}
	}

	entries, total, err := h.store.List(r.Context(), models.ActivityFilter{UserID: userID, Action: action, ItemID: itemID}, page)
	if err != nil {
		respond.Error(w, r, storeError(err, "Activity entry not found"))
		return
	}
	respond.Page(w, entries, page.Info(total))
}

func (h *ActivityHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	e, err := h.store.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, lookupError(r, err, "Activity entry not found"))
		return
	}
	respond.OK(w, e, "")
}

func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	in, err := validated(r, activityCreateSchema, validation.NormalizeOptions{
		Lower:    []string{"action", "item_id"},
		Defaults: map[string]any{"item_name": ""},
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	userID := principalUUID(caller)
	if userID == nil {
		respond.Error(w, r, apperr.Unauthenticated("Invalid principal"))
		return
	}
	entry := models.ActivityEntry{UserID: *userID, Action: str(in, "action"), ItemName: str(in, "item_name")}
	if raw := str(in, "item_id"); raw != "" {
		itemID := uuid.MustParse(raw)
		entry.ItemID = &itemID
	}

	saved, err := h.store.Record(r.Context(), entry)
	if err != nil {
		respond.Error(w, r, storeError(err, "Activity entry not found"))
		return
	}
	respond.Created(w, saved, "Activity logged successfully")
}

func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
		respond.Error(w, r, storeError(err, "Activity entry not found"))
		return
	}
	respond.OK(w, nil, "Activity entry deleted successfully")
}
