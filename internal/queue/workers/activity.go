package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/dioscarr/Topapi/internal/models"
	"github.com/dioscarr/Topapi/internal/queue"
)

type ActivityRecorder interface {
	Record(ctx context.Context, e models.ActivityEntry) (*models.ActivityEntry, error)
}

type ActivityWorker struct {
	recorder ActivityRecorder
}

func NewActivityWorker(recorder ActivityRecorder) *ActivityWorker {
	return &ActivityWorker{recorder: recorder}
}

func (w *ActivityWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.ActivityRecordPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	entry, err := entryFrom(payload)
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	saved, err := w.recorder.Record(ctx, entry)
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}

	slog.Info("activity recorded", "id", saved.ID, "action", saved.Action, "user_id", saved.UserID)
	return nil
}

func entryFrom(p queue.ActivityRecordPayload) (models.ActivityEntry, error) {
	userID, err := uuid.Parse(p.UserID)
	if err != nil {
		return models.ActivityEntry{}, fmt.Errorf("parse user ID: %w", err)
	}
	if !slices.Contains(models.Actions, p.Action) {
		return models.ActivityEntry{}, fmt.Errorf("unknown action %q", p.Action)
	}
	e := models.ActivityEntry{UserID: userID, Action: p.Action, ItemName: p.ItemName}
	if p.ItemID != "" {
		itemID, err := uuid.Parse(p.ItemID)
		if err != nil {
			return models.ActivityEntry{}, fmt.Errorf("parse item ID: %w", err)
		}
		e.ItemID = &itemID
	}
	return e, nil
}
