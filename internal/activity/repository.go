// Package activity stores the append-only log of inventory actions.
package activity

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dioscarr/Topapi/internal/models"
	"github.com/dioscarr/Topapi/internal/pagination"
	"github.com/dioscarr/Topapi/internal/store"
)

const columns = `id, user_id, action, item_id, item_name, created_at`

type Repository struct {
	db store.DB
}

func NewRepository(db store.DB) *Repository {
	return &Repository{db: db}
}

func scan(row interface{ Scan(...any) error }) (*models.ActivityEntry, error) {
	var e models.ActivityEntry
	if err := row.Scan(&e.ID, &e.UserID, &e.Action, &e.ItemID, &e.ItemName, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// Record inserts one entry and returns it as stored.
func (r *Repository) Record(ctx context.Context, e models.ActivityEntry) (*models.ActivityEntry, error) {
	out, err := scan(r.db.QueryRow(ctx,
		`INSERT INTO activity_log (user_id, action, item_id, item_name)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+columns,
		e.UserID, e.Action, e.ItemID, e.ItemName,
	))
	if err != nil {
		return nil, store.Classify("insert activity entry", err)
	}
	return out, nil
}

func (r *Repository) List(ctx context.Context, f models.ActivityFilter, page pagination.Params) ([]models.ActivityEntry, int, error) {
	q := &store.Query{}
	if f.UserID != nil {
		q.Where("user_id = ?", *f.UserID)
	}
	if f.Action != "" {
		q.Where("action = ?", f.Action)
	}
	if f.ItemID != nil {
		q.Where("item_id = ?", *f.ItemID)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM activity_log`+q.WhereClause(), q.Args()...).Scan(&total); err != nil {
		return nil, 0, store.Classify("count activity log", err)
	}

	sql := fmt.Sprintf(`SELECT %s FROM activity_log%s ORDER BY created_at DESC LIMIT %s OFFSET %s`,
		columns, q.WhereClause(), q.Arg(page.Limit), q.Arg(page.Offset()))
	rows, err := r.db.Query(ctx, sql, q.Args()...)
	if err != nil {
		return nil, 0, store.Classify("query activity log", err)
	}
	defer rows.Close()

	entries := []models.ActivityEntry{}
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan activity entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, store.Classify("query activity log", err)
	}
	return entries, total, nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.ActivityEntry, error) {
	e, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM activity_log WHERE id = $1`, id))
	if err != nil {
		return nil, store.Classify("get activity entry", err)
	}
	return e, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM activity_log WHERE id = $1`, id)
	if err != nil {
		return store.Classify("delete activity entry", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete activity entry: %w", store.ErrNotFound)
	}
	return nil
}
