package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dioscarr/Topapi/internal/models"
	"github.com/dioscarr/Topapi/internal/pagination"
	"github.com/dioscarr/Topapi/internal/store"
)

const columns = `id, name, department, category, quantity, min_quantity, unit, description, created_by, created_at, updated_at`

type Repository struct {
	db store.DB
}

func NewRepository(db store.DB) *Repository {
	return &Repository{db: db}
}

func scan(row interface{ Scan(...any) error }) (*models.InventoryItem, error) {
	var it models.InventoryItem
	err := row.Scan(&it.ID, &it.Name, &it.Department, &it.Category, &it.Quantity, &it.MinQuantity,
		&it.Unit, &it.Description, &it.CreatedBy, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func filterQuery(f models.InventoryFilter) *store.Query {
	q := &store.Query{}
	if f.Search != "" {
		q.Where("name ILIKE ?", store.Like(f.Search))
	}
	if f.Department != "" {
		q.Where("department = ?", f.Department)
	}
	if f.Category != "" {
		q.Where("category = ?", f.Category)
	}
	if f.LowStock {
		q.WhereRaw("quantity <= min_quantity")
	}
	return q
}

func (r *Repository) List(ctx context.Context, f models.InventoryFilter, page pagination.Params) ([]models.InventoryItem, int, error) {
	q := filterQuery(f)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM inventory`+q.WhereClause(), q.Args()...).Scan(&total); err != nil {
		return nil, 0, store.Classify("count inventory", err)
	}

	sql := fmt.Sprintf(`SELECT %s FROM inventory%s ORDER BY name ASC, id ASC LIMIT %s OFFSET %s`,
		columns, q.WhereClause(), q.Arg(page.Limit), q.Arg(page.Offset()))
	rows, err := r.db.Query(ctx, sql, q.Args()...)
	if err != nil {
		return nil, 0, store.Classify("list inventory", err)
	}
	defer rows.Close()

	items := []models.InventoryItem{}
	for rows.Next() {
		it, err := scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, store.Classify("list inventory", err)
	}
	return items, total, nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	it, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM inventory WHERE id = $1`, id))
	if err != nil {
		return nil, store.Classify("get inventory item", err)
	}
	return it, nil
}

func (r *Repository) Create(ctx context.Context, in models.InventoryItem) (*models.InventoryItem, error) {
	it, err := scan(r.db.QueryRow(ctx,
		`INSERT INTO inventory (name, department, category, quantity, min_quantity, unit, description, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+columns,
		in.Name, in.Department, in.Category, in.Quantity, in.MinQuantity, in.Unit, in.Description, in.CreatedBy,
	))
	if err != nil {
		return nil, store.Classify("insert inventory item", err)
	}
	return it, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch models.InventoryPatch) (*models.InventoryItem, error) {
	q := &store.Query{}
	if patch.Name != nil {
		q.Set("name", *patch.Name)
	}
	if patch.Department != nil {
		q.Set("department", *patch.Department)
	}
	if patch.Category != nil {
		q.Set("category", *patch.Category)
	}
	if patch.Quantity != nil {
		q.Set("quantity", *patch.Quantity)
	}
	if patch.MinQuantity != nil {
		q.Set("min_quantity", *patch.MinQuantity)
	}
	if patch.Unit != nil {
		q.Set("unit", *patch.Unit)
	}
	if patch.Description != nil {
		q.Set("description", *patch.Description)
	}
	if !q.HasSets() {
		return r.Get(ctx, id)
	}
	q.Where("id = ?", id)

	it, err := scan(r.db.QueryRow(ctx,
		`UPDATE inventory SET `+q.SetClause()+`, updated_at = now()`+q.WhereClause()+` RETURNING `+columns,
		q.Args()...,
	))
	if err != nil {
		return nil, store.Classify("update inventory item", err)
	}
	return it, nil
}

// Delete returns the removed row so callers can record what was deleted.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	it, err := scan(r.db.QueryRow(ctx, `DELETE FROM inventory WHERE id = $1 RETURNING `+columns, id))
	if err != nil {
		return nil, store.Classify("delete inventory item", err)
	}
	return it, nil
}
