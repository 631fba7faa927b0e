package category

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dioscarr/Topapi/internal/models"
	"github.com/dioscarr/Topapi/internal/pagination"
	"github.com/dioscarr/Topapi/internal/store"
)

const columns = `id, name, department, created_by, created_at`

type Repository struct {
	db store.DB
}

func NewRepository(db store.DB) *Repository {
	return &Repository{db: db}
}

func scan(row interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Department, &c.CreatedBy, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) List(ctx context.Context, f models.CategoryFilter, page pagination.Params) ([]models.Category, int, error) {
	q := &store.Query{}
	if f.Search != "" {
		q.Where("name ILIKE ?", store.Like(f.Search))
	}
	if f.Department != "" {
		q.Where("department = ?", f.Department)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM categories`+q.WhereClause(), q.Args()...).Scan(&total); err != nil {
		return nil, 0, store.Classify("count categories", err)
	}

	sql := fmt.Sprintf(`SELECT %s FROM categories%s ORDER BY name ASC LIMIT %s OFFSET %s`,
		columns, q.WhereClause(), q.Arg(page.Limit), q.Arg(page.Offset()))
	rows, err := r.db.Query(ctx, sql, q.Args()...)
	if err != nil {
		return nil, 0, store.Classify("list categories", err)
	}
	defer rows.Close()

	out := []models.Category{}
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, store.Classify("list categories", err)
	}
	return out, total, nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		return nil, store.Classify("get category", err)
	}
	return c, nil
}

func (r *Repository) Create(ctx context.Context, in models.Category) (*models.Category, error) {
	c, err := scan(r.db.QueryRow(ctx,
		`INSERT INTO categories (name, department, created_by) VALUES ($1, $2, $3) RETURNING `+columns,
		in.Name, in.Department, in.CreatedBy,
	))
	if err != nil {
		return nil, store.Classify("insert category", err)
	}
	return c, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch models.CategoryPatch) (*models.Category, error) {
	q := &store.Query{}
	if patch.Name != nil {
		q.Set("name", *patch.Name)
	}
	if patch.Department != nil {
		q.Set("department", *patch.Department)
	}
	if !q.HasSets() {
		return r.Get(ctx, id)
	}
	q.Where("id = ?", id)

	c, err := scan(r.db.QueryRow(ctx, `UPDATE categories SET `+q.SetClause()+q.WhereClause()+` RETURNING `+columns, q.Args()...))
	if err != nil {
		return nil, store.Classify("update category", err)
	}
	return c, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return store.Classify("delete category", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete category: %w", store.ErrNotFound)
	}
	return nil
}
