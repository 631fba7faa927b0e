package department

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dioscarr/Topapi/internal/models"
	"github.com/dioscarr/Topapi/internal/pagination"
	"github.com/dioscarr/Topapi/internal/store"
)

const columns = `id, name, created_by, created_at`

type Repository struct {
	db store.DB
}

func NewRepository(db store.DB) *Repository {
	return &Repository{db: db}
}

func scan(row interface{ Scan(...any) error }) (*models.Department, error) {
	var d models.Department
	if err := row.Scan(&d.ID, &d.Name, &d.CreatedBy, &d.CreatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Repository) List(ctx context.Context, f models.DepartmentFilter, page pagination.Params) ([]models.Department, int, error) {
	q := &store.Query{}
	if f.Search != "" {
		q.Where("name ILIKE ?", store.Like(f.Search))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM departments`+q.WhereClause(), q.Args()...).Scan(&total); err != nil {
		return nil, 0, store.Classify("count departments", err)
	}

	sql := fmt.Sprintf(`SELECT %s FROM departments%s ORDER BY name ASC LIMIT %s OFFSET %s`,
		columns, q.WhereClause(), q.Arg(page.Limit), q.Arg(page.Offset()))
	rows, err := r.db.Query(ctx, sql, q.Args()...)
	if err != nil {
		return nil, 0, store.Classify("list departments", err)
	}
	defer rows.Close()

	out := []models.Department{}
	for rows.Next() {
		d, err := scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan department: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, store.Classify("list departments", err)
	}
	return out, total, nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Department, error) {
	d, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM departments WHERE id = $1`, id))
	if err != nil {
		return nil, store.Classify("get department", err)
	}
	return d, nil
}

func (r *Repository) Create(ctx context.Context, in models.Department) (*models.Department, error) {
	d, err := scan(r.db.QueryRow(ctx,
		`INSERT INTO departments (name, created_by) VALUES ($1, $2) RETURNING `+columns,
		in.Name, in.CreatedBy,
	))
	if err != nil {
		return nil, store.Classify("insert department", err)
	}
	return d, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch models.DepartmentPatch) (*models.Department, error) {
	if patch.Name == nil {
		return r.Get(ctx, id)
	}
	d, err := scan(r.db.QueryRow(ctx,
		`UPDATE departments SET name = $1 WHERE id = $2 RETURNING `+columns, *patch.Name, id))
	if err != nil {
		return nil, store.Classify("update department", err)
	}
	return d, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return store.Classify("delete department", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete department: %w", store.ErrNotFound)
	}
	return nil
}
