package profile

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dioscarr/Topapi/internal/models"
	"github.com/dioscarr/Topapi/internal/pagination"
	"github.com/dioscarr/Topapi/internal/store"
)

const columns = `user_id, name, role, language, created_at, updated_at`

type Repository struct {
	db store.DB
}

func NewRepository(db store.DB) *Repository {
	return &Repository{db: db}
}

func scan(row interface{ Scan(...any) error }) (*models.Profile, error) {
	var p models.Profile
	if err := row.Scan(&p.UserID, &p.Name, &p.Role, &p.Language, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func filterQuery(f models.ProfileFilter) *store.Query {
	q := &store.Query{}
	if f.Search != "" {
		q.Where("name ILIKE ?", store.Like(f.Search))
	}
	if f.Role != "" {
		q.Where("role = ?", f.Role)
	}
	return q
}

func (r *Repository) List(ctx context.Context, f models.ProfileFilter, page pagination.Params) ([]models.Profile, int, error) {
	q := filterQuery(f)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`+q.WhereClause(), q.Args()...).Scan(&total); err != nil {
		return nil, 0, store.Classify("count profiles", err)
	}

	sql := fmt.Sprintf(`SELECT %s FROM profiles%s ORDER BY created_at DESC LIMIT %s OFFSET %s`,
		columns, q.WhereClause(), q.Arg(page.Limit), q.Arg(page.Offset()))
	rows, err := r.db.Query(ctx, sql, q.Args()...)
	if err != nil {
		return nil, 0, store.Classify("list profiles", err)
	}
	defer rows.Close()

	out := []models.Profile{}
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, store.Classify("list profiles", err)
	}
	return out, total, nil
}

func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	p, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM profiles WHERE user_id = $1`, userID))
	if err != nil {
		return nil, store.Classify("get profile", err)
	}
	return p, nil
}

func (r *Repository) Create(ctx context.Context, in models.Profile) (*models.Profile, error) {
	p, err := scan(r.db.QueryRow(ctx,
		`INSERT INTO profiles (user_id, name, role, language)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+columns,
		in.UserID, in.Name, in.Role, in.Language,
	))
	if err != nil {
		return nil, store.Classify("insert profile", err)
	}
	return p, nil
}

func (r *Repository) Update(ctx context.Context, userID uuid.UUID, patch models.ProfilePatch) (*models.Profile, error) {
	q := &store.Query{}
	if patch.Name != nil {
		q.Set("name", *patch.Name)
	}
	if patch.Role != nil {
		q.Set("role", *patch.Role)
	}
	if patch.Language != nil {
		q.Set("language", *patch.Language)
	}
	if !q.HasSets() {
		return r.Get(ctx, userID)
	}
	q.Where("user_id = ?", userID)

	p, err := scan(r.db.QueryRow(ctx,
		`UPDATE profiles SET `+q.SetClause()+`, updated_at = now()`+q.WhereClause()+` RETURNING `+columns,
		q.Args()...,
	))
	if err != nil {
		return nil, store.Classify("update profile", err)
	}
	return p, nil
}

func (r *Repository) Delete(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID)
	if err != nil {
		return store.Classify("delete profile", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete profile: %w", store.ErrNotFound)
	}
	return nil
}

// RoleOf satisfies auth.RoleResolver.
func (r *Repository) RoleOf(ctx context.Context, userID string) (string, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return "", fmt.Errorf("parse user id: %w", err)
	}
	var role string
	if err := r.db.QueryRow(ctx, `SELECT role FROM profiles WHERE user_id = $1`, id).Scan(&role); err != nil {
		return "", store.Classify("get profile role", err)
	}
	return role, nil
}
