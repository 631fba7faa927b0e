package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify("get", nil))

	err := Classify("get profile", pgx.ErrNoRows)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "get profile")

	err = Classify("insert profile", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505", ConstraintName: "profiles_pkey"}))
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "profiles_pkey")

	boom := errors.New("connection refused")
	err = Classify("list", boom)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestQueryBuilder(t *testing.T) {
	var q Query
	q.Where("name ILIKE ?", Like("wid_get"))
	q.Where("department = ?", "tools")
	q.WhereRaw("quantity <= min_quantity")
	assert.Equal(t, " WHERE name ILIKE $1 AND department = $2 AND quantity <= min_quantity", q.WhereClause())
	assert.Equal(t, []any{`%wid\_get%`, "tools"}, q.Args())

	limit := q.Arg(10)
	assert.Equal(t, "$3", limit)

	var u Query
	assert.False(t, u.HasSets())
	u.Set("name", "Widget")
	u.Set("quantity", 4)
	assert.True(t, u.HasSets())
	assert.Equal(t, "name = $1, quantity = $2", u.SetClause())
	assert.Empty(t, u.WhereClause())
}
