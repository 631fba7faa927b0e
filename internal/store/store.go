// Package store holds the pieces shared by the Postgres repositories: sentinel
// errors, pgx error classification and a small SQL fragment builder.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

const uniqueViolation = "23505"

// DB is the subset of pgxpool.Pool the repositories use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Classify maps driver errors onto the sentinels, keeping the original in the chain.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w: %s", op, ErrConflict, pgErr.ConstraintName)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Query accumulates positional arguments for dynamically built statements.
type Query struct {
	conds []string
	sets  []string
	args  []any
}

func (q *Query) arg(v any) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

// Where adds a condition; every "?" in cond is replaced by the next placeholder for v.
func (q *Query) Where(cond string, v any) {
	q.conds = append(q.conds, strings.ReplaceAll(cond, "?", q.arg(v)))
}

// WhereRaw adds a condition that takes no argument.
func (q *Query) WhereRaw(cond string) {
	q.conds = append(q.conds, cond)
}

func (q *Query) Set(column string, v any) {
	q.sets = append(q.sets, column+" = "+q.arg(v))
}

// Arg registers v and returns its placeholder.
func (q *Query) Arg(v any) string {
	return q.arg(v)
}

func (q *Query) Args() []any {
	return q.args
}

func (q *Query) HasSets() bool {
	return len(q.sets) > 0
}

// WhereClause renders " WHERE a AND b" or an empty string.
func (q *Query) WhereClause() string {
	if len(q.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.conds, " AND ")
}

func (q *Query) SetClause() string {
	return strings.Join(q.sets, ", ")
}

// Like escapes s for use inside an ILIKE pattern and wraps it in wildcards.
func Like(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
