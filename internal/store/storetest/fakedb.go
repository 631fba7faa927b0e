// Package storetest provides an in-memory stand-in for the pgx pool so repository
// SQL can be checked without a database.
package storetest

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Call struct {
	SQL  string
	Args []any
}

// FakeDB records every statement. Rows and Row results are served in FIFO order.
type FakeDB struct {
	mu       sync.Mutex
	Calls    []Call
	rows     [][][]any
	row      []Row
	ExecTag  string
	ExecErr  error
	QueryErr error
}

// QueueRows queues the result set for the next Query call.
func (f *FakeDB) QueueRows(rows ...[]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, rows)
}

// QueueRow queues the result for the next QueryRow call.
func (f *FakeDB) QueueRow(r Row) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.row = append(f.row, r)
}

func (f *FakeDB) record(sql string, args []any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{SQL: sql, Args: args})
}

func (f *FakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.record(sql, args)
	if f.ExecErr != nil {
		return pgconn.CommandTag{}, f.ExecErr
	}
	return pgconn.NewCommandTag(f.ExecTag), nil
}

func (f *FakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.record(sql, args)
	if f.QueryErr != nil {
		return nil, f.QueryErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var set [][]any
	if len(f.rows) > 0 {
		set, f.rows = f.rows[0], f.rows[1:]
	}
	return &Rows{data: set, pos: -1}, nil
}

func (f *FakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.record(sql, args)
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.row) == 0 {
		return Row{Err: pgx.ErrNoRows}
	}
	r := f.row[0]
	f.row = f.row[1:]
	return r
}

// Row is a single-row result.
type Row struct {
	Values []any
	Err    error
}

func (r Row) Scan(dest ...any) error {
	if r.Err != nil {
		return r.Err
	}
	return assign(r.Values, dest)
}

// Rows is a multi-row result.
type Rows struct {
	data [][]any
	pos  int
}

func (r *Rows) Close()                                       {}
func (r *Rows) Err() error                                   { return nil }
func (r *Rows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *Rows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *Rows) RawValues() [][]byte                          { return nil }
func (r *Rows) Conn() *pgx.Conn                              { return nil }

func (r *Rows) Next() bool {
	r.pos++
	return r.pos < len(r.data)
}

func (r *Rows) Scan(dest ...any) error {
	return assign(r.data[r.pos], dest)
}

func (r *Rows) Values() ([]any, error) {
	return r.data[r.pos], nil
}

func assign(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("storetest: %d values for %d destinations", len(values), len(dest))
	}
	for i, v := range values {
		dv := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			dv.Set(reflect.Zero(dv.Type()))
			continue
		}
		sv := reflect.ValueOf(v)
		if !sv.Type().AssignableTo(dv.Type()) {
			return fmt.Errorf("storetest: column %d: cannot assign %T to %s", i, v, dv.Type())
		}
		dv.Set(sv)
	}
	return nil
}
