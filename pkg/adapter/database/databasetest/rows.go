package databasetest

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var fields = []pgconn.FieldDescription{
	{Name: "id"},
	{Name: "username"},
	{Name: "email"},
	{Name: "created_at"},
}

type row struct {
	vals []any
	err  error
}

func (r *row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scan(r.vals, dest)
}

type rows struct {
	vals   [][]any
	idx    int
	closed bool
	err    error
}

var _ pgx.Rows = (*rows)(nil)

func (r *rows) Close() { r.closed = true }

func (r *rows) Err() error { return r.err }

func (r *rows) CommandTag() pgconn.CommandTag {
	return pgconn.NewCommandTag(fmt.Sprintf("SELECT %d", len(r.vals)))
}

func (r *rows) FieldDescriptions() []pgconn.FieldDescription { return fields }

func (r *rows) Next() bool {
	if r.closed {
		return false
	}
	r.idx++
	if r.idx >= len(r.vals) {
		r.closed = true
		return false
	}
	return true
}

func (r *rows) Scan(dest ...any) error {
	if r.idx < 0 || r.idx >= len(r.vals) {
		return fmt.Errorf("scan called without a current row")
	}
	if err := scan(r.vals[r.idx], dest); err != nil {
		r.err = err
		return err
	}
	return nil
}

func (r *rows) Values() ([]any, error) {
	if r.idx < 0 || r.idx >= len(r.vals) {
		return nil, fmt.Errorf("no current row")
	}
	return r.vals[r.idx], nil
}

func (r *rows) RawValues() [][]byte {
	vals, err := r.Values()
	if err != nil {
		return nil
	}
	raw := make([][]byte, len(vals))
	for i, v := range vals {
		raw[i] = []byte(fmt.Sprint(v))
	}
	return raw
}

func (r *rows) Conn() *pgx.Conn { return nil }

func scan(vals []any, dest []any) error {
	if len(dest) != len(vals) {
		return fmt.Errorf("expected %d destination arguments, got %d", len(vals), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			v, ok := vals[i].(int64)
			if !ok {
				return fmt.Errorf("column %d: cannot scan %T into *int64", i, vals[i])
			}
			*p = v
		case *string:
			v, ok := vals[i].(string)
			if !ok {
				return fmt.Errorf("column %d: cannot scan %T into *string", i, vals[i])
			}
			*p = v
		case *time.Time:
			v, ok := vals[i].(time.Time)
			if !ok {
				return fmt.Errorf("column %d: cannot scan %T into *time.Time", i, vals[i])
			}
			*p = v
		case *any:
			*p = vals[i]
		default:
			return fmt.Errorf("column %d: unsupported destination %T", i, d)
		}
	}
	return nil
}
