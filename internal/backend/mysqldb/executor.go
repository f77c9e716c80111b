// Package mysqldb runs backend queries against MySQL.
package mysqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/storefront-golang/internal/backend"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
)

// maxLimit stands in for "no limit" when only an offset is given.
const maxLimit = "18446744073709551615"

type Executor struct {
	db     *sql.DB
	schema *backend.Schema
	now    func() time.Time
}

func New(db *sql.DB, schema *backend.Schema) *Executor {
	return &Executor{db: db, schema: schema, now: time.Now}
}

func (e *Executor) Execute(ctx context.Context, q backend.Query) (backend.Result, error) {
	t, err := e.schema.Validate(q)
	if err != nil {
		return backend.Result{}, err
	}

	switch q.Op {
	case backend.OpSelect:
		query, args, err := buildSelect(t, q)
		if err != nil {
			return backend.Result{}, err
		}
		rows, err := e.query(ctx, t, query, args)
		if err != nil {
			return backend.Result{}, err
		}
		return backend.Result{Rows: rows}, nil

	case backend.OpCount:
		query, args, err := buildCount(t, q)
		if err != nil {
			return backend.Result{}, err
		}
		var n int
		if err := e.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
			return backend.Result{}, translate(err)
		}
		return backend.Result{Count: n}, nil

	case backend.OpInsert:
		return e.insert(ctx, t, q.Rows)

	case backend.OpUpdate:
		query, args, err := buildUpdate(t, q)
		if err != nil {
			return backend.Result{}, err
		}
		return e.exec(ctx, query, args)

	case backend.OpDelete:
		query, args, err := buildDelete(t, q)
		if err != nil {
			return backend.Result{}, err
		}
		return e.exec(ctx, query, args)
	}
	return backend.Result{}, backend.ErrUnsupported
}

func (e *Executor) insert(ctx context.Context, t *backend.Table, rows []backend.Row) (backend.Result, error) {
	if len(rows) == 0 {
		return backend.Result{}, nil
	}
	now := e.now()
	prepared := make([]backend.Row, 0, len(rows))
	for _, r := range rows {
		nr, err := t.Normalize(r)
		if err != nil {
			return backend.Result{}, err
		}
		prepared = append(prepared, t.Prepare(nr, now))
	}

	query, args, err := buildInsert(t, prepared)
	if err != nil {
		return backend.Result{}, err
	}
	if _, err := e.db.ExecContext(ctx, query, args...); err != nil {
		return backend.Result{}, translate(err)
	}

	// MySQL has no RETURNING, so read the rows back by primary key.
	pk := t.PrimaryKey()
	ids := make([]any, len(prepared))
	for i, r := range prepared {
		ids[i] = r[pk]
	}
	query = fmt.Sprintf("SELECT %s FROM %s WHERE %s IN (%s)",
		columnList(t.ColumnNames()), quote(t.Name), quote(pk), placeholders(len(ids)))
	stored, err := e.query(ctx, t, query, ids)
	if err != nil {
		return backend.Result{}, err
	}

	byID := make(map[any]backend.Row, len(stored))
	for _, r := range stored {
		byID[r[pk]] = r
	}
	out := make([]backend.Row, 0, len(prepared))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return backend.Result{Rows: out}, nil
}

func (e *Executor) query(ctx context.Context, t *backend.Table, query string, args []any) ([]backend.Row, error) {
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []backend.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		raw := make(backend.Row, len(cols))
		for i, c := range cols {
			raw[c] = vals[i]
		}
		row, err := t.Normalize(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Executor) exec(ctx context.Context, query string, args []any) (backend.Result, error) {
	res, err := e.db.ExecContext(ctx, query, args...)
	if err != nil {
		return backend.Result{}, translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return backend.Result{}, err
	}
	return backend.Result{Count: int(n)}, nil
}

// translate maps MySQL constraint violations onto backend.Error so
// callers can tell a duplicate from an outage. Everything else is
// returned untouched.
func translate(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		status := 400
		if myErr.Number == 1062 {
			status = 409
		}
		return &backend.Error{
			Status:  status,
			Code:    fmt.Sprintf("%d", myErr.Number),
			Message: myErr.Message,
		}
	}
	return err
}

func quote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func columnList(cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = quote(c)
	}
	return strings.Join(q, ", ")
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func selectColumns(t *backend.Table, q backend.Query) []string {
	if len(q.Columns) == 0 {
		return t.ColumnNames()
	}
	for _, c := range q.Columns {
		if c == "*" {
			return t.ColumnNames()
		}
	}
	return q.Columns
}

func buildWhere(t *backend.Table, filters []backend.Filter) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	parts := make([]string, 0, len(filters))
	var args []any
	for _, f := range filters {
		v, err := encode(t, f.Column, f.Value)
		if err != nil {
			return "", nil, err
		}
		if v == nil {
			parts = append(parts, quote(f.Column)+" IS NULL")
			continue
		}
		parts = append(parts, quote(f.Column)+" = ?")
		args = append(args, v)
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

func buildSelect(t *backend.Table, q backend.Query) (string, []any, error) {
	where, args, err := buildWhere(t, q.Filters)
	if err != nil {
		return "", nil, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s%s", columnList(selectColumns(t, q)), quote(t.Name), where)
	if q.OrderBy != "" {
		dir := "DESC"
		if q.Ascending {
			dir = "ASC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", quote(q.OrderBy), dir)
	}
	switch {
	case q.Limit > 0:
		b.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
		if q.Offset > 0 {
			b.WriteString(" OFFSET ?")
			args = append(args, q.Offset)
		}
	case q.Offset > 0:
		b.WriteString(" LIMIT " + maxLimit + " OFFSET ?")
		args = append(args, q.Offset)
	}
	return b.String(), args, nil
}

func buildCount(t *backend.Table, q backend.Query) (string, []any, error) {
	where, args, err := buildWhere(t, q.Filters)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", quote(t.Name), where), args, nil
}

// buildInsert writes the union of the rows' columns, in table order.
// A row missing one of them gets NULL.
func buildInsert(t *backend.Table, rows []backend.Row) (string, []any, error) {
	var cols []string
	for _, name := range t.ColumnNames() {
		for _, r := range rows {
			if _, ok := r[name]; ok {
				cols = append(cols, name)
				break
			}
		}
	}

	tuple := "(" + placeholders(len(cols)) + ")"
	tuples := make([]string, len(rows))
	args := make([]any, 0, len(rows)*len(cols))
	for i, r := range rows {
		tuples[i] = tuple
		for _, c := range cols {
			v, err := encode(t, c, r[c])
			if err != nil {
				return "", nil, err
			}
			args = append(args, v)
		}
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		quote(t.Name), columnList(cols), strings.Join(tuples, ", "))
	return query, args, nil
}

func buildUpdate(t *backend.Table, q backend.Query) (string, []any, error) {
	if len(q.Values) == 0 {
		return "", nil, fmt.Errorf("update %s: %w: no values", t.Name, backend.ErrInvalidValue)
	}
	var sets []string
	var args []any
	for _, name := range t.ColumnNames() {
		v, ok := q.Values[name]
		if !ok {
			continue
		}
		ev, err := encode(t, name, v)
		if err != nil {
			return "", nil, err
		}
		sets = append(sets, quote(name)+" = ?")
		args = append(args, ev)
	}
	where, wargs, err := buildWhere(t, q.Filters)
	if err != nil {
		return "", nil, err
	}
	query := fmt.Sprintf("UPDATE %s SET %s%s", quote(t.Name), strings.Join(sets, ", "), where)
	return query, append(args, wargs...), nil
}

func buildDelete(t *backend.Table, q backend.Query) (string, []any, error) {
	where, args, err := buildWhere(t, q.Filters)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("DELETE FROM %s%s", quote(t.Name), where), args, nil
}

// encode converts a value into something the driver can bind.
func encode(t *backend.Table, column string, v any) (any, error) {
	nv, err := t.NormalizeValue(column, v)
	if err != nil {
		return nil, err
	}
	switch x := nv.(type) {
	case nil:
		return nil, nil
	case []string:
		b, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case decimal.Decimal:
		return x.String(), nil
	case time.Time:
		return x.UTC(), nil
	}
	return nv, nil
}
