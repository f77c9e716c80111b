package backend

import (
	"context"
	"fmt"
)

// Builder assembles a Query fluently and runs it on a terminal call.
type Builder struct {
	exec Executor
	q    Query
}

// From starts a query on table.
func From(exec Executor, table string) *Builder {
	return &Builder{exec: exec, q: Query{Table: table}}
}

func (b *Builder) Select(columns ...string) *Builder {
	b.q.Columns = append(b.q.Columns, columns...)
	return b
}

func (b *Builder) Eq(column string, value any) *Builder {
	b.q.Filters = append(b.q.Filters, Filter{Column: column, Value: value})
	return b
}

func (b *Builder) Order(column string, ascending bool) *Builder {
	b.q.OrderBy = column
	b.q.Ascending = ascending
	return b
}

// Range limits the result to rows from..to, both inclusive and zero based.
func (b *Builder) Range(from, to int) *Builder {
	if from < 0 {
		from = 0
	}
	b.q.Offset = from
	b.q.Limit = to - from + 1
	if b.q.Limit < 0 {
		b.q.Limit = 0
	}
	return b
}

// Offset skips the first n rows without limiting the rest.
func (b *Builder) Offset(n int) *Builder {
	if n > 0 {
		b.q.Offset = n
	}
	return b
}

// Query returns the query built so far.
func (b *Builder) Query() Query {
	return b.q
}

func (b *Builder) Rows(ctx context.Context) ([]Row, error) {
	b.q.Op = OpSelect
	res, err := b.exec.Execute(ctx, b.q)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// Single runs a select that must match exactly one row.
func (b *Builder) Single(ctx context.Context) (Row, error) {
	b.q.Op = OpSelect
	b.q.Single = true
	res, err := b.exec.Execute(ctx, b.q)
	if err != nil {
		return nil, err
	}
	switch len(res.Rows) {
	case 0:
		return nil, fmt.Errorf("%s: %w", b.q.Table, ErrNotFound)
	case 1:
		return res.Rows[0], nil
	default:
		return nil, fmt.Errorf("%s: %w", b.q.Table, ErrMultipleRows)
	}
}

// Count returns the number of rows matching the filters without
// fetching them.
func (b *Builder) Count(ctx context.Context) (int, error) {
	b.q.Op = OpCount
	res, err := b.exec.Execute(ctx, b.q)
	if err != nil {
		return 0, err
	}
	return res.Count, nil
}

// Insert writes rows and returns what the backend stored.
func (b *Builder) Insert(ctx context.Context, rows ...Row) ([]Row, error) {
	b.q.Op = OpInsert
	b.q.Rows = rows
	res, err := b.exec.Execute(ctx, b.q)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// Update sets values on every row matching the filters and returns the
// number of rows touched.
func (b *Builder) Update(ctx context.Context, values Row) (int, error) {
	b.q.Op = OpUpdate
	b.q.Values = values
	res, err := b.exec.Execute(ctx, b.q)
	if err != nil {
		return 0, err
	}
	return res.Count, nil
}

// Delete removes every row matching the filters.
func (b *Builder) Delete(ctx context.Context) (int, error) {
	b.q.Op = OpDelete
	res, err := b.exec.Execute(ctx, b.q)
	if err != nil {
		return 0, err
	}
	return res.Count, nil
}
