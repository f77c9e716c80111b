// Package memory is an in-process backend used in development mode and in
// tests. It honors the same schema and row normalization as the real
// adapters.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/01moynul/storefront-golang/internal/backend"
	"github.com/shopspring/decimal"
)

type Store struct {
	mu     sync.RWMutex
	schema *backend.Schema
	tables map[string][]backend.Row
	now    func() time.Time
}

// New returns an empty store for schema.
func New(schema *backend.Schema) *Store {
	return &Store{
		schema: schema,
		tables: make(map[string][]backend.Row),
		now:    time.Now,
	}
}

// Seed inserts rows directly, bypassing nothing but the context.
func (s *Store) Seed(table string, rows ...backend.Row) error {
	_, err := s.Execute(context.Background(), backend.Query{Table: table, Op: backend.OpInsert, Rows: rows})
	return err
}

func (s *Store) Execute(ctx context.Context, q backend.Query) (backend.Result, error) {
	if err := ctx.Err(); err != nil {
		return backend.Result{}, err
	}
	t, err := s.schema.Validate(q)
	if err != nil {
		return backend.Result{}, err
	}
	filters, err := normalizeFilters(t, q.Filters)
	if err != nil {
		return backend.Result{}, err
	}

	switch q.Op {
	case backend.OpSelect:
		s.mu.RLock()
		defer s.mu.RUnlock()
		return backend.Result{Rows: s.selectRows(t, q, filters)}, nil

	case backend.OpCount:
		s.mu.RLock()
		defer s.mu.RUnlock()
		n := 0
		for _, r := range s.tables[t.Name] {
			if matches(r, filters) {
				n++
			}
		}
		return backend.Result{Count: n}, nil

	case backend.OpInsert:
		return s.insert(t, q.Rows)

	case backend.OpUpdate:
		values, err := t.Normalize(q.Values)
		if err != nil {
			return backend.Result{}, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		n := 0
		for _, r := range s.tables[t.Name] {
			if !matches(r, filters) {
				continue
			}
			for k, v := range values {
				r[k] = v
			}
			n++
		}
		return backend.Result{Count: n}, nil

	case backend.OpDelete:
		s.mu.Lock()
		defer s.mu.Unlock()
		rows := s.tables[t.Name]
		kept := rows[:0]
		n := 0
		for _, r := range rows {
			if matches(r, filters) {
				n++
				continue
			}
			kept = append(kept, r)
		}
		s.tables[t.Name] = kept
		return backend.Result{Count: n}, nil
	}
	return backend.Result{}, backend.ErrUnsupported
}

func (s *Store) insert(t *backend.Table, rows []backend.Row) (backend.Result, error) {
	now := s.now()
	prepared := make([]backend.Row, 0, len(rows))
	for _, r := range rows {
		nr, err := t.Normalize(r)
		if err != nil {
			return backend.Result{}, err
		}
		prepared = append(prepared, t.Prepare(nr, now))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	pk := t.PrimaryKey()
	seen := make(map[any]bool, len(s.tables[t.Name])+len(prepared))
	for _, r := range s.tables[t.Name] {
		seen[r[pk]] = true
	}
	for _, r := range prepared {
		if seen[r[pk]] {
			return backend.Result{}, &backend.Error{
				Status:  409,
				Code:    "23505",
				Message: "duplicate key value violates unique constraint",
				Details: t.Name + "." + pk,
			}
		}
		seen[r[pk]] = true
	}

	out := make([]backend.Row, 0, len(prepared))
	for _, r := range prepared {
		s.tables[t.Name] = append(s.tables[t.Name], r)
		out = append(out, r.Clone())
	}
	return backend.Result{Rows: out}, nil
}

func (s *Store) selectRows(t *backend.Table, q backend.Query, filters []backend.Filter) []backend.Row {
	var rows []backend.Row
	for _, r := range s.tables[t.Name] {
		if matches(r, filters) {
			rows = append(rows, r)
		}
	}

	if q.OrderBy != "" {
		col := q.OrderBy
		sort.SliceStable(rows, func(i, j int) bool {
			c := compare(rows[i][col], rows[j][col])
			if q.Ascending {
				return c < 0
			}
			return c > 0
		})
	}

	if q.Offset > 0 {
		if q.Offset >= len(rows) {
			rows = nil
		} else {
			rows = rows[q.Offset:]
		}
	}
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	out := make([]backend.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, project(r, q.Columns))
	}
	return out
}

func project(r backend.Row, columns []string) backend.Row {
	if len(columns) == 0 {
		return r.Clone()
	}
	out := make(backend.Row, len(columns))
	for _, c := range columns {
		if c == "*" {
			return r.Clone()
		}
		if v, ok := r[c]; ok {
			out[c] = v
		}
	}
	return out.Clone()
}

func normalizeFilters(t *backend.Table, filters []backend.Filter) ([]backend.Filter, error) {
	out := make([]backend.Filter, len(filters))
	for i, f := range filters {
		v, err := t.NormalizeValue(f.Column, f.Value)
		if err != nil {
			return nil, err
		}
		out[i] = backend.Filter{Column: f.Column, Value: v}
	}
	return out, nil
}

func matches(r backend.Row, filters []backend.Filter) bool {
	for _, f := range filters {
		if compare(r[f.Column], f.Value) != 0 {
			return false
		}
	}
	return true
}

// compare orders normalized values of the same kind. nil sorts first.
func compare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	switch x := a.(type) {
	case string:
		y, _ := b.(string)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case int64:
		y, _ := b.(int64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case bool:
		y, _ := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case decimal.Decimal:
		y, _ := b.(decimal.Decimal)
		return x.Cmp(y)
	case time.Time:
		y, _ := b.(time.Time)
		return x.Compare(y)
	}
	return 0
}
