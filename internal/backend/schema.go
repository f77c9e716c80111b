package backend

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind is the value type of a column.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
	KindDecimal
	KindTime
	KindStrings // list of strings, stored as JSON
	KindJSON    // arbitrary JSON document, kept as its text
)

// Column describes one column of a table.
type Column struct {
	Name     string
	Kind     Kind
	Nullable bool
}

// Table describes one table. The first column is the primary key.
type Table struct {
	Name    string
	Columns []Column

	index map[string]int
}

// Column looks up a column by name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.Columns[i], true
}

// ColumnNames returns the column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// PrimaryKey is the name of the first column.
func (t *Table) PrimaryKey() string {
	return t.Columns[0].Name
}

// Schema is the set of tables a backend exposes.
type Schema struct {
	tables map[string]*Table
}

// NewSchema builds a Schema from table definitions.
func NewSchema(tables ...Table) *Schema {
	s := &Schema{tables: make(map[string]*Table, len(tables))}
	for i := range tables {
		t := tables[i]
		t.index = make(map[string]int, len(t.Columns))
		for j, c := range t.Columns {
			t.index[c.Name] = j
		}
		s.tables[t.Name] = &t
	}
	return s
}

// Table looks up a table by name.
func (s *Schema) Table(name string) (*Table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return t, nil
}

// Tables returns every table, in no particular order.
func (s *Schema) Tables() []*Table {
	out := make([]*Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t)
	}
	return out
}

// Validate checks that every table and column named by q exists.
// Adapters that build query text from names depend on this.
func (s *Schema) Validate(q Query) (*Table, error) {
	t, err := s.Table(q.Table)
	if err != nil {
		return nil, err
	}
	check := func(name string) error {
		if name == "*" {
			return nil
		}
		if _, ok := t.Column(name); !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, name)
		}
		return nil
	}
	for _, c := range q.Columns {
		if err := check(c); err != nil {
			return nil, err
		}
	}
	for _, f := range q.Filters {
		if err := check(f.Column); err != nil {
			return nil, err
		}
	}
	if q.OrderBy != "" {
		if err := check(q.OrderBy); err != nil {
			return nil, err
		}
	}
	for _, r := range q.Rows {
		for c := range r {
			if err := check(c); err != nil {
				return nil, err
			}
		}
	}
	for c := range q.Values {
		if err := check(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Normalize converts every known column of row to its canonical Go
// type. Unknown columns are dropped.
func (t *Table) Normalize(row Row) (Row, error) {
	out := make(Row, len(row))
	for name, v := range row {
		col, ok := t.Column(name)
		if !ok {
			continue
		}
		nv, err := convert(col.Kind, v)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name, name, err)
		}
		out[name] = nv
	}
	return out, nil
}

// NormalizeValue converts a single filter or update value.
func (t *Table) NormalizeValue(column string, v any) (any, error) {
	col, ok := t.Column(column)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, column)
	}
	nv, err := convert(col.Kind, v)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", t.Name, column, err)
	}
	return nv, nil
}

// Prepare fills the defaults a store would: a uuid primary key and
// created_at. It returns a new row.
func (t *Table) Prepare(row Row, now time.Time) Row {
	out := row.Clone()
	pk := t.PrimaryKey()
	if v, ok := out[pk]; !ok || v == nil || v == "" {
		out[pk] = uuid.NewString()
	}
	if _, ok := t.Column("created_at"); ok {
		if v, ok := out["created_at"]; !ok || v == nil {
			out["created_at"] = now.UTC()
		}
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func convert(kind Kind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if n, ok := v.(json.Number); ok {
		v = n.String()
	}
	switch kind {
	case KindString:
		switch x := v.(type) {
		case string:
			return x, nil
		case int, int32, int64, float64:
			return fmt.Sprint(x), nil
		case fmt.Stringer:
			return x.String(), nil
		}
	case KindInt:
		switch x := v.(type) {
		case int:
			return int64(x), nil
		case int32:
			return int64(x), nil
		case int64:
			return x, nil
		case float64:
			if x == float64(int64(x)) {
				return int64(x), nil
			}
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
			if err == nil {
				return n, nil
			}
		}
	case KindBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int64:
			return x != 0, nil
		case int:
			return x != 0, nil
		case float64:
			return x != 0, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(x))
			if err == nil {
				return b, nil
			}
		}
	case KindDecimal:
		switch x := v.(type) {
		case decimal.Decimal:
			return x, nil
		case float64:
			return decimal.NewFromFloat(x), nil
		case int:
			return decimal.NewFromInt(int64(x)), nil
		case int64:
			return decimal.NewFromInt(x), nil
		case string:
			d, err := decimal.NewFromString(strings.TrimSpace(x))
			if err == nil {
				return d, nil
			}
		}
	case KindTime:
		switch x := v.(type) {
		case time.Time:
			return x, nil
		case *time.Time:
			if x == nil {
				return nil, nil
			}
			return *x, nil
		case string:
			for _, layout := range timeLayouts {
				if t, err := time.Parse(layout, x); err == nil {
					return t, nil
				}
			}
		}
	case KindStrings:
		switch x := v.(type) {
		case []string:
			return append([]string{}, x...), nil
		case []any:
			out := make([]string, 0, len(x))
			for _, e := range x {
				s, ok := e.(string)
				if !ok {
					return nil, fmt.Errorf("%w: list element %T", ErrInvalidValue, e)
				}
				out = append(out, s)
			}
			return out, nil
		case string:
			if strings.TrimSpace(x) == "" {
				return []string{}, nil
			}
			var out []string
			if err := json.Unmarshal([]byte(x), &out); err == nil {
				if out == nil {
					out = []string{}
				}
				return out, nil
			}
		}
	case KindJSON:
		switch x := v.(type) {
		case string:
			return x, nil
		case json.RawMessage:
			return string(x), nil
		default:
			b, err := json.Marshal(x)
			if err == nil {
				return string(b), nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %T for kind %d", ErrInvalidValue, v, kind)
}
