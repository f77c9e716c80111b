package backend

import (
	"time"

	"github.com/shopspring/decimal"
)

// Row is one record keyed by column name. Rows returned by an Executor
// hold normalized values: string, int64, bool, decimal.Decimal,
// time.Time, []string or nil.
type Row map[string]any

func (r Row) String(col string) string {
	s, _ := r[col].(string)
	return s
}

func (r Row) Int(col string) int {
	n, _ := r[col].(int64)
	return int(n)
}

func (r Row) Bool(col string) bool {
	b, _ := r[col].(bool)
	return b
}

func (r Row) Decimal(col string) decimal.Decimal {
	d, _ := r[col].(decimal.Decimal)
	return d
}

func (r Row) Time(col string) time.Time {
	t, _ := r[col].(time.Time)
	return t
}

// TimePtr is Time for nullable columns.
func (r Row) TimePtr(col string) *time.Time {
	t, ok := r[col].(time.Time)
	if !ok {
		return nil
	}
	return &t
}

func (r Row) Strings(col string) []string {
	s, _ := r[col].([]string)
	if s == nil {
		return []string{}
	}
	return s
}

// Clone returns a shallow copy. Slice values are copied too so the
// clone can be mutated safely.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		if s, ok := v.([]string); ok {
			v = append([]string(nil), s...)
		}
		out[k] = v
	}
	return out
}
