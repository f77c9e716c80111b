// Package backend is the query-builder port the storefront talks to.
//
// A Query names a table and an operation; an Executor runs it against
// whatever store sits behind it (the hosted REST backend, MySQL, or the
// in-memory tables used in development). Rows come back normalized
// through the Schema, so callers never see driver-specific types.
package backend

import "context"

// Op is the operation a Query performs.
type Op int

const (
	OpSelect Op = iota
	OpInsert
	OpUpdate
	OpDelete
	OpCount
)

func (o Op) String() string {
	switch o {
	case OpSelect:
		return "select"
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	case OpCount:
		return "count"
	}
	return "unknown"
}

// Filter is an equality condition. Filters on a query are AND-ed.
type Filter struct {
	Column string
	Value  any
}

// Query is a table-scoped request.
type Query struct {
	Table   string
	Op      Op
	Columns []string // select list, empty means every column
	Filters []Filter

	OrderBy   string
	Ascending bool

	// Offset and Limit come from Range; Limit 0 means no limit.
	Offset int
	Limit  int

	// Single asks for exactly one row.
	Single bool

	Rows   []Row // insert payload
	Values Row   // update payload
}

// Result is what an Executor returns. Count holds the number of
// matching rows for OpCount and the number of affected rows for
// OpUpdate and OpDelete.
type Result struct {
	Rows  []Row
	Count int
}

// Executor runs queries against a store.
type Executor interface {
	Execute(ctx context.Context, q Query) (Result, error)
}

// Client bundles the data and auth sides of a backend.
type Client struct {
	DB   Executor
	Auth Auth
}
