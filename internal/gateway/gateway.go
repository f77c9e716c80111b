// Package gateway translates storefront intents into backend queries.
// Every call is a single request/response pair: nothing is retried or
// cached, and backend errors reach the caller unchanged.
package gateway

import (
	"errors"
	"log/slog"
	"time"

	"github.com/01moynul/storefront-golang/internal/backend"
)

var (
	// ErrNoOrderID means the backend accepted an order but the response
	// carried no identity for it.
	ErrNoOrderID = errors.New("order created but no id was returned")

	ErrInvalidStatus = errors.New("invalid order status")
	ErrInvalidPrice  = errors.New("price must not be negative")
	ErrInvalidStock  = errors.New("stock must not be negative")
	ErrNameRequired  = errors.New("product name is required")
)

type Gateway struct {
	db   backend.Executor
	auth backend.Auth
	now  func() time.Time
	log  *slog.Logger
}

func New(client backend.Client) *Gateway {
	return &Gateway{db: client.DB, auth: client.Auth, now: time.Now, log: slog.Default()}
}

func (g *Gateway) from(table string) *backend.Builder {
	return backend.From(g.db, table)
}
