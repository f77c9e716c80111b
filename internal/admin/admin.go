// Package admin is the dashboard read path and the admin write paths.
package admin

import (
	"context"

	"github.com/01moynul/storefront-golang/internal/models"
)

// Store is what the admin workflow reads and writes.
type Store interface {
	Stats(ctx context.Context) (models.Stats, error)
	AllOrders(ctx context.Context) ([]models.Order, error)
	AllProducts(ctx context.Context) ([]models.Product, error)
	CreateProduct(ctx context.Context, in models.ProductInput) (models.Product, error)
	UpdateProduct(ctx context.Context, id string, up models.ProductUpdate) (models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error)
}

// OrderRow is an order as the dashboard lists it.
type OrderRow struct {
	models.Order
	StatusColor string `json:"statusColor"`
}

// Dashboard is everything the admin landing view shows.
type Dashboard struct {
	Stats    models.Stats     `json:"stats"`
	Orders   []OrderRow       `json:"orders"`
	Products []models.Product `json:"products"`
}

type Workflow struct {
	store Store
}

func New(s Store) *Workflow {
	return &Workflow{store: s}
}

// Dashboard loads stats and both listings. Each step is awaited in
// turn and the first failure is returned.
func (w *Workflow) Dashboard(ctx context.Context) (Dashboard, error) {
	stats, err := w.store.Stats(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	orders, err := w.Orders(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	products, err := w.store.AllProducts(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{Stats: stats, Orders: orders, Products: products}, nil
}

func (w *Workflow) Stats(ctx context.Context) (models.Stats, error) {
	return w.store.Stats(ctx)
}

func (w *Workflow) Orders(ctx context.Context) ([]OrderRow, error) {
	orders, err := w.store.AllOrders(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]OrderRow, len(orders))
	for i, o := range orders {
		rows[i] = OrderRow{Order: o, StatusColor: o.Status.Color()}
	}
	return rows, nil
}

func (w *Workflow) Products(ctx context.Context) ([]models.Product, error) {
	return w.store.AllProducts(ctx)
}

func (w *Workflow) CreateProduct(ctx context.Context, in models.ProductInput) (models.Product, error) {
	return w.store.CreateProduct(ctx, in)
}

func (w *Workflow) UpdateProduct(ctx context.Context, id string, up models.ProductUpdate) (models.Product, error) {
	return w.store.UpdateProduct(ctx, id, up)
}

func (w *Workflow) DeleteProduct(ctx context.Context, id string) error {
	return w.store.DeleteProduct(ctx, id)
}

// SetOrderStatus moves an order along. There is no version check: the
// last writer wins.
func (w *Workflow) SetOrderStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error) {
	return w.store.UpdateOrderStatus(ctx, id, status)
}
