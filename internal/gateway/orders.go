package gateway

import (
	"context"

	"github.com/01moynul/storefront-golang/internal/backend"
	"github.com/01moynul/storefront-golang/internal/models"
)

// CreateOrder inserts one order and returns it. Backends answer with a
// single record or a list of them; whichever it is, the first record
// carrying an id wins and no id at all is ErrNoOrderID.
func (g *Gateway) CreateOrder(ctx context.Context, in models.NewOrder) (models.Order, error) {
	status := in.Status
	if status == "" {
		status = models.OrderStatusPending
	}
	if !status.Valid() {
		return models.Order{}, ErrInvalidStatus
	}
	payment := in.PaymentMethod
	if payment == "" {
		payment = models.PaymentCashOnDelivery
	}

	rows, err := g.from(backend.TableOrders).Insert(ctx, backend.Row{
		"user_id":        in.UserID,
		"customer_name":  in.CustomerName,
		"customer_email": in.CustomerEmail,
		"customer_phone": in.CustomerPhone,
		"address":        in.Address,
		"city":           in.City,
		"zip_code":       in.ZipCode,
		"total_amount":   in.TotalAmount,
		"status":         string(status),
		"payment_method": payment,
	})
	if err != nil {
		return models.Order{}, err
	}
	for _, r := range rows {
		if r.String("id") != "" {
			return orderFromRow(r), nil
		}
	}
	return models.Order{}, ErrNoOrderID
}

// OrdersByUser lists a user's orders, newest first.
func (g *Gateway) OrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	rows, err := g.from(backend.TableOrders).Eq("user_id", userID).Order("created_at", false).Rows(ctx)
	if err != nil {
		return nil, err
	}
	return ordersFromRows(rows), nil
}

func (g *Gateway) Order(ctx context.Context, id string) (models.Order, error) {
	row, err := g.from(backend.TableOrders).Eq("id", id).Single(ctx)
	if err != nil {
		return models.Order{}, err
	}
	return orderFromRow(row), nil
}

func (g *Gateway) AllOrders(ctx context.Context) ([]models.Order, error) {
	rows, err := g.from(backend.TableOrders).Order("created_at", false).Rows(ctx)
	if err != nil {
		return nil, err
	}
	return ordersFromRows(rows), nil
}

// UpdateOrderStatus moves an order to status and bumps updated_at.
func (g *Gateway) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error) {
	if !status.Valid() {
		return models.Order{}, ErrInvalidStatus
	}
	n, err := g.from(backend.TableOrders).Eq("id", id).Update(ctx, backend.Row{
		"status":     string(status),
		"updated_at": g.now().UTC(),
	})
	if err != nil {
		return models.Order{}, err
	}
	if n == 0 {
		return models.Order{}, backend.ErrNotFound
	}
	return g.Order(ctx, id)
}

// CreateOrderItems writes all items in one batch.
func (g *Gateway) CreateOrderItems(ctx context.Context, items []models.OrderItem) ([]models.OrderItem, error) {
	if len(items) == 0 {
		return nil, nil
	}
	rows := make([]backend.Row, len(items))
	for i, it := range items {
		rows[i] = backend.Row{
			"order_id":   it.OrderID,
			"product_id": it.ProductID,
			"quantity":   it.Quantity,
			"size":       nullable(it.Size),
			"color":      nullable(it.Color),
			"price":      it.Price,
		}
	}
	stored, err := g.from(backend.TableOrderItems).Insert(ctx, rows...)
	if err != nil {
		return nil, err
	}
	out := make([]models.OrderItem, len(stored))
	for i, r := range stored {
		out[i] = orderItemFromRow(r)
	}
	return out, nil
}

func (g *Gateway) OrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	rows, err := g.from(backend.TableOrderItems).Eq("order_id", orderID).Order("created_at", true).Rows(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.OrderItem, len(rows))
	for i, r := range rows {
		out[i] = orderItemFromRow(r)
	}
	return out, nil
}
