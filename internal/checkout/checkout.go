// Package checkout turns a cart into a placed order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/01moynul/storefront-golang/internal/cart"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/shopspring/decimal"
)

const (
	LoginPath        = "/auth/login"
	ConfirmationPath = "/order-confirmation/"
)

// ErrAuthRequired is returned when nobody is signed in. Nothing has
// been written when it is returned.
var ErrAuthRequired = errors.New("sign in to place an order")

// ErrEmptyCart is a validation failure: there is nothing to order.
var ErrEmptyCart = errors.New("cart is empty")

// ValidationError lists the shipping fields that were left blank.
type ValidationError struct {
	Missing []string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "please fill in all required fields: " + strings.Join(e.Missing, ", ")
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// State is where a checkout attempt is.
type State string

const (
	StateIdle          State = "idle"
	StateValidating    State = "validating"
	StateCreatingOrder State = "creating_order"
	StateCreatingItems State = "creating_items"
	StateSuccess       State = "success"
	StateFailed        State = "failed"
)

// ShippingForm is what the customer fills in. Every field is required.
type ShippingForm struct {
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	CustomerPhone string `json:"customerPhone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	ZipCode       string `json:"zipCode"`
}

func (f ShippingForm) missing() []string {
	var out []string
	for _, field := range []struct{ name, value string }{
		{"customerName", f.CustomerName},
		{"customerEmail", f.CustomerEmail},
		{"customerPhone", f.CustomerPhone},
		{"address", f.Address},
		{"city", f.City},
		{"zipCode", f.ZipCode},
	} {
		if strings.TrimSpace(field.value) == "" {
			out = append(out, field.name)
		}
	}
	return out
}

// OrderWriter is the backend side checkout needs.
type OrderWriter interface {
	CreateOrder(ctx context.Context, in models.NewOrder) (models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) ([]models.OrderItem, error)
	QueuePendingItems(ctx context.Context, orderID string, items []models.OrderItem, cause error) error
}

// Cart is the cart side checkout needs. Subtract removes the ordered
// lines only, so anything added while the order was placed stays.
type Cart interface {
	Items() []models.CartItem
	Subtract(ctx context.Context, lines []models.CartItem) error
}

// Result describes one checkout attempt. Trail lists every state the
// attempt went through, starting at idle.
type Result struct {
	State    State           `json:"state"`
	Trail    []State         `json:"trail"`
	Order    *models.Order   `json:"order,omitempty"`
	Total    decimal.Decimal `json:"total"`
	Redirect string          `json:"redirect,omitempty"`

	// ItemsQueued is set when the order items could not be written and
	// were handed to the reconciliation backlog instead.
	ItemsQueued bool `json:"-"`
}

func (r *Result) enter(s State) {
	r.State = s
	r.Trail = append(r.Trail, s)
}

type Workflow struct {
	orders OrderWriter
	log    *slog.Logger
}

func New(orders OrderWriter, log *slog.Logger) *Workflow {
	if log == nil {
		log = slog.Default()
	}
	return &Workflow{orders: orders, log: log}
}

// Submit places an order for userID from the cart's items. An empty
// userID means nobody is signed in.
//
// A failure to write the order items does not fail the attempt: the
// order already exists, so the items are queued for the reconciler and
// the customer still sees success.
func (w *Workflow) Submit(ctx context.Context, userID string, form ShippingForm, c Cart) (Result, error) {
	res := Result{}
	res.enter(StateIdle)

	// 1. --- Require A Signed In User ---
	if userID == "" {
		res.Redirect = LoginPath
		return res, ErrAuthRequired
	}

	// 2. --- Validate ---
	res.enter(StateValidating)
	if missing := form.missing(); len(missing) > 0 {
		res.enter(StateFailed)
		return res, &ValidationError{Missing: missing}
	}
	items := c.Items()
	if len(items) == 0 {
		res.enter(StateFailed)
		return res, &ValidationError{Err: ErrEmptyCart}
	}

	// 3. --- Total ---
	res.Total = cart.Total(items)

	// 4. --- Create Order ---
	res.enter(StateCreatingOrder)
	order, err := w.orders.CreateOrder(ctx, models.NewOrder{
		UserID:        userID,
		CustomerName:  form.CustomerName,
		CustomerEmail: form.CustomerEmail,
		CustomerPhone: form.CustomerPhone,
		Address:       form.Address,
		City:          form.City,
		ZipCode:       form.ZipCode,
		TotalAmount:   res.Total,
		Status:        models.OrderStatusPending,
		PaymentMethod: models.PaymentCashOnDelivery,
	})
	if err != nil {
		w.log.Error("order creation failed", "user_id", userID, "error", err)
		res.enter(StateFailed)
		return res, fmt.Errorf("create order: %w", err)
	}
	res.Order = &order

	// 5. --- Create Order Items ---
	res.enter(StateCreatingItems)
	lines := make([]models.OrderItem, len(items))
	for i, it := range items {
		lines[i] = models.OrderItem{
			OrderID:   order.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Size:      it.Size,
			Price:     it.Price,
		}
	}
	if _, err := w.orders.CreateOrderItems(ctx, lines); err != nil {
		w.log.Warn("order items creation failed, queued for retry", "order_id", order.ID, "error", err)
		if qerr := w.orders.QueuePendingItems(ctx, order.ID, lines, err); qerr != nil {
			w.log.Error("could not queue order items", "order_id", order.ID, "error", qerr)
		} else {
			res.ItemsQueued = true
		}
	}

	// 6. --- Clear Ordered Lines ---
	if err := c.Subtract(ctx, items); err != nil {
		w.log.Error("cart clear failed after checkout", "order_id", order.ID, "error", err)
	}

	// 7. --- Done ---
	res.enter(StateSuccess)
	res.Redirect = ConfirmationPath + order.ID
	w.log.Info("order placed", "order_id", order.ID, "user_id", userID, "total", res.Total.String(), "items", len(lines))
	return res, nil
}
