package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order. Only admins move it
// past pending.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
)

// PaymentCashOnDelivery is the only payment method the storefront offers.
const PaymentCashOnDelivery = "cash_on_delivery"

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// Color is the badge color shown next to an order.
func (s OrderStatus) Color() string {
	switch s {
	case OrderStatusPending:
		return "yellow"
	case OrderStatusProcessing:
		return "blue"
	case OrderStatusShipped:
		return "purple"
	case OrderStatusDelivered:
		return "green"
	default:
		return "gray"
	}
}

// Order is the model for the 'orders' table
type Order struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	CustomerPhone string          `json:"customer_phone"`
	Address       string          `json:"address"`
	City          string          `json:"city"`
	ZipCode       string          `json:"zip_code"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        OrderStatus     `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     *time.Time      `json:"updated_at,omitempty"`
}

// NewOrder is what checkout submits to create an order.
type NewOrder struct {
	UserID        string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Address       string
	City          string
	ZipCode       string
	TotalAmount   decimal.Decimal
	Status        OrderStatus
	PaymentMethod string
}

// OrderItem is the model for the 'order_items' table.
// Price is the unit price at the time of purchase.
type OrderItem struct {
	ID        string          `json:"id,omitempty"`
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
}
