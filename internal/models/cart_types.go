package models

import "github.com/shopspring/decimal"

// CartItem is one line of a visitor's cart.
// Two items are the same line when ProductID and Size are both equal.
type CartItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size,omitempty"`
	Image     string          `json:"image"`
}

// SameLine reports whether other shares this item's uniqueness key.
func (i CartItem) SameLine(other CartItem) bool {
	return i.ProductID == other.ProductID && i.Size == other.Size
}
