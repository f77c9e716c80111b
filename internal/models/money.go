package models

import "github.com/shopspring/decimal"

func init() {
	// Prices travel as JSON numbers: the persisted cart format and the
	// backend rows both store them that way.
	decimal.MarshalJSONWithoutQuotes = true
}

// LineTotal returns price * quantity.
func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}
