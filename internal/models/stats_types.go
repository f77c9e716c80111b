package models

import "github.com/shopspring/decimal"

// Stats are the admin dashboard KPIs.
// TotalRevenue only counts delivered orders.
type Stats struct {
	TotalOrders    int             `json:"totalOrders"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
	TotalProducts  int             `json:"totalProducts"`
	TotalCustomers int             `json:"totalCustomers"`
}
