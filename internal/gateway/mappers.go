package gateway

import (
	"github.com/01moynul/storefront-golang/internal/backend"
	"github.com/01moynul/storefront-golang/internal/models"
)

func productFromRow(r backend.Row) models.Product {
	return models.Product{
		ID:          r.String("id"),
		Name:        r.String("name"),
		Slug:        r.String("slug"),
		Description: r.String("description"),
		Price:       r.Decimal("price"),
		ImageURL:    r.String("image_url"),
		Category:    r.String("category"),
		Sizes:       r.Strings("sizes"),
		Colors:      r.Strings("colors"),
		Stock:       r.Int("stock"),
		IsActive:    r.Bool("is_active"),
		CreatedAt:   r.Time("created_at"),
		UpdatedAt:   r.TimePtr("updated_at"),
	}
}

func productsFromRows(rows []backend.Row) []models.Product {
	out := make([]models.Product, len(rows))
	for i, r := range rows {
		out[i] = productFromRow(r)
	}
	return out
}

func orderFromRow(r backend.Row) models.Order {
	return models.Order{
		ID:            r.String("id"),
		UserID:        r.String("user_id"),
		CustomerName:  r.String("customer_name"),
		CustomerEmail: r.String("customer_email"),
		CustomerPhone: r.String("customer_phone"),
		Address:       r.String("address"),
		City:          r.String("city"),
		ZipCode:       r.String("zip_code"),
		TotalAmount:   r.Decimal("total_amount"),
		Status:        models.OrderStatus(r.String("status")),
		PaymentMethod: r.String("payment_method"),
		CreatedAt:     r.Time("created_at"),
		UpdatedAt:     r.TimePtr("updated_at"),
	}
}

func ordersFromRows(rows []backend.Row) []models.Order {
	out := make([]models.Order, len(rows))
	for i, r := range rows {
		out[i] = orderFromRow(r)
	}
	return out
}

func orderItemFromRow(r backend.Row) models.OrderItem {
	return models.OrderItem{
		ID:        r.String("id"),
		OrderID:   r.String("order_id"),
		ProductID: r.String("product_id"),
		Quantity:  r.Int("quantity"),
		Size:      r.String("size"),
		Color:     r.String("color"),
		Price:     r.Decimal("price"),
		CreatedAt: r.TimePtr("created_at"),
	}
}

func profileFromRow(r backend.Row) models.UserProfile {
	return models.UserProfile{
		ID:        r.String("id"),
		Email:     r.String("email"),
		FullName:  r.String("full_name"),
		IsAdmin:   r.Bool("is_admin"),
		CreatedAt: r.Time("created_at"),
	}
}

// nullable maps the empty string to NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
