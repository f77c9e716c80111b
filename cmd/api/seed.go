package main

import (
	"context"
	"log/slog"

	"github.com/01moynul/storefront-golang/internal/backend"
	"github.com/01moynul/storefront-golang/internal/gateway"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/shopspring/decimal"
)

const (
	devAdminEmail    = "admin@example.com"
	devAdminPassword = "admin123"
)

var devProducts = []models.ProductInput{
	{
		Name:        "Classic White Tee",
		Description: "Heavyweight cotton t-shirt.",
		Price:       decimal.RequireFromString("19.99"),
		ImageURL:    "/images/white-tee.jpg",
		Category:    "t-shirts",
		Sizes:       []string{"S", "M", "L", "XL"},
		Colors:      []string{"white"},
		Stock:       50,
	},
	{
		Name:        "Denim Jacket",
		Description: "Washed denim with brass buttons.",
		Price:       decimal.RequireFromString("79.50"),
		ImageURL:    "/images/denim-jacket.jpg",
		Category:    "jackets",
		Sizes:       []string{"M", "L"},
		Colors:      []string{"blue"},
		Stock:       12,
	},
	{
		Name:        "Canvas Tote",
		Description: "One size fits everything.",
		Price:       decimal.RequireFromString("15"),
		ImageURL:    "/images/tote.jpg",
		Category:    "accessories",
		Stock:       100,
	},
}

// seedDevelopment fills an empty in-memory backend with a few products
// and an admin account so the storefront is usable right away.
func seedDevelopment(ctx context.Context, gw *gateway.Gateway, db backend.Executor, lg *slog.Logger) error {
	for _, p := range devProducts {
		if _, err := gw.CreateProduct(ctx, p); err != nil {
			return err
		}
	}

	session, err := gw.SignUp(ctx, devAdminEmail, devAdminPassword, "Store Admin")
	if err != nil {
		return err
	}
	_, err = backend.From(db, backend.TableUserProfiles).
		Eq("id", session.User.ID).
		Update(ctx, backend.Row{"is_admin": true})
	if err != nil {
		return err
	}

	lg.Warn("seeded development data", "products", len(devProducts), "admin_email", devAdminEmail, "admin_password", devAdminPassword)
	return nil
}
