package gateway

import (
	"context"

	"github.com/01moynul/storefront-golang/internal/backend"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/gosimple/slug"
)

// Products lists active products, newest first. limit <= 0 means no
// limit.
func (g *Gateway) Products(ctx context.Context, limit, offset int) ([]models.Product, error) {
	b := g.from(backend.TableProducts).Eq("is_active", true).Order("created_at", false)
	if limit > 0 {
		b.Range(offset, offset+limit-1)
	} else {
		b.Offset(offset)
	}
	rows, err := b.Rows(ctx)
	if err != nil {
		return nil, err
	}
	return productsFromRows(rows), nil
}

func (g *Gateway) Product(ctx context.Context, id string) (models.Product, error) {
	row, err := g.from(backend.TableProducts).Eq("id", id).Single(ctx)
	if err != nil {
		return models.Product{}, err
	}
	return productFromRow(row), nil
}

// AllProducts lists every product, active or not, newest first.
func (g *Gateway) AllProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := g.from(backend.TableProducts).Order("created_at", false).Rows(ctx)
	if err != nil {
		return nil, err
	}
	return productsFromRows(rows), nil
}

func (g *Gateway) CreateProduct(ctx context.Context, in models.ProductInput) (models.Product, error) {
	// 1. --- Validate ---
	if in.Name == "" {
		return models.Product{}, ErrNameRequired
	}
	if in.Price.IsNegative() {
		return models.Product{}, ErrInvalidPrice
	}
	if in.Stock < 0 {
		return models.Product{}, ErrInvalidStock
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	// 2. --- Insert ---
	rows, err := g.from(backend.TableProducts).Insert(ctx, backend.Row{
		"name":        in.Name,
		"slug":        slug.Make(in.Name),
		"description": nullable(in.Description),
		"price":       in.Price,
		"image_url":   nullable(in.ImageURL),
		"category":    nullable(in.Category),
		"sizes":       nonNil(in.Sizes),
		"colors":      nonNil(in.Colors),
		"stock":       in.Stock,
		"is_active":   active,
	})
	if err != nil {
		return models.Product{}, err
	}
	if len(rows) == 0 {
		return models.Product{}, backend.ErrNotFound
	}
	return productFromRow(rows[0]), nil
}

// UpdateProduct writes only the fields set on up and returns the
// stored product.
func (g *Gateway) UpdateProduct(ctx context.Context, id string, up models.ProductUpdate) (models.Product, error) {
	values := backend.Row{}
	if up.Name != nil {
		if *up.Name == "" {
			return models.Product{}, ErrNameRequired
		}
		values["name"] = *up.Name
		values["slug"] = slug.Make(*up.Name)
	}
	if up.Description != nil {
		values["description"] = *up.Description
	}
	if up.Price != nil {
		if up.Price.IsNegative() {
			return models.Product{}, ErrInvalidPrice
		}
		values["price"] = *up.Price
	}
	if up.ImageURL != nil {
		values["image_url"] = *up.ImageURL
	}
	if up.Category != nil {
		values["category"] = *up.Category
	}
	if up.Sizes != nil {
		values["sizes"] = up.Sizes
	}
	if up.Colors != nil {
		values["colors"] = up.Colors
	}
	if up.Stock != nil {
		if *up.Stock < 0 {
			return models.Product{}, ErrInvalidStock
		}
		values["stock"] = *up.Stock
	}
	if up.IsActive != nil {
		values["is_active"] = *up.IsActive
	}
	values["updated_at"] = g.now().UTC()

	n, err := g.from(backend.TableProducts).Eq("id", id).Update(ctx, values)
	if err != nil {
		return models.Product{}, err
	}
	if n == 0 {
		return models.Product{}, backend.ErrNotFound
	}
	return g.Product(ctx, id)
}

func (g *Gateway) DeleteProduct(ctx context.Context, id string) error {
	n, err := g.from(backend.TableProducts).Eq("id", id).Delete(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return backend.ErrNotFound
	}
	return nil
}
