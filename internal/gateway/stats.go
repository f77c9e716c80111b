package gateway

import (
	"context"

	"github.com/01moynul/storefront-golang/internal/backend"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Stats gathers the dashboard KPIs. The three counts run concurrently
// and any failure fails the whole call. Revenue only counts delivered
// orders.
func (g *Gateway) Stats(ctx context.Context) (models.Stats, error) {
	var stats models.Stats

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		n, err := g.from(backend.TableOrders).Count(egCtx)
		stats.TotalOrders = n
		return err
	})
	eg.Go(func() error {
		n, err := g.from(backend.TableProducts).Count(egCtx)
		stats.TotalProducts = n
		return err
	})
	eg.Go(func() error {
		n, err := g.from(backend.TableUserProfiles).Count(egCtx)
		stats.TotalCustomers = n
		return err
	})
	if err := eg.Wait(); err != nil {
		return models.Stats{}, err
	}

	rows, err := g.from(backend.TableOrders).
		Select("total_amount").
		Eq("status", string(models.OrderStatusDelivered)).
		Rows(ctx)
	if err != nil {
		return models.Stats{}, err
	}
	revenue := decimal.Zero
	for _, r := range rows {
		revenue = revenue.Add(r.Decimal("total_amount"))
	}
	stats.TotalRevenue = revenue
	return stats, nil
}
