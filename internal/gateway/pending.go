package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/01moynul/storefront-golang/internal/backend"
	"github.com/01moynul/storefront-golang/internal/models"
)

// PendingItems is an order whose items could not be written at
// checkout and are waiting for another attempt.
type PendingItems struct {
	ID        string
	OrderID   string
	Items     []models.OrderItem
	Attempts  int
	LastError string
}

// QueuePendingItems records items for a later retry.
func (g *Gateway) QueuePendingItems(ctx context.Context, orderID string, items []models.OrderItem, cause error) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode pending items: %w", err)
	}
	row := backend.Row{
		"order_id": orderID,
		"items":    string(payload),
		"attempts": 0,
	}
	if cause != nil {
		row["last_error"] = cause.Error()
	}
	_, err = g.from(backend.TablePendingOrderItems).Insert(ctx, row)
	return err
}

// ListPendingItems returns the backlog, oldest first.
func (g *Gateway) ListPendingItems(ctx context.Context) ([]PendingItems, error) {
	rows, err := g.from(backend.TablePendingOrderItems).Order("created_at", true).Rows(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PendingItems, 0, len(rows))
	for _, r := range rows {
		var items []models.OrderItem
		if err := json.Unmarshal([]byte(r.String("items")), &items); err != nil {
			return nil, fmt.Errorf("decode pending items %s: %w", r.String("id"), err)
		}
		out = append(out, PendingItems{
			ID:        r.String("id"),
			OrderID:   r.String("order_id"),
			Items:     items,
			Attempts:  r.Int("attempts"),
			LastError: r.String("last_error"),
		})
	}
	return out, nil
}

// RecordPendingFailure bumps the attempt counter after a failed retry.
func (g *Gateway) RecordPendingFailure(ctx context.Context, id string, attempts int, cause error) error {
	_, err := g.from(backend.TablePendingOrderItems).Eq("id", id).Update(ctx, backend.Row{
		"attempts":   attempts,
		"last_error": cause.Error(),
		"updated_at": g.now().UTC(),
	})
	return err
}

func (g *Gateway) DeletePendingItems(ctx context.Context, id string) error {
	_, err := g.from(backend.TablePendingOrderItems).Eq("id", id).Delete(ctx)
	return err
}
