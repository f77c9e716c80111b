package checkout

import (
	"context"
	"log/slog"
	"time"

	"github.com/01moynul/storefront-golang/internal/gateway"
	"github.com/01moynul/storefront-golang/internal/models"
)

// DefaultMaxAttempts is how often a queued batch is retried before it
// is left for a human.
const DefaultMaxAttempts = 5

// Backlog is the reconciliation queue.
type Backlog interface {
	ListPendingItems(ctx context.Context) ([]gateway.PendingItems, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) ([]models.OrderItem, error)
	RecordPendingFailure(ctx context.Context, id string, attempts int, cause error) error
	DeletePendingItems(ctx context.Context, id string) error
}

// Reconciler retries order items that could not be written at checkout.
type Reconciler struct {
	backlog     Backlog
	maxAttempts int
	log         *slog.Logger
}

func NewReconciler(b Backlog, maxAttempts int, log *slog.Logger) *Reconciler {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{backlog: b, maxAttempts: maxAttempts, log: log}
}

// RunReport counts what one pass did.
type RunReport struct {
	Written int
	Failed  int
	Skipped int
}

// RunOnce makes one pass over the backlog.
func (r *Reconciler) RunOnce(ctx context.Context) (RunReport, error) {
	var rep RunReport
	pending, err := r.backlog.ListPendingItems(ctx)
	if err != nil {
		return rep, err
	}

	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if p.Attempts >= r.maxAttempts {
			rep.Skipped++
			continue
		}

		if _, err := r.backlog.CreateOrderItems(ctx, p.Items); err != nil {
			rep.Failed++
			r.log.Warn("order items retry failed", "order_id", p.OrderID, "attempt", p.Attempts+1, "error", err)
			if rerr := r.backlog.RecordPendingFailure(ctx, p.ID, p.Attempts+1, err); rerr != nil {
				return rep, rerr
			}
			continue
		}

		if err := r.backlog.DeletePendingItems(ctx, p.ID); err != nil {
			return rep, err
		}
		rep.Written++
		r.log.Info("order items reconciled", "order_id", p.OrderID, "items", len(p.Items))
	}
	return rep, nil
}

// Start runs RunOnce every interval until ctx is done.
func (r *Reconciler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rep, err := r.RunOnce(ctx)
			if err != nil {
				r.log.Error("reconcile pass failed", "error", err)
				continue
			}
			if rep.Written+rep.Failed > 0 {
				r.log.Info("reconcile pass", "written", rep.Written, "failed", rep.Failed, "skipped", rep.Skipped)
			}
		}
	}
}
