package usecase

import (
	"context"
	"fmt"
	"time"

	"habridge/internal/domain/models"
	drepo "habridge/internal/domain/repository"
)

// PositionReconciler keeps the server-side mirror of open positions in sync
// with the terminal's authoritative snapshots.
type PositionReconciler struct {
	store   drepo.PositionStore
	relay   drepo.Broadcaster
	metrics drepo.Metrics
}

func NewPositionReconciler(store drepo.PositionStore, relay drepo.Broadcaster, metrics drepo.Metrics) *PositionReconciler {
	return &PositionReconciler{store: store, relay: relay, metrics: metrics}
}

// Reconcile full-replaces the open set: every ticket absent from the
// snapshot ends up closed, every ticket present is refreshed and open.
// The store runs the pass in one transaction, which makes it idempotent and
// order-independent. The broadcast carries the raw snapshot as received and
// goes out only after the transaction commits.
func (r *PositionReconciler) Reconcile(ctx context.Context, snapshot []*models.Position) error {
	start := time.Now()
	for _, p := range snapshot {
		p.Status = models.PositionOpen
		if p.OpenTime == "" {
			p.OpenTime = time.Now().Format(time.RFC3339)
		}
	}
	if err := r.store.ReplaceOpenSet(ctx, snapshot); err != nil {
		r.metrics.RecordError("positions_reconcile")
		return fmt.Errorf("reconcile positions: %w", err)
	}
	r.relay.Publish(drepo.EventPositionsUpdate, "", map[string]any{"positions": snapshot})
	r.metrics.RecordLatency("positions_reconcile", time.Since(start).Seconds())
	return nil
}

// ListOpen returns the current mirror of open positions.
func (r *PositionReconciler) ListOpen(ctx context.Context) ([]*models.Position, error) {
	return r.store.ListOpen(ctx)
}

// PublishAccount relays the terminal's account figures to subscribers.
// Account state is not persisted.
func (r *PositionReconciler) PublishAccount(snapshot *models.AccountSnapshot) {
	r.relay.Publish(drepo.EventAccountUpdate, "", snapshot)
}
