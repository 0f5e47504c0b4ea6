package usecase

import (
	"context"
	"testing"

	"habridge/internal/domain/models"
	drepo "habridge/internal/domain/repository"
)

func newTestReconciler() (*PositionReconciler, *fakePositionStore, *recordingRelay) {
	store := newFakePositionStore()
	relay := &recordingRelay{}
	return NewPositionReconciler(store, relay, nopMetrics{}), store, relay
}

func TestReconcileIdempotent(t *testing.T) {
	r, _, _ := newTestReconciler()
	ctx := context.Background()

	snapshot := []*models.Position{
		{Ticket: 1, Symbol: "EURUSD", Volume: 0.1, OpenPrice: 1.08},
		{Ticket: 2, Symbol: "GBPUSD", Volume: 0.2, OpenPrice: 1.27},
	}

	if err := r.Reconcile(ctx, snapshot); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	if err := r.Reconcile(ctx, snapshot); err != nil {
		t.Fatalf("second reconcile: %v", err)
	}

	open, err := r.ListOpen(ctx)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("open = %d, want 2 after replay", len(open))
	}
}

func TestReconcileReplaceNotMerge(t *testing.T) {
	r, store, _ := newTestReconciler()
	ctx := context.Background()

	if err := r.Reconcile(ctx, []*models.Position{
		{Ticket: 1, Symbol: "EURUSD", Volume: 0.1},
		{Ticket: 2, Symbol: "GBPUSD", Volume: 0.2},
	}); err != nil {
		t.Fatalf("seed reconcile: %v", err)
	}

	// Ticket 1 is absent from the next snapshot and must end up closed,
	// with its last known fields retained.
	if err := r.Reconcile(ctx, []*models.Position{
		{Ticket: 2, Symbol: "GBPUSD", Volume: 0.3},
	}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	open, _ := r.ListOpen(ctx)
	if len(open) != 1 || open[0].Ticket != 2 {
		t.Fatalf("open = %+v, want only ticket 2", open)
	}
	if open[0].Volume != 0.3 {
		t.Fatalf("volume = %v, want refreshed 0.3", open[0].Volume)
	}

	closed := store.get(1)
	if closed == nil || closed.Status != models.PositionClosed {
		t.Fatalf("ticket 1 = %+v, want retained as closed", closed)
	}
	if closed.Symbol != "EURUSD" || closed.Volume != 0.1 {
		t.Fatalf("closed row lost its fields: %+v", closed)
	}
}

func TestReconcileEmptySnapshotClosesEverything(t *testing.T) {
	r, _, _ := newTestReconciler()
	ctx := context.Background()

	if err := r.Reconcile(ctx, []*models.Position{{Ticket: 7, Symbol: "USDJPY"}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := r.Reconcile(ctx, []*models.Position{}); err != nil {
		t.Fatalf("empty reconcile: %v", err)
	}
	if open, _ := r.ListOpen(ctx); len(open) != 0 {
		t.Fatalf("open = %d, want 0", len(open))
	}
}

func TestReconcileBroadcastsAfterCommit(t *testing.T) {
	r, store, relay := newTestReconciler()
	ctx := context.Background()

	store.fail = true
	if err := r.Reconcile(ctx, []*models.Position{{Ticket: 1, Symbol: "EURUSD"}}); err == nil {
		t.Fatal("expected error from failing store")
	}
	if len(relay.all()) != 0 {
		t.Fatal("failed reconcile must not broadcast")
	}

	store.fail = false
	snapshot := []*models.Position{{Ticket: 1, Symbol: "EURUSD"}}
	if err := r.Reconcile(ctx, snapshot); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	events := relay.all()
	if len(events) != 1 || events[0].event != drepo.EventPositionsUpdate {
		t.Fatalf("events = %+v, want one positions_update", events)
	}
}

func TestReconcileForcesOpenStatus(t *testing.T) {
	r, store, _ := newTestReconciler()

	snap := []*models.Position{{Ticket: 3, Symbol: "EURUSD", Status: models.PositionClosed}}
	if err := r.Reconcile(context.Background(), snap); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	got := store.get(3)
	if got.Status != models.PositionOpen {
		t.Fatalf("status = %q, want forced open", got.Status)
	}
	if got.OpenTime == "" {
		t.Fatal("open time default missing")
	}
}

func TestPublishAccount(t *testing.T) {
	r, _, relay := newTestReconciler()

	r.PublishAccount(&models.AccountSnapshot{Balance: 1000, Equity: 1010})

	events := relay.all()
	if len(events) != 1 || events[0].event != drepo.EventAccountUpdate {
		t.Fatalf("events = %+v, want one account_update", events)
	}
	snap, ok := events[0].payload.(*models.AccountSnapshot)
	if !ok || snap.Balance != 1000 {
		t.Fatalf("payload = %+v", events[0].payload)
	}
}
