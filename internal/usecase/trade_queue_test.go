package usecase

import (
	"context"
	"errors"
	"testing"

	"habridge/internal/domain/models"
	drepo "habridge/internal/domain/repository"
)

func newTestQueue() (*TradeQueue, *fakeTradeStore, *recordingRelay) {
	store := newFakeTradeStore()
	relay := &recordingRelay{}
	return NewTradeQueue(store, relay, nopMetrics{}), store, relay
}

func TestEnqueueRejectsSentinelSymbols(t *testing.T) {
	q, store, relay := newTestQueue()

	for _, symbol := range []string{"", "UNKNOWN", "--"} {
		_, err := q.Enqueue(context.Background(), &models.TradeRequest{Symbol: symbol, Action: models.ActionBuy})
		if !errors.Is(err, ErrInvalidSymbol) {
			t.Fatalf("symbol %q: err = %v, want ErrInvalidSymbol", symbol, err)
		}
	}
	if pending, _ := store.ListPending(context.Background(), false); len(pending) != 0 {
		t.Fatalf("rejected commands were queued: %d", len(pending))
	}
	if len(relay.all()) != 0 {
		t.Fatalf("rejected commands were broadcast")
	}
}

func TestEnqueueDefaultsVolume(t *testing.T) {
	q, _, _ := newTestQueue()

	cmd, err := q.Enqueue(context.Background(), &models.TradeRequest{Symbol: "EURUSD", Action: models.ActionBuy})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if cmd.Volume != 0.01 {
		t.Fatalf("volume = %v, want 0.01 default", cmd.Volume)
	}
	if cmd.Status != models.StatusPending {
		t.Fatalf("status = %q, want pending", cmd.Status)
	}
}

func TestEnqueueStoreFailureDoesNotBroadcast(t *testing.T) {
	q, store, relay := newTestQueue()
	store.failInsert = true

	_, err := q.Enqueue(context.Background(), &models.TradeRequest{Symbol: "EURUSD", Action: models.ActionSell, Volume: 0.1})
	if err == nil {
		t.Fatal("expected error from failing store")
	}
	if len(relay.all()) != 0 {
		t.Fatal("failed enqueue must not broadcast")
	}
}

func TestEnqueueBroadcastsTradeCommand(t *testing.T) {
	q, _, relay := newTestQueue()

	cmd, err := q.Enqueue(context.Background(), &models.TradeRequest{Symbol: "GBPUSD", Action: models.ActionBuy, Volume: 0.2})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	events := relay.all()
	if len(events) != 1 || events[0].event != drepo.EventTradeCommand {
		t.Fatalf("events = %+v, want one trade_command", events)
	}
	got, ok := events[0].payload.(*models.TradeCommand)
	if !ok || got.ID != cmd.ID {
		t.Fatalf("payload = %+v, want queued command", events[0].payload)
	}
}

func TestListPendingFIFO(t *testing.T) {
	q, _, _ := newTestQueue()
	ctx := context.Background()

	for _, s := range []string{"EURUSD", "GBPUSD", "USDJPY"} {
		if _, err := q.Enqueue(ctx, &models.TradeRequest{Symbol: s, Action: models.ActionBuy, Volume: 0.1}); err != nil {
			t.Fatalf("enqueue %s: %v", s, err)
		}
	}

	pending, err := q.ListPending(ctx)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("pending = %d, want 3", len(pending))
	}
	for i, want := range []string{"EURUSD", "GBPUSD", "USDJPY"} {
		if pending[i].Symbol != want {
			t.Fatalf("pending[%d] = %q, want %q (FIFO)", i, pending[i].Symbol, want)
		}
	}

	newest, err := q.ListPendingNewest(ctx)
	if err != nil {
		t.Fatalf("list newest: %v", err)
	}
	if newest[0].Symbol != "USDJPY" {
		t.Fatalf("newest[0] = %q, want USDJPY", newest[0].Symbol)
	}
}

func TestConfirmDefaultsToExecuted(t *testing.T) {
	q, store, relay := newTestQueue()
	ctx := context.Background()

	cmd, _ := q.Enqueue(ctx, &models.TradeRequest{Symbol: "EURUSD", Action: models.ActionBuy, Volume: 0.1})

	if err := q.Confirm(ctx, cmd.ID, "", 777); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	stored := store.get(cmd.ID)
	if stored.Status != models.StatusExecuted {
		t.Fatalf("status = %q, want executed default", stored.Status)
	}
	if stored.Ticket != 777 {
		t.Fatalf("ticket = %d, want 777", stored.Ticket)
	}

	events := relay.all()
	last := events[len(events)-1]
	if last.event != drepo.EventTradeUpdate {
		t.Fatalf("last event = %q, want trade_update", last.event)
	}
}

func TestConfirmOverwritesTerminalState(t *testing.T) {
	q, store, _ := newTestQueue()
	ctx := context.Background()

	cmd, _ := q.Enqueue(ctx, &models.TradeRequest{Symbol: "EURUSD", Action: models.ActionBuy, Volume: 0.1})
	if err := q.Confirm(ctx, cmd.ID, models.StatusExecuted, 0); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	// Duplicate delivery with a different status is tolerated.
	if err := q.Confirm(ctx, cmd.ID, models.StatusError, 0); err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if got := store.get(cmd.ID).Status; got != models.StatusError {
		t.Fatalf("status = %q, want error after overwrite", got)
	}
}

func TestConfirmStoreFailureForcesErrorState(t *testing.T) {
	q, store, _ := newTestQueue()
	ctx := context.Background()

	cmd, _ := q.Enqueue(ctx, &models.TradeRequest{Symbol: "EURUSD", Action: models.ActionBuy, Volume: 0.1})
	store.failUpdate = 1

	err := q.Confirm(ctx, cmd.ID, models.StatusExecuted, 0)
	if err == nil {
		t.Fatal("expected error from failing store")
	}
	// The force-mark retry must have parked the command in error state so
	// the poll loop does not serve it forever.
	if got := store.get(cmd.ID).Status; got != models.StatusError {
		t.Fatalf("status = %q, want error after forced mark", got)
	}
}

func TestCancelPendingAndNotPending(t *testing.T) {
	q, store, _ := newTestQueue()
	ctx := context.Background()

	cmd, _ := q.Enqueue(ctx, &models.TradeRequest{Symbol: "EURUSD", Action: models.ActionBuy, Volume: 0.1})
	if err := q.Cancel(ctx, cmd.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := store.get(cmd.ID).Status; got != models.StatusCancelled {
		t.Fatalf("status = %q, want cancelled", got)
	}

	// Second cancel finds nothing pending and must not change state.
	if err := q.Cancel(ctx, cmd.ID); !errors.Is(err, ErrNotPending) {
		t.Fatalf("double cancel err = %v, want ErrNotPending", err)
	}
	if got := store.get(cmd.ID).Status; got != models.StatusCancelled {
		t.Fatalf("status changed by failed cancel: %q", got)
	}
}

func TestCancelDoesNotRevertExecuted(t *testing.T) {
	q, store, _ := newTestQueue()
	ctx := context.Background()

	cmd, _ := q.Enqueue(ctx, &models.TradeRequest{Symbol: "EURUSD", Action: models.ActionBuy, Volume: 0.1})
	if err := q.Confirm(ctx, cmd.ID, models.StatusExecuted, 0); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := q.Cancel(ctx, cmd.ID); !errors.Is(err, ErrNotPending) {
		t.Fatalf("cancel executed err = %v, want ErrNotPending", err)
	}
	if got := store.get(cmd.ID).Status; got != models.StatusExecuted {
		t.Fatalf("terminal state reverted to %q", got)
	}
}

func TestClearPendingReportsCount(t *testing.T) {
	q, _, _ := newTestQueue()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := q.Enqueue(ctx, &models.TradeRequest{Symbol: "EURUSD", Action: models.ActionBuy, Volume: 0.1}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	cmd, _ := q.Enqueue(ctx, &models.TradeRequest{Symbol: "GBPUSD", Action: models.ActionSell, Volume: 0.1})
	if err := q.Confirm(ctx, cmd.ID, models.StatusExecuted, 0); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	n, err := q.ClearPending(ctx)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n != 3 {
		t.Fatalf("cleared = %d, want 3 (executed command untouched)", n)
	}
	if pending, _ := q.ListPending(ctx); len(pending) != 0 {
		t.Fatalf("pending after clear = %d, want 0", len(pending))
	}
}

func TestClosePositionLifecycle(t *testing.T) {
	q, _, _ := newTestQueue()
	ctx := context.Background()

	if _, err := q.EnqueueClose(ctx, 0); !errors.Is(err, ErrInvalidTicket) {
		t.Fatalf("close without ticket err = %v, want ErrInvalidTicket", err)
	}

	cmd, err := q.EnqueueClose(ctx, 12345)
	if err != nil {
		t.Fatalf("enqueue close: %v", err)
	}

	pending, _ := q.ListPending(ctx)
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	got := pending[0]
	if got.Action != models.ActionClose || got.Ticket != 12345 || got.Status != models.StatusPending {
		t.Fatalf("pending close = %+v", got)
	}
	if got.Symbol != "12345" {
		t.Fatalf("symbol = %q, want ticket mirrored into symbol", got.Symbol)
	}

	if err := q.Confirm(ctx, cmd.ID, models.StatusExecuted, 12345); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if pending, _ = q.ListPending(ctx); len(pending) != 0 {
		t.Fatalf("pending after confirm = %d, want 0", len(pending))
	}
}

func TestEnqueueModify(t *testing.T) {
	q, _, _ := newTestQueue()
	ctx := context.Background()

	if _, err := q.EnqueueModify(ctx, 0, nil, nil); !errors.Is(err, ErrInvalidTicket) {
		t.Fatalf("modify without ticket err = %v, want ErrInvalidTicket", err)
	}

	sl := 1.05
	cmd, err := q.EnqueueModify(ctx, 99, &sl, nil)
	if err != nil {
		t.Fatalf("enqueue modify: %v", err)
	}
	if cmd.Action != models.ActionModify || cmd.SL != 1.05 || cmd.TP != 0 {
		t.Fatalf("modify command = %+v", cmd)
	}
}

func TestEnqueueCloseAll(t *testing.T) {
	q, _, relay := newTestQueue()

	cmd, err := q.EnqueueCloseAll(context.Background())
	if err != nil {
		t.Fatalf("enqueue close all: %v", err)
	}
	if cmd.Action != models.ActionCloseAll || cmd.Status != models.StatusPending {
		t.Fatalf("close all command = %+v", cmd)
	}
	if events := relay.all(); len(events) != 1 || events[0].event != drepo.EventTradeCommand {
		t.Fatalf("events = %+v", events)
	}
}
