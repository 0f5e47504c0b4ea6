package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"habridge/internal/domain/models"
	drepo "habridge/internal/domain/repository"
)

type fakeSignalStore struct {
	mu      sync.Mutex
	signals []*models.Signal
	fail    bool
}

func (f *fakeSignalStore) Init(context.Context) error { return nil }

func (f *fakeSignalStore) Insert(_ context.Context, s *models.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("store down")
	}
	f.signals = append(f.signals, s)
	return nil
}

func (f *fakeSignalStore) History(_ context.Context, symbol string, limit int) ([]*models.Signal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Signal
	for i := len(f.signals) - 1; i >= 0 && len(out) < limit; i-- {
		if symbol == "" || f.signals[i].Symbol == symbol {
			out = append(out, f.signals[i])
		}
	}
	return out, nil
}

func (f *fakeSignalStore) TrendStats(context.Context, time.Duration) (*models.TrendStats, error) {
	return &models.TrendStats{TrendCounts: map[string]int{}}, nil
}

func (f *fakeSignalStore) Health(context.Context) error { return nil }
func (f *fakeSignalStore) Close() error                 { return nil }

func TestIngestScoresPersistsBroadcasts(t *testing.T) {
	store := &fakeSignalStore{}
	relay := &recordingRelay{}
	p := NewSignalPipeline(store, relay, nopMetrics{})

	sig, err := p.Ingest(context.Background(), map[string]any{
		"symbol":               "EURUSD",
		"trend":                "BULLISH",
		"supertrend_direction": "BULLISH",
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if sig.Confluence == nil {
		t.Fatal("confluence not attached")
	}
	if sig.Confluence.FinalSignal != models.StrongBuy {
		t.Fatalf("final = %q, want STRONG_BUY for 2/2 bullish", sig.Confluence.FinalSignal)
	}

	if len(store.signals) != 1 {
		t.Fatalf("persisted = %d, want 1", len(store.signals))
	}
	events := relay.all()
	if len(events) != 1 || events[0].event != drepo.EventNewSignal || events[0].symbol != "EURUSD" {
		t.Fatalf("events = %+v, want one new_signal for EURUSD", events)
	}
}

func TestIngestMalformedBodyStillProducesSignal(t *testing.T) {
	store := &fakeSignalStore{}
	p := NewSignalPipeline(store, &recordingRelay{}, nopMetrics{})

	sig, err := p.Ingest(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if sig.Symbol != "UNKNOWN" {
		t.Fatalf("symbol = %q, want UNKNOWN default", sig.Symbol)
	}
	if sig.Confluence.FinalSignal != models.Neutral {
		t.Fatalf("final = %q, want NEUTRAL", sig.Confluence.FinalSignal)
	}
}

func TestIngestStoreFailureDoesNotBroadcast(t *testing.T) {
	store := &fakeSignalStore{fail: true}
	relay := &recordingRelay{}
	p := NewSignalPipeline(store, relay, nopMetrics{})

	if _, err := p.Ingest(context.Background(), map[string]any{"symbol": "EURUSD"}); err == nil {
		t.Fatal("expected error from failing store")
	}
	if len(relay.all()) != 0 {
		t.Fatal("failed ingest must not broadcast")
	}
}

func TestHistoryDefaultsLimit(t *testing.T) {
	store := &fakeSignalStore{}
	p := NewSignalPipeline(store, &recordingRelay{}, nopMetrics{})
	ctx := context.Background()

	for i := 0; i < 120; i++ {
		if _, err := p.Ingest(ctx, map[string]any{"symbol": "EURUSD"}); err != nil {
			t.Fatalf("ingest %d: %v", i, err)
		}
	}

	got, err := p.History(ctx, "", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 100 {
		t.Fatalf("history = %d, want default limit 100", len(got))
	}
}
