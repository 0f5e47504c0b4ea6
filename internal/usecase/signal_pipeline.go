package usecase

import (
	"context"
	"fmt"
	"time"

	"habridge/internal/domain/models"
	drepo "habridge/internal/domain/repository"
)

// SignalPipeline runs ingestion end to end: normalize, score, persist,
// broadcast. It also serves the read paths over the signal history.
type SignalPipeline struct {
	store   drepo.SignalStore
	relay   drepo.Broadcaster
	metrics drepo.Metrics
}

func NewSignalPipeline(store drepo.SignalStore, relay drepo.Broadcaster, metrics drepo.Metrics) *SignalPipeline {
	return &SignalPipeline{store: store, relay: relay, metrics: metrics}
}

// Ingest scores a raw snapshot and appends it to history. Normalization and
// scoring never fail; only the append can, and a failed append is surfaced
// without having broadcast anything.
func (p *SignalPipeline) Ingest(ctx context.Context, raw map[string]any) (*models.Signal, error) {
	start := time.Now()

	sig := NormalizeSignal(raw)
	res := Score(sig)
	sig.Confluence = &res

	if err := p.store.Insert(ctx, sig); err != nil {
		p.metrics.RecordError("signal_insert")
		return nil, fmt.Errorf("insert signal: %w", err)
	}

	p.relay.Publish(drepo.EventNewSignal, sig.Symbol, sig)
	p.metrics.RecordSignal(sig.Symbol, res.FinalSignal)
	p.metrics.RecordLatency("signal_ingest", time.Since(start).Seconds())
	return sig, nil
}

// History returns recent signals, newest first, optionally for one symbol.
func (p *SignalPipeline) History(ctx context.Context, symbol string, limit int) ([]*models.Signal, error) {
	if limit <= 0 {
		limit = 100
	}
	return p.store.History(ctx, symbol, limit)
}

// Stats aggregates the last 24 hours of history.
func (p *SignalPipeline) Stats(ctx context.Context) (*models.TrendStats, error) {
	return p.store.TrendStats(ctx, 24*time.Hour)
}
