package repository

import (
	"context"
	"time"

	"habridge/internal/domain/models"
)

// SignalStore is the append-only history of normalized signals.
type SignalStore interface {
	Init(ctx context.Context) error // ensure tables
	Insert(ctx context.Context, s *models.Signal) error
	History(ctx context.Context, symbol string, limit int) ([]*models.Signal, error)
	TrendStats(ctx context.Context, window time.Duration) (*models.TrendStats, error)
	Health(ctx context.Context) error
	Close() error
}

// TradeStore persists operator commands and their lifecycle state.
type TradeStore interface {
	Insert(ctx context.Context, cmd *models.TradeCommand) (int64, error)
	ListPending(ctx context.Context, newestFirst bool) ([]*models.TradeCommand, error)
	UpdateStatus(ctx context.Context, id int64, status string, ticket int64) error
	CancelPending(ctx context.Context, id int64) (bool, error)
	CancelAllPending(ctx context.Context) (int64, error)
}

// PositionStore mirrors the terminal's open positions. ReplaceOpenSet runs
// mark-closed-then-upsert as one transaction; a concurrent reader never
// observes the intermediate zero-open state.
type PositionStore interface {
	ReplaceOpenSet(ctx context.Context, snapshot []*models.Position) error
	ListOpen(ctx context.Context) ([]*models.Position, error)
}

// Metrics records operational counters and latencies.
type Metrics interface {
	RecordSignal(symbol, classification string)
	RecordCommand(action, status string)
	RecordBroadcast(event string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
