package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"habridge/internal/domain/models"
	drepo "habridge/internal/domain/repository"
)

var (
	// ErrInvalidSymbol rejects commands addressed to nothing in particular.
	ErrInvalidSymbol = errors.New("invalid symbol")
	// ErrInvalidTicket rejects by-ticket commands with no ticket.
	ErrInvalidTicket = errors.New("ticket required")
	// ErrNotPending means the command is not currently waiting for the
	// terminal, e.g. a double cancel.
	ErrNotPending = errors.New("trade not pending")
)

// TradeQueue owns the command lifecycle: operator enqueues, the terminal
// polls and confirms. Commands are never deleted; terminal states are
// executed, cancelled and error.
type TradeQueue struct {
	store   drepo.TradeStore
	relay   drepo.Broadcaster
	metrics drepo.Metrics
}

func NewTradeQueue(store drepo.TradeStore, relay drepo.Broadcaster, metrics drepo.Metrics) *TradeQueue {
	return &TradeQueue{store: store, relay: relay, metrics: metrics}
}

// Enqueue queues a BUY/SELL/CLOSE command for the terminal. The command is
// not queued at all when the store rejects it.
func (q *TradeQueue) Enqueue(ctx context.Context, req *models.TradeRequest) (*models.TradeCommand, error) {
	if req.Symbol == "" || req.Symbol == "UNKNOWN" || req.Symbol == "--" {
		return nil, ErrInvalidSymbol
	}
	volume := req.Volume
	if volume <= 0 {
		volume = 0.01
	}
	cmd := &models.TradeCommand{
		Timestamp: time.Now().Format(time.RFC3339),
		Symbol:    req.Symbol,
		Action:    req.Action,
		Volume:    volume,
		Price:     req.Price,
		SL:        req.SL,
		TP:        req.TP,
		Status:    models.StatusPending,
	}
	return q.insert(ctx, cmd)
}

// EnqueueClose queues a CLOSE for one ticket. The ticket is written into the
// symbol field as well; older terminal builds read it from there.
func (q *TradeQueue) EnqueueClose(ctx context.Context, ticket int64) (*models.TradeCommand, error) {
	if ticket <= 0 {
		return nil, ErrInvalidTicket
	}
	cmd := &models.TradeCommand{
		Timestamp: time.Now().Format(time.RFC3339),
		Symbol:    strconv.FormatInt(ticket, 10),
		Action:    models.ActionClose,
		Status:    models.StatusPending,
		Ticket:    ticket,
	}
	return q.insert(ctx, cmd)
}

// EnqueueCloseAll queues the singleton close-everything intent.
func (q *TradeQueue) EnqueueCloseAll(ctx context.Context) (*models.TradeCommand, error) {
	cmd := &models.TradeCommand{
		Timestamp: time.Now().Format(time.RFC3339),
		Action:    models.ActionCloseAll,
		Status:    models.StatusPending,
	}
	return q.insert(ctx, cmd)
}

// EnqueueModify queues an SL/TP modification for one ticket.
func (q *TradeQueue) EnqueueModify(ctx context.Context, ticket int64, sl, tp *float64) (*models.TradeCommand, error) {
	if ticket <= 0 {
		return nil, ErrInvalidTicket
	}
	cmd := &models.TradeCommand{
		Timestamp: time.Now().Format(time.RFC3339),
		Symbol:    strconv.FormatInt(ticket, 10),
		Action:    models.ActionModify,
		Status:    models.StatusPending,
		Ticket:    ticket,
	}
	if sl != nil {
		cmd.SL = *sl
	}
	if tp != nil {
		cmd.TP = *tp
	}
	return q.insert(ctx, cmd)
}

func (q *TradeQueue) insert(ctx context.Context, cmd *models.TradeCommand) (*models.TradeCommand, error) {
	id, err := q.store.Insert(ctx, cmd)
	if err != nil {
		q.metrics.RecordError("trade_insert")
		return nil, fmt.Errorf("insert trade command: %w", err)
	}
	cmd.ID = id
	q.relay.Publish(drepo.EventTradeCommand, cmd.Symbol, cmd)
	q.metrics.RecordCommand(cmd.Action, cmd.Status)
	return cmd, nil
}

// ListPending is the terminal's poll path: FIFO, oldest first.
func (q *TradeQueue) ListPending(ctx context.Context) ([]*models.TradeCommand, error) {
	return q.store.ListPending(ctx, false)
}

// ListPendingNewest serves the dashboard view, newest first.
func (q *TradeQueue) ListPendingNewest(ctx context.Context) ([]*models.TradeCommand, error) {
	return q.store.ListPending(ctx, true)
}

// Confirm records the terminal's verdict on a command. The terminal is
// authoritative about outcomes, so the write is unconditional: a duplicate
// confirmation overwrites a terminal state rather than erroring. When the
// store fails, the command is force-marked error so a broken confirmation
// never leaves it pending and poisoning the poll loop.
func (q *TradeQueue) Confirm(ctx context.Context, id int64, status string, ticket int64) error {
	if status == "" {
		status = models.StatusExecuted
	}
	if err := q.store.UpdateStatus(ctx, id, status, ticket); err != nil {
		q.metrics.RecordError("trade_confirm")
		// Best effort: park the command in error state instead of pending.
		_ = q.store.UpdateStatus(ctx, id, models.StatusError, 0)
		return fmt.Errorf("confirm trade %d: %w", id, err)
	}
	q.relay.Publish(drepo.EventTradeUpdate, "", map[string]any{"id": id, "status": status})
	q.metrics.RecordCommand("confirm", status)
	return nil
}

// Cancel withdraws one pending command. Not-pending reports ErrNotPending
// and leaves the row untouched.
func (q *TradeQueue) Cancel(ctx context.Context, id int64) error {
	ok, err := q.store.CancelPending(ctx, id)
	if err != nil {
		q.metrics.RecordError("trade_cancel")
		return fmt.Errorf("cancel trade %d: %w", id, err)
	}
	if !ok {
		return ErrNotPending
	}
	q.relay.Publish(drepo.EventTradeUpdate, "", map[string]any{"id": id, "status": models.StatusCancelled})
	q.metrics.RecordCommand("cancel", models.StatusCancelled)
	return nil
}

// ClearPending bulk-cancels everything still waiting and reports the count.
func (q *TradeQueue) ClearPending(ctx context.Context) (int64, error) {
	n, err := q.store.CancelAllPending(ctx)
	if err != nil {
		q.metrics.RecordError("trade_clear")
		return 0, fmt.Errorf("clear pending: %w", err)
	}
	return n, nil
}
