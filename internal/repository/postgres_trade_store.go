package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"habridge/internal/domain/models"
	drepo "habridge/internal/domain/repository"
)

const tradeSchema = `
CREATE TABLE IF NOT EXISTS trade_commands (
	id         BIGSERIAL PRIMARY KEY,
	ts         TEXT NOT NULL,
	symbol     TEXT NOT NULL DEFAULT '',
	action     TEXT NOT NULL,
	volume     DOUBLE PRECISION NOT NULL DEFAULT 0,
	price      DOUBLE PRECISION NOT NULL DEFAULT 0,
	sl         DOUBLE PRECISION NOT NULL DEFAULT 0,
	tp         DOUBLE PRECISION NOT NULL DEFAULT 0,
	status     TEXT NOT NULL DEFAULT 'pending',
	ticket     BIGINT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresTradeStore implements TradeStore on a pgx pool.
type PostgresTradeStore struct {
	pool *pgxpool.Pool
}

func NewPostgresTradeStore(pool *pgxpool.Pool) drepo.TradeStore {
	return &PostgresTradeStore{pool: pool}
}

// InitTradeSchema ensures the trade_commands table exists.
func InitTradeSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, tradeSchema); err != nil {
		return fmt.Errorf("trade schema: %w", err)
	}
	return nil
}

func (s *PostgresTradeStore) Insert(ctx context.Context, cmd *models.TradeCommand) (int64, error) {
	const q = `
		INSERT INTO trade_commands (ts, symbol, action, volume, price, sl, tp, status, ticket)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, 0))
		RETURNING id`
	var id int64
	err := s.pool.QueryRow(ctx, q,
		cmd.Timestamp, cmd.Symbol, cmd.Action, cmd.Volume,
		cmd.Price, cmd.SL, cmd.TP, cmd.Status, cmd.Ticket,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert trade command: %w", err)
	}
	return id, nil
}

func (s *PostgresTradeStore) ListPending(ctx context.Context, newestFirst bool) ([]*models.TradeCommand, error) {
	order := "ASC"
	if newestFirst {
		order = "DESC"
	}
	q := fmt.Sprintf(`
		SELECT id, ts, symbol, action, volume, price, sl, tp, status, ticket, created_at
		FROM trade_commands
		WHERE status = $1
		ORDER BY created_at %s, id %s`, order, order)

	rows, err := s.pool.Query(ctx, q, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	defer rows.Close()

	var cmds []*models.TradeCommand
	for rows.Next() {
		var cmd models.TradeCommand
		var ticket sql.NullInt64
		if err := rows.Scan(&cmd.ID, &cmd.Timestamp, &cmd.Symbol, &cmd.Action,
			&cmd.Volume, &cmd.Price, &cmd.SL, &cmd.TP, &cmd.Status, &ticket, &cmd.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan trade command: %w", err)
		}
		if ticket.Valid {
			cmd.Ticket = ticket.Int64
		}
		cmds = append(cmds, &cmd)
	}
	return cmds, rows.Err()
}

// UpdateStatus writes the terminal's verdict unconditionally: the terminal
// owns outcomes, so duplicate confirmations may overwrite a terminal state.
func (s *PostgresTradeStore) UpdateStatus(ctx context.Context, id int64, status string, ticket int64) error {
	const q = `
		UPDATE trade_commands
		SET status = $2, ticket = COALESCE(NULLIF($3, 0), ticket)
		WHERE id = $1`
	if _, err := s.pool.Exec(ctx, q, id, status, ticket); err != nil {
		return fmt.Errorf("update trade status: %w", err)
	}
	return nil
}

// CancelPending flips pending to cancelled; the false return means the row
// was not pending (or does not exist).
func (s *PostgresTradeStore) CancelPending(ctx context.Context, id int64) (bool, error) {
	const q = `UPDATE trade_commands SET status = $2 WHERE id = $1 AND status = $3`
	tag, err := s.pool.Exec(ctx, q, id, models.StatusCancelled, models.StatusPending)
	if err != nil {
		return false, fmt.Errorf("cancel trade: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresTradeStore) CancelAllPending(ctx context.Context) (int64, error) {
	const q = `UPDATE trade_commands SET status = $1 WHERE status = $2`
	tag, err := s.pool.Exec(ctx, q, models.StatusCancelled, models.StatusPending)
	if err != nil {
		return 0, fmt.Errorf("clear pending: %w", err)
	}
	return tag.RowsAffected(), nil
}
