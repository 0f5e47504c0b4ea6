package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habridge/internal/domain/models"
	drepo "habridge/internal/domain/repository"
)

const positionSchema = `
CREATE TABLE IF NOT EXISTS positions (
	ticket        BIGINT PRIMARY KEY,
	symbol        TEXT NOT NULL,
	pos_type      TEXT NOT NULL DEFAULT '',
	volume        DOUBLE PRECISION NOT NULL DEFAULT 0,
	open_price    DOUBLE PRECISION NOT NULL DEFAULT 0,
	current_price DOUBLE PRECISION NOT NULL DEFAULT 0,
	sl            DOUBLE PRECISION NOT NULL DEFAULT 0,
	tp            DOUBLE PRECISION NOT NULL DEFAULT 0,
	profit        DOUBLE PRECISION NOT NULL DEFAULT 0,
	open_time     TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'open',
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresPositionStore implements PositionStore on a pgx pool.
type PostgresPositionStore struct {
	pool *pgxpool.Pool
}

func NewPostgresPositionStore(pool *pgxpool.Pool) drepo.PositionStore {
	return &PostgresPositionStore{pool: pool}
}

// InitPositionSchema ensures the positions table exists.
func InitPositionSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, positionSchema); err != nil {
		return fmt.Errorf("position schema: %w", err)
	}
	return nil
}

// ReplaceOpenSet marks everything closed and upserts the snapshot back as
// open, inside one transaction so readers never observe the intermediate
// zero-open state. Attributes of tickets absent from the snapshot are left
// as last seen; only their status flips.
func (s *PostgresPositionStore) ReplaceOpenSet(ctx context.Context, snapshot []*models.Position) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE positions SET status = $1, updated_at = now() WHERE status = $2`,
			models.PositionClosed, models.PositionOpen,
		); err != nil {
			return fmt.Errorf("mark closed: %w", err)
		}

		const upsert = `
			INSERT INTO positions
				(ticket, symbol, pos_type, volume, open_price, current_price, sl, tp, profit, open_time, status, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
			ON CONFLICT (ticket) DO UPDATE SET
				symbol = EXCLUDED.symbol,
				pos_type = EXCLUDED.pos_type,
				volume = EXCLUDED.volume,
				open_price = EXCLUDED.open_price,
				current_price = EXCLUDED.current_price,
				sl = EXCLUDED.sl,
				tp = EXCLUDED.tp,
				profit = EXCLUDED.profit,
				open_time = EXCLUDED.open_time,
				status = EXCLUDED.status,
				updated_at = now()`
		for _, p := range snapshot {
			if p == nil || p.Ticket == 0 {
				continue
			}
			if _, err := tx.Exec(ctx, upsert,
				p.Ticket, p.Symbol, p.Type, p.Volume, p.OpenPrice, p.CurrentPrice,
				p.SL, p.TP, p.Profit, p.OpenTime, models.PositionOpen,
			); err != nil {
				return fmt.Errorf("upsert position %d: %w", p.Ticket, err)
			}
		}
		return nil
	})
}

func (s *PostgresPositionStore) ListOpen(ctx context.Context) ([]*models.Position, error) {
	const q = `
		SELECT ticket, symbol, pos_type, volume, open_price, current_price, sl, tp, profit, open_time, status, updated_at
		FROM positions
		WHERE status = $1
		ORDER BY open_time DESC`
	rows, err := s.pool.Query(ctx, q, models.PositionOpen)
	if err != nil {
		return nil, fmt.Errorf("list open positions: %w", err)
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.Ticket, &p.Symbol, &p.Type, &p.Volume, &p.OpenPrice,
			&p.CurrentPrice, &p.SL, &p.TP, &p.Profit, &p.OpenTime, &p.Status, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		positions = append(positions, &p)
	}
	return positions, rows.Err()
}

func (s *PostgresPositionStore) withTx(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
