package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"habridge/internal/domain/models"
	drepo "habridge/internal/domain/repository"
	applogger "habridge/pkg/logger"
)

// ClickHouseSignalStore keeps the append-only signal history. Signals are
// never mutated after insert, which is why they live in ClickHouse while the
// mutable command/position state lives in Postgres.
type ClickHouseSignalStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewClickHouseSignalStore(db *sql.DB, table string) *ClickHouseSignalStore {
	return &ClickHouseSignalStore{db: db, table: table}
}

// SetLogger injects a structured logger.
func (s *ClickHouseSignalStore) SetLogger(l *applogger.Logger) { s.l = l }

var _ drepo.SignalStore = (*ClickHouseSignalStore)(nil)

const signalColumns = `ts, symbol, timeframe, signal_type,
	ha_open, ha_high, ha_low, ha_close, trend, momentum_shift, bid, ask, spread,
	resistance, support, supply_zone, demand_zone, vwap, vwap_upper, vwap_lower, poc,
	harmonic_pattern, price_position, supertrend_up, supertrend_down, supertrend_direction,
	fibo_level1, fibo_level2, fibo_level3, anchored_vwap,
	drawfib_level1, drawfib_level2, drawfib_level3,
	candle_pattern, bollinger_signal, bollinger_direction,
	fvg_high, fvg_low, fvg_type, macd_main, macd_signal, macd_trend,
	pro_resistance, pro_support`

func (s *ClickHouseSignalStore) Init(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts String, symbol String, timeframe String, signal_type String,
		ha_open Float64, ha_high Float64, ha_low Float64, ha_close Float64,
		trend String, momentum_shift Int32, bid Float64, ask Float64, spread Float64,
		resistance Float64, support Float64, supply_zone Float64, demand_zone Float64,
		vwap Float64, vwap_upper Float64, vwap_lower Float64, poc Float64,
		harmonic_pattern String, price_position String,
		supertrend_up Float64, supertrend_down Float64, supertrend_direction String,
		fibo_level1 Float64, fibo_level2 Float64, fibo_level3 Float64, anchored_vwap Float64,
		drawfib_level1 Float64, drawfib_level2 Float64, drawfib_level3 Float64,
		candle_pattern String, bollinger_signal Float64, bollinger_direction String,
		fvg_high Float64, fvg_low Float64, fvg_type String,
		macd_main Float64, macd_signal Float64, macd_trend String,
		pro_resistance Float64, pro_support Float64,
		created_at DateTime DEFAULT now()
	) ENGINE = MergeTree ORDER BY (symbol, created_at)`, s.table)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("signal schema: %w", err)
	}
	return nil
}

func (s *ClickHouseSignalStore) Insert(ctx context.Context, sig *models.Signal) error {
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", s.table, signalColumns, placeholders(44))
	_, err := s.db.ExecContext(ctx, q,
		sig.Timestamp, sig.Symbol, sig.Timeframe, sig.SignalType,
		sig.HAOpen, sig.HAHigh, sig.HALow, sig.HAClose, sig.Trend, int32(sig.MomentumShift),
		sig.Bid, sig.Ask, sig.Spread,
		sig.Resistance, sig.Support, sig.SupplyZone, sig.DemandZone,
		sig.VWAP, sig.VWAPUpper, sig.VWAPLower, sig.POC,
		sig.HarmonicPattern, sig.PricePosition,
		sig.SupertrendUp, sig.SupertrendDown, sig.SupertrendDirection,
		sig.FiboLevel1, sig.FiboLevel2, sig.FiboLevel3, sig.AnchoredVWAP,
		sig.DrawFibLevel1, sig.DrawFibLevel2, sig.DrawFibLevel3,
		sig.CandlePattern, sig.BollingerSignal, sig.BollingerDirection,
		sig.FVGHigh, sig.FVGLow, sig.FVGType,
		sig.MACDMain, sig.MACDSignal, sig.MACDTrend,
		sig.ProResistance, sig.ProSupport,
	)
	if err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

func (s *ClickHouseSignalStore) History(ctx context.Context, symbol string, limit int) ([]*models.Signal, error) {
	q := fmt.Sprintf("SELECT %s, created_at FROM %s", signalColumns, s.table)
	args := make([]any, 0, 2)
	if symbol != "" {
		q += " WHERE symbol = ?"
		args = append(args, symbol)
	}
	q += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var signals []*models.Signal
	for rows.Next() {
		var sig models.Signal
		var momentum int32
		if err := rows.Scan(
			&sig.Timestamp, &sig.Symbol, &sig.Timeframe, &sig.SignalType,
			&sig.HAOpen, &sig.HAHigh, &sig.HALow, &sig.HAClose, &sig.Trend, &momentum,
			&sig.Bid, &sig.Ask, &sig.Spread,
			&sig.Resistance, &sig.Support, &sig.SupplyZone, &sig.DemandZone,
			&sig.VWAP, &sig.VWAPUpper, &sig.VWAPLower, &sig.POC,
			&sig.HarmonicPattern, &sig.PricePosition,
			&sig.SupertrendUp, &sig.SupertrendDown, &sig.SupertrendDirection,
			&sig.FiboLevel1, &sig.FiboLevel2, &sig.FiboLevel3, &sig.AnchoredVWAP,
			&sig.DrawFibLevel1, &sig.DrawFibLevel2, &sig.DrawFibLevel3,
			&sig.CandlePattern, &sig.BollingerSignal, &sig.BollingerDirection,
			&sig.FVGHigh, &sig.FVGLow, &sig.FVGType,
			&sig.MACDMain, &sig.MACDSignal, &sig.MACDTrend,
			&sig.ProResistance, &sig.ProSupport, &sig.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		sig.MomentumShift = int(momentum)
		signals = append(signals, &sig)
	}
	return signals, rows.Err()
}

func (s *ClickHouseSignalStore) TrendStats(ctx context.Context, window time.Duration) (*models.TrendStats, error) {
	stats := &models.TrendStats{TrendCounts: make(map[string]int)}
	since := time.Now().Add(-window)

	q := fmt.Sprintf("SELECT trend, count() FROM %s WHERE created_at > ? GROUP BY trend", s.table)
	rows, err := s.db.QueryContext(ctx, q, since)
	if err != nil {
		return nil, fmt.Errorf("trend counts: %w", err)
	}
	for rows.Next() {
		var trend string
		var n uint64
		if err := rows.Scan(&trend, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan trend count: %w", err)
		}
		stats.TrendCounts[trend] = int(n)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	q = fmt.Sprintf("SELECT count() FROM %s WHERE momentum_shift = 1 AND created_at > ?", s.table)
	var shifts uint64
	if err := s.db.QueryRowContext(ctx, q, since).Scan(&shifts); err != nil {
		return nil, fmt.Errorf("momentum count: %w", err)
	}
	stats.MomentumShifts = int(shifts)

	q = fmt.Sprintf(`SELECT symbol, trend, momentum_shift, bid, ask, ts
		FROM %s ORDER BY created_at DESC LIMIT 1 BY symbol`, s.table)
	rows, err = s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("latest by symbol: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var latest models.LatestSignal
		var momentum int32
		if err := rows.Scan(&latest.Symbol, &latest.Trend, &momentum, &latest.Bid, &latest.Ask, &latest.Timestamp); err != nil {
			return nil, fmt.Errorf("scan latest: %w", err)
		}
		latest.MomentumShift = int(momentum)
		stats.LatestBySymbol = append(stats.LatestBySymbol, latest)
	}
	return stats, rows.Err()
}

func (s *ClickHouseSignalStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseSignalStore) Close() error {
	return nil // pool is managed by pkg/clickhouse
}

func placeholders(n int) string {
	b := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, '?')
	}
	return string(b)
}
