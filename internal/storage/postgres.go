package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/mselser95/polymarket-trader/pkg/types"
	"go.uber.org/zap"
)

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// InitSchema creates the tables if they do not exist.
func (p *PostgresStorage) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS price_history (
			id BIGSERIAL PRIMARY KEY,
			asset_id TEXT NOT NULL,
			market TEXT,
			price DOUBLE PRECISION,
			size DOUBLE PRECISION,
			side TEXT,
			best_bid DOUBLE PRECISION,
			best_ask DOUBLE PRECISION,
			timestamp TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_price_history_market_ts ON price_history (market, timestamp)`,
		`CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			asset_id TEXT NOT NULL,
			market TEXT,
			action TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			notional DOUBLE PRECISION NOT NULL,
			simulated BOOLEAN NOT NULL,
			realized_pnl DOUBLE PRECISION,
			reason TEXT,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_created_at ON trades (created_at)`,
		`CREATE TABLE IF NOT EXISTS positions (
			asset_id TEXT PRIMARY KEY,
			market TEXT,
			side TEXT NOT NULL,
			size DOUBLE PRECISION NOT NULL,
			average_price DOUBLE PRECISION NOT NULL,
			realized_pnl DOUBLE PRECISION NOT NULL,
			opened_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range statements {
		_, err := p.db.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	p.logger.Info("postgres-schema-ready")
	return nil
}

// SaveTick appends one tick to the price history.
func (p *PostgresStorage) SaveTick(ctx context.Context, tick types.Tick) error {
	query := `
		INSERT INTO price_history (
			asset_id, market, price, size, side, best_bid, best_ask, timestamp
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err := p.db.ExecContext(ctx, query,
		tick.AssetID,
		nullString(tick.Market),
		tick.Price,
		nullFloat(tick.Size),
		nullString(tick.Side),
		nullFloat(tick.BestBid),
		nullFloat(tick.BestAsk),
		tick.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert tick: %w", err)
	}

	return nil
}

// RecordFill writes the trade and the position change in one
// transaction, so a crash between the two cannot leave the trade log
// and the position table disagreeing.
func (p *PostgresStorage) RecordFill(ctx context.Context, trade *types.Trade, pos *types.Position, closed bool) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insertTrade := `
		INSERT INTO trades (
			id, asset_id, market, action, price, notional,
			simulated, realized_pnl, reason, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`
	_, err = tx.ExecContext(ctx, insertTrade,
		trade.ID,
		trade.AssetID,
		nullString(trade.Market),
		trade.Action,
		trade.Price,
		trade.Notional,
		trade.Simulated,
		nullFloat(trade.RealizedPnL),
		nullString(trade.Reason),
		trade.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}

	if closed {
		_, err = tx.ExecContext(ctx, `DELETE FROM positions WHERE asset_id = $1`, pos.AssetID)
		if err != nil {
			return fmt.Errorf("delete position: %w", err)
		}
	} else {
		upsert := `
			INSERT INTO positions (
				asset_id, market, side, size, average_price,
				realized_pnl, opened_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8
			)
			ON CONFLICT (asset_id) DO UPDATE SET
				size = EXCLUDED.size,
				average_price = EXCLUDED.average_price,
				realized_pnl = EXCLUDED.realized_pnl,
				updated_at = EXCLUDED.updated_at
		`
		_, err = tx.ExecContext(ctx, upsert,
			pos.AssetID,
			nullString(pos.Market),
			pos.Side,
			pos.Size,
			pos.AveragePrice,
			pos.RealizedPnL,
			pos.OpenedAt,
			pos.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert position: %w", err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit fill: %w", err)
	}

	p.logger.Debug("fill-recorded",
		zap.String("trade-id", trade.ID),
		zap.String("asset-id", trade.AssetID),
		zap.String("action", trade.Action),
		zap.Bool("closed", closed))

	return nil
}

// TradeCountSince counts trades recorded at or after since.
func (p *PostgresStorage) TradeCountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trades WHERE created_at >= $1`, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count trades: %w", err)
	}
	return count, nil
}

// RealizedPnLSince sums realized P&L on trades recorded at or after since.
func (p *PostgresStorage) RealizedPnLSince(ctx context.Context, since time.Time) (float64, error) {
	var sum float64
	err := p.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(realized_pnl), 0) FROM trades WHERE created_at >= $1`, since,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum realized pnl: %w", err)
	}
	return sum, nil
}

// OpenPositions returns all positions with size > 0.
func (p *PostgresStorage) OpenPositions(ctx context.Context) ([]types.Position, error) {
	query := `
		SELECT asset_id, market, side, size, average_price,
		       realized_pnl, opened_at, updated_at
		FROM positions
		WHERE size > 0
		ORDER BY updated_at DESC
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var positions []types.Position
	for rows.Next() {
		var (
			pos    types.Position
			market sql.NullString
		)
		err = rows.Scan(
			&pos.AssetID,
			&market,
			&pos.Side,
			&pos.Size,
			&pos.AveragePrice,
			&pos.RealizedPnL,
			&pos.OpenedAt,
			&pos.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		pos.Market = market.String
		positions = append(positions, pos)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate positions: %w", err)
	}

	return positions, nil
}

// RecentTrades returns the newest trades up to limit.
func (p *PostgresStorage) RecentTrades(ctx context.Context, limit int) ([]types.Trade, error) {
	query := `
		SELECT id, asset_id, market, action, price, notional,
		       simulated, realized_pnl, reason, created_at
		FROM trades
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := p.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var trades []types.Trade
	for rows.Next() {
		var (
			trade  types.Trade
			market sql.NullString
			pnl    sql.NullFloat64
			reason sql.NullString
		)
		err = rows.Scan(
			&trade.ID,
			&trade.AssetID,
			&market,
			&trade.Action,
			&trade.Price,
			&trade.Notional,
			&trade.Simulated,
			&pnl,
			&reason,
			&trade.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trade.Market = market.String
		trade.Reason = reason.String
		if pnl.Valid {
			trade.RealizedPnL = types.Float64Ptr(pnl.Float64)
		}
		trades = append(trades, trade)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}

	return trades, nil
}

// PriceHistoryRange returns ticks for a market inside the inclusive
// time range, ascending by timestamp.
func (p *PostgresStorage) PriceHistoryRange(ctx context.Context, market string, since, until time.Time) ([]types.Tick, error) {
	query := `
		SELECT asset_id, market, price, size, side, best_bid, best_ask, timestamp
		FROM price_history
		WHERE market = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp ASC
	`

	rows, err := p.db.QueryContext(ctx, query, market, since, until)
	if err != nil {
		return nil, fmt.Errorf("query price history: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ticks []types.Tick
	for rows.Next() {
		var (
			tick           types.Tick
			mkt, side      sql.NullString
			price          sql.NullFloat64
			size, bid, ask sql.NullFloat64
		)
		err = rows.Scan(
			&tick.AssetID,
			&mkt,
			&price,
			&size,
			&side,
			&bid,
			&ask,
			&tick.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		tick.Market = mkt.String
		tick.Side = side.String
		tick.Price = price.Float64
		if size.Valid {
			tick.Size = types.Float64Ptr(size.Float64)
		}
		if bid.Valid {
			tick.BestBid = types.Float64Ptr(bid.Float64)
		}
		if ask.Valid {
			tick.BestAsk = types.Float64Ptr(ask.Float64)
		}
		ticks = append(ticks, tick)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate ticks: %w", err)
	}

	return ticks, nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
