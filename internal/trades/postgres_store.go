package trades

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/spreadscreener/internal/contracts"
)

// Schema is applied by PostgresStore.Migrate. Spread snapshots are kept as
// JSONB, the columns are for listing and filtering.
var Schema = []string{
	`CREATE SCHEMA IF NOT EXISTS screener`,
	`CREATE TABLE IF NOT EXISTS screener.trades (
		id          TEXT PRIMARY KEY,
		ticker      TEXT NOT NULL,
		status      TEXT NOT NULL,
		quantity    INTEGER NOT NULL,
		credit      NUMERIC(14,2) NOT NULL,
		collateral  NUMERIC(14,2) NOT NULL,
		date_opened TIMESTAMPTZ NOT NULL,
		date_closed TIMESTAMPTZ,
		expiration  TIMESTAMPTZ NOT NULL,
		payload     JSONB NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS trades_status_idx ON screener.trades (status)`,
	`CREATE INDEX IF NOT EXISTS trades_ticker_idx ON screener.trades (ticker)`,
}

// Migrator runs DDL; *database.DB satisfies it
type Migrator interface {
	Migrate(ctx context.Context, statements ...string) error
}

// PostgresStore persists trades in PostgreSQL
// ⭐ SSOT: trade 저장/조회는 TradeStore 구현에서만
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store on pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ contracts.TradeStore = (*PostgresStore)(nil)

// Migrate creates the trades table if needed
func (s *PostgresStore) Migrate(ctx context.Context, m Migrator) error {
	if err := m.Migrate(ctx, Schema...); err != nil {
		return fmt.Errorf("failed to migrate trades schema: %w", err)
	}
	return nil
}

// Save inserts or replaces a trade
func (s *PostgresStore) Save(ctx context.Context, trade *contracts.CallCreditSpreadTrade) error {
	payload, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("failed to encode trade %s: %w", trade.ID, err)
	}

	query := `
		INSERT INTO screener.trades (
			id, ticker, status, quantity, credit, collateral,
			date_opened, date_closed, expiration, payload, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			date_closed = EXCLUDED.date_closed,
			payload = EXCLUDED.payload,
			updated_at = NOW()
	`

	_, err = s.pool.Exec(ctx, query,
		trade.ID, trade.Ticker(), string(trade.Status), trade.Quantity, trade.Credit, trade.Collateral,
		trade.DateOpened, trade.DateClosed, trade.SpreadAtOpen.Expiration, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save trade %s: %w", trade.ID, err)
	}
	return nil
}

// Get loads a trade by id
func (s *PostgresStore) Get(ctx context.Context, id string) (*contracts.CallCreditSpreadTrade, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM screener.trades WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("trade %s: %w", id, ErrTradeNotFound)
		}
		return nil, fmt.Errorf("failed to query trade %s: %w", id, err)
	}

	var trade contracts.CallCreditSpreadTrade
	if err := json.Unmarshal(payload, &trade); err != nil {
		return nil, fmt.Errorf("failed to decode trade %s: %w", id, err)
	}
	return &trade, nil
}

// List returns all trades, oldest first
func (s *PostgresStore) List(ctx context.Context) ([]contracts.CallCreditSpreadTrade, error) {
	rows, err := s.pool.Query(ctx, `SELECT payload FROM screener.trades ORDER BY date_opened ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := make([]contracts.CallCreditSpreadTrade, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		var trade contracts.CallCreditSpreadTrade
		if err := json.Unmarshal(payload, &trade); err != nil {
			return nil, fmt.Errorf("failed to decode trade: %w", err)
		}
		trades = append(trades, trade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trades: %w", err)
	}
	return trades, nil
}
