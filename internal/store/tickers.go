package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/walletboard/internal/domain"
	"github.com/mtlprog/walletboard/internal/ticker"
)

var _ ticker.Repository = (*PgTickerRepository)(nil)

// PgTickerRepository keeps the last known ticker per key.
type PgTickerRepository struct {
	pool *pgxpool.Pool
}

// NewPgTickerRepository creates a new PostgreSQL ticker repository.
func NewPgTickerRepository(pool *pgxpool.Pool) *PgTickerRepository {
	return &PgTickerRepository{pool: pool}
}

// SaveTickers upserts tickers in one batch. Tickers without a finite price are skipped.
func (r *PgTickerRepository) SaveTickers(ctx context.Context, tickers map[string]domain.CoinTicker) error {
	batch := &pgx.Batch{}
	for key, t := range tickers {
		price := nullable(t.Price)
		if price == nil {
			continue
		}
		updated := t.UpdatedAt
		if updated.IsZero() {
			updated = time.Now().UTC()
		}
		batch.Queue(
			`INSERT INTO ticker_quotes (key, price, change_24h, market_cap, currency, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (key) DO UPDATE SET
				price = $2, change_24h = $3, market_cap = $4, currency = $5, updated_at = $6`,
			key, *price, nullable(t.Change24h), nullable(t.MarketCap), t.Currency, updated)
	}
	if batch.Len() == 0 {
		return nil
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("saving %d tickers: %w", batch.Len(), err)
	}
	return nil
}

// LoadTickers returns stored tickers for the given keys. Unknown keys are absent.
func (r *PgTickerRepository) LoadTickers(ctx context.Context, keys []string) (map[string]domain.CoinTicker, error) {
	if len(keys) == 0 {
		return map[string]domain.CoinTicker{}, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT key, price, change_24h, market_cap, currency, updated_at
		 FROM ticker_quotes WHERE key = ANY($1)`, keys)
	if err != nil {
		return nil, fmt.Errorf("loading tickers: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.CoinTicker, len(keys))
	for rows.Next() {
		var (
			key               string
			t                 domain.CoinTicker
			change, marketCap *float64
		)
		if err := rows.Scan(&key, &t.Price, &change, &marketCap, &t.Currency, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning ticker: %w", err)
		}
		t.Change24h = orNaN(change)
		t.MarketCap = orNaN(marketCap)
		out[key] = t
	}
	return out, rows.Err()
}
