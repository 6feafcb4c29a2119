package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/walletboard/internal/chain"
)

var _ chain.CustomStore = (*PgCustomServerStore)(nil)

// PgCustomServerStore keeps user-defined RPC servers.
type PgCustomServerStore struct {
	pool *pgxpool.Pool
}

// NewPgCustomServerStore creates a new PostgreSQL custom server store.
func NewPgCustomServerStore(pool *pgxpool.Pool) *PgCustomServerStore {
	return &PgCustomServerStore{pool: pool}
}

const serverColumns = `chain_id, name, symbol, decimals, rpc_url, explorer_url,
	explorer_api_url, coingecko_platform, coingecko_coin, is_testnet`

func (s *PgCustomServerStore) ListCustomServers(ctx context.Context) ([]chain.Metadata, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+serverColumns+` FROM custom_servers ORDER BY chain_id`)
	if err != nil {
		return nil, fmt.Errorf("listing custom servers: %w", err)
	}
	servers, err := pgx.CollectRows(rows, scanServer)
	if err != nil {
		return nil, fmt.Errorf("scanning custom server: %w", err)
	}
	return servers, nil
}

func scanServer(row pgx.CollectableRow) (chain.Metadata, error) {
	var (
		m        chain.Metadata
		chainID  int64
		decimals int16
	)
	err := row.Scan(&chainID, &m.Name, &m.Symbol, &decimals, &m.RPCURL, &m.ExplorerURL,
		&m.ExplorerAPIURL, &m.CoinGeckoPlatform, &m.CoinGeckoCoin, &m.IsTestnet)
	if err != nil {
		return chain.Metadata{}, err
	}
	m.ChainID = uint64(chainID)
	m.Decimals = uint8(decimals)
	m.IsCustom = true
	return m, nil
}

// SaveCustomServer inserts or replaces a custom server.
func (s *PgCustomServerStore) SaveCustomServer(ctx context.Context, m chain.Metadata) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO custom_servers (`+serverColumns+`, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		 ON CONFLICT (chain_id) DO UPDATE SET
			name = $2, symbol = $3, decimals = $4, rpc_url = $5, explorer_url = $6,
			explorer_api_url = $7, coingecko_platform = $8, coingecko_coin = $9,
			is_testnet = $10, updated_at = NOW()`,
		int64(m.ChainID), m.Name, m.Symbol, int16(m.Decimals), m.RPCURL, m.ExplorerURL,
		m.ExplorerAPIURL, m.CoinGeckoPlatform, m.CoinGeckoCoin, m.IsTestnet)
	if err != nil {
		return fmt.Errorf("saving custom server %d: %w", m.ChainID, err)
	}
	return nil
}

// DeleteCustomServer removes a custom server, returning ErrNotFound if absent.
func (s *PgCustomServerStore) DeleteCustomServer(ctx context.Context, chainID uint64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM custom_servers WHERE chain_id = $1`, int64(chainID))
	if err != nil {
		return fmt.Errorf("deleting custom server %d: %w", chainID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("custom server %d: %w", chainID, ErrNotFound)
	}
	return nil
}
