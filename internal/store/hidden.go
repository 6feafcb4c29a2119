package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/walletboard/internal/domain"
	"github.com/mtlprog/walletboard/internal/tokens"
)

var _ tokens.HiddenStore = (*PgHiddenStore)(nil)

// PgHiddenStore keeps per-wallet hidden token flags.
type PgHiddenStore struct {
	pool *pgxpool.Pool
}

// NewPgHiddenStore creates a new PostgreSQL hidden token store.
func NewPgHiddenStore(pool *pgxpool.Pool) *PgHiddenStore {
	return &PgHiddenStore{pool: pool}
}

// SetHidden records or clears the hidden flag. Clearing an absent flag is a no-op.
func (s *PgHiddenStore) SetHidden(ctx context.Context, wallet string, id domain.TokenID, hidden bool) error {
	wallet = normalizeWallet(wallet)
	if !hidden {
		_, err := s.pool.Exec(ctx,
			`DELETE FROM hidden_tokens WHERE wallet = $1 AND token_key = $2`,
			wallet, id.Key())
		if err != nil {
			return fmt.Errorf("unhiding %s for %s: %w", id.Key(), wallet, err)
		}
		return nil
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO hidden_tokens (wallet, token_key, chain_id, contract, hidden_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (wallet, token_key) DO UPDATE SET hidden_at = NOW()`,
		wallet, id.Key(), int64(id.ChainID), strings.ToLower(id.Contract.Hex()))
	if err != nil {
		return fmt.Errorf("hiding %s for %s: %w", id.Key(), wallet, err)
	}
	return nil
}

// Hidden returns the wallet's hidden token keys.
func (s *PgHiddenStore) Hidden(ctx context.Context, wallet string) (map[string]bool, error) {
	wallet = normalizeWallet(wallet)
	rows, err := s.pool.Query(ctx,
		`SELECT token_key FROM hidden_tokens WHERE wallet = $1`, wallet)
	if err != nil {
		return nil, fmt.Errorf("loading hidden tokens for %s: %w", wallet, err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning hidden tokens: %w", err)
	}

	hidden := make(map[string]bool, len(keys))
	for _, k := range keys {
		hidden[k] = true
	}
	return hidden, nil
}
