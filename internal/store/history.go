package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/walletboard/internal/balance"
	"github.com/mtlprog/walletboard/internal/domain"
)

const defaultHistoryLimit = 30

// PgBalanceHistory keeps one balance per wallet, day and currency.
type PgBalanceHistory struct {
	pool *pgxpool.Pool
}

// NewPgBalanceHistory creates a new PostgreSQL balance history store.
func NewPgBalanceHistory(pool *pgxpool.Pool) *PgBalanceHistory {
	return &PgBalanceHistory{pool: pool}
}

// Record stores b as the balance for the day containing at, replacing any
// earlier record for that day.
func (h *PgBalanceHistory) Record(ctx context.Context, b balance.WalletBalance, at time.Time) error {
	_, err := h.pool.Exec(ctx,
		`INSERT INTO balance_history (wallet, day, currency, total_amount, change, change_percentage, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())
		 ON CONFLICT (wallet, day, currency)
		 DO UPDATE SET total_amount = $4, change = $5, change_percentage = $6, updated_at = NOW()`,
		normalizeWallet(b.Wallet), balance.Day(at), b.Currency.Code,
		nullDecimal(b.TotalAmount), nullDecimal(b.Change), nullDecimal(b.ChangePercentage))
	if err != nil {
		return fmt.Errorf("recording balance for %s: %w", b.Wallet, err)
	}
	return nil
}

// History returns the most recent daily balances, newest first.
func (h *PgBalanceHistory) History(ctx context.Context, wallet string, limit int) ([]balance.DailyBalance, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	rows, err := h.pool.Query(ctx,
		`SELECT wallet, day, currency, total_amount, change, change_percentage
		 FROM balance_history
		 WHERE wallet = $1
		 ORDER BY day DESC, currency
		 LIMIT $2`, normalizeWallet(wallet), limit)
	if err != nil {
		return nil, fmt.Errorf("listing balance history: %w", err)
	}
	history, err := pgx.CollectRows(rows, scanDailyBalance)
	if err != nil {
		return nil, fmt.Errorf("scanning balance history: %w", err)
	}
	return history, nil
}

func scanDailyBalance(row pgx.CollectableRow) (balance.DailyBalance, error) {
	var (
		d                     balance.DailyBalance
		code                  string
		total, change, chgPct decimal.NullDecimal
	)
	if err := row.Scan(&d.Wallet, &d.Day, &code, &total, &change, &chgPct); err != nil {
		return balance.DailyBalance{}, err
	}
	d.Currency = currencyOf(code)
	d.TotalAmount = fromNull(total)
	d.Change = fromNull(change)
	d.ChangePercentage = fromNull(chgPct)
	return d, nil
}

func currencyOf(code string) domain.Currency {
	c, err := domain.ParseCurrency(code)
	if err != nil {
		return domain.Currency{Code: code}
	}
	return c
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func fromNull(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	return &n.Decimal
}
