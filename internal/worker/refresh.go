package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtlprog/walletboard/internal/balance"
	"github.com/mtlprog/walletboard/internal/domain"
	"github.com/mtlprog/walletboard/internal/metrics"
)

// TokenFetcher loads a wallet's current tokens.
type TokenFetcher interface {
	Fetch(ctx context.Context, wallet string) ([]domain.TokenViewModel, error)
}

// TokenSink receives the displayed wallet's tokens.
type TokenSink interface {
	SetTokens(ctx context.Context, tokens []domain.TokenViewModel) error
}

// HistoryRecorder stores a daily record of wallet balances.
type HistoryRecorder interface {
	Record(ctx context.Context, b balance.WalletBalance, at time.Time) error
}

// RefreshWorker periodically refreshes balances for all wallets. The first
// wallet's tokens go to the sink; every wallet's totals go to the ledger.
type RefreshWorker struct {
	fetcher  TokenFetcher
	sink     TokenSink
	ledger   *Ledger
	currency domain.Currency
	wallets  []string
	interval time.Duration
	metrics  *metrics.Metrics
	history  HistoryRecorder
}

// NewRefreshWorker creates a new RefreshWorker. m may be nil.
func NewRefreshWorker(fetcher TokenFetcher, sink TokenSink, ledger *Ledger, currency domain.Currency, wallets []string, interval time.Duration, m *metrics.Metrics) *RefreshWorker {
	if fetcher == nil || sink == nil || ledger == nil {
		panic("worker.NewRefreshWorker: nil dependency")
	}
	return &RefreshWorker{
		fetcher:  fetcher,
		sink:     sink,
		ledger:   ledger,
		currency: currency,
		wallets:  wallets,
		interval: interval,
		metrics:  m,
	}
}

// WithHistory records every refreshed balance. History failures are logged,
// never returned from Refresh.
func (w *RefreshWorker) WithHistory(h HistoryRecorder) *RefreshWorker {
	w.history = h
	return w
}

// Refresh runs one refresh cycle. Wallets that fail are logged and keep their
// previous totals; the joined error reports all failures.
func (w *RefreshWorker) Refresh(ctx context.Context) (err error) {
	defer func(start time.Time) { w.metrics.ObserveRefresh(start, err) }(time.Now())

	var errs []error
	for i, wallet := range w.wallets {
		tokens, err := w.fetcher.Fetch(ctx, wallet)
		if err != nil {
			errs = append(errs, fmt.Errorf("fetching %s: %w", wallet, err))
			continue
		}

		b := balance.Compute(tokens, w.currency)
		b.Wallet = wallet
		w.ledger.Set(b)
		if w.history != nil {
			if err := w.history.Record(ctx, b, time.Now()); err != nil {
				slog.Warn("RefreshWorker: recording history failed", "wallet", wallet, "error", err)
			}
		}

		if i == 0 {
			if err := w.sink.SetTokens(ctx, tokens); err != nil {
				errs = append(errs, fmt.Errorf("publishing tokens for %s: %w", wallet, err))
			}
		}
		slog.Debug("RefreshWorker: wallet refreshed", "wallet", wallet, "tokens", len(tokens), "total", b.TotalAmountString())
	}
	return errors.Join(errs...)
}

// Run starts the refresh loop. It blocks until the context is cancelled.
func (w *RefreshWorker) Run(ctx context.Context) {
	slog.Info("RefreshWorker: starting", "wallets", len(w.wallets), "interval", w.interval)

	if err := w.Refresh(ctx); err != nil {
		slog.Error("RefreshWorker: initial refresh failed", "error", err)
	} else {
		slog.Info("RefreshWorker: initial refresh completed")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("RefreshWorker: shutting down")
			return
		case <-ticker.C:
			if err := w.Refresh(ctx); err != nil {
				slog.Error("RefreshWorker: refresh failed", "error", err)
			}
		}
	}
}
