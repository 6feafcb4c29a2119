package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/walletboard/internal/balance"
	"github.com/mtlprog/walletboard/internal/domain"
)

type mockFetcher struct {
	callCount atomic.Int32
	tokens    map[string][]domain.TokenViewModel
	failing   map[string]bool
}

func (m *mockFetcher) Fetch(_ context.Context, wallet string) ([]domain.TokenViewModel, error) {
	m.callCount.Add(1)
	if m.failing[wallet] {
		return nil, errors.New("rpc unavailable")
	}
	return m.tokens[wallet], nil
}

type mockSink struct {
	mu     sync.Mutex
	tokens []domain.TokenViewModel
	calls  int
}

func (m *mockSink) SetTokens(_ context.Context, tokens []domain.TokenViewModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = tokens
	m.calls++
	return nil
}

type mockHistory struct {
	records []balance.WalletBalance
	err     error
}

func (m *mockHistory) Record(_ context.Context, b balance.WalletBalance, _ time.Time) error {
	m.records = append(m.records, b)
	return m.err
}

func priced(chainID uint64, balance string, price float64) domain.TokenViewModel {
	return domain.TokenViewModel{
		Token:   domain.Token{ID: domain.NativeTokenID(chainID), Type: domain.TokenTypeNative, Symbol: "ETH"},
		Balance: decimal.RequireFromString(balance),
		Ticker:  &domain.CoinTicker{Price: price, Change24h: 0, Currency: "USD"},
	}
}

func TestRefresh(t *testing.T) {
	fetcher := &mockFetcher{tokens: map[string][]domain.TokenViewModel{
		"0xaaa": {priced(1, "1", 2000)},
		"0xbbb": {priced(1, "0.5", 2000), priced(10, "0.25", 2000)},
	}}
	sink := &mockSink{}
	ledger := NewLedger(domain.USD)
	w := NewRefreshWorker(fetcher, sink, ledger, domain.USD, []string{"0xaaa", "0xbbb"}, time.Minute, nil)

	if err := w.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sink.calls != 1 || len(sink.tokens) != 1 {
		t.Errorf("sink got %d calls with %d tokens, want the first wallet only", sink.calls, len(sink.tokens))
	}

	balances := ledger.Balances()
	if len(balances) != 2 || balances[0].Wallet != "0xaaa" || balances[1].Wallet != "0xbbb" {
		t.Fatalf("balances = %+v", balances)
	}
	if got := balances[1].TotalAmountString(); got != "$1,500.00" {
		t.Errorf("0xbbb total = %q, want $1,500.00", got)
	}

	summary := ledger.Summary()
	if summary.Wallets != 2 || summary.TotalAmountString() != "$3,500.00" {
		t.Errorf("summary = %d wallets, %s", summary.Wallets, summary.TotalAmountString())
	}
}

func TestRefreshKeepsPreviousTotalsOnFailure(t *testing.T) {
	fetcher := &mockFetcher{tokens: map[string][]domain.TokenViewModel{
		"0xaaa": {priced(1, "1", 2000)},
	}}
	ledger := NewLedger(domain.USD)
	w := NewRefreshWorker(fetcher, &mockSink{}, ledger, domain.USD, []string{"0xaaa"}, time.Minute, nil)

	if err := w.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fetcher.failing = map[string]bool{"0xaaa": true}
	if err := w.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if got := ledger.Balances()[0].TotalAmountString(); got != "$2,000.00" {
		t.Errorf("total = %q, want previous $2,000.00", got)
	}
}

func TestRefreshWorkerRunsAndShutdown(t *testing.T) {
	fetcher := &mockFetcher{}
	w := NewRefreshWorker(fetcher, &mockSink{}, NewLedger(domain.USD), domain.USD, []string{"0xaaa"}, 50*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	// Should have run at least the initial refresh + some ticks
	if got := fetcher.callCount.Load(); got < 2 {
		t.Errorf("call count = %d, want >= 2", got)
	}
}

func TestRefreshRecordsHistory(t *testing.T) {
	fetcher := &mockFetcher{
		tokens:  map[string][]domain.TokenViewModel{"0xaaa": {priced(1, "2", 1000)}},
		failing: map[string]bool{"0xbbb": true},
	}
	history := &mockHistory{}
	w := NewRefreshWorker(fetcher, &mockSink{}, NewLedger(domain.USD), domain.USD, []string{"0xaaa", "0xbbb"}, time.Minute, nil).
		WithHistory(history)

	if err := w.Refresh(context.Background()); err == nil {
		t.Fatal("expected error for failing wallet")
	}
	if len(history.records) != 1 || history.records[0].Wallet != "0xaaa" {
		t.Fatalf("records = %+v, want only 0xaaa", history.records)
	}
	if got := history.records[0].TotalAmountString(); got != "$2,000.00" {
		t.Errorf("recorded total = %q, want $2,000.00", got)
	}

	history.err = errors.New("db down")
	fetcher.failing = nil
	if err := w.Refresh(context.Background()); err != nil {
		t.Errorf("history failure surfaced from Refresh: %v", err)
	}
}
