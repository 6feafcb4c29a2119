package worker

import (
	"sort"
	"strings"
	"sync"

	"github.com/mtlprog/walletboard/internal/balance"
	"github.com/mtlprog/walletboard/internal/domain"
)

// Ledger keeps the latest balance of every tracked wallet.
type Ledger struct {
	currency domain.Currency

	mu       sync.RWMutex
	balances map[string]balance.WalletBalance
}

// NewLedger creates an empty ledger for the given currency.
func NewLedger(currency domain.Currency) *Ledger {
	return &Ledger{currency: currency, balances: make(map[string]balance.WalletBalance)}
}

// Set records a wallet's balance, replacing the previous one.
func (l *Ledger) Set(b balance.WalletBalance) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[strings.ToLower(b.Wallet)] = b
}

// Balances returns all recorded balances ordered by wallet.
func (l *Ledger) Balances() []balance.WalletBalance {
	l.mu.RLock()
	out := make([]balance.WalletBalance, 0, len(l.balances))
	for _, b := range l.balances {
		out = append(out, b)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Wallet < out[j].Wallet })
	return out
}

// Summary aggregates every recorded wallet.
func (l *Ledger) Summary() balance.WalletSummary {
	return balance.Summarize(l.Balances(), l.currency)
}
