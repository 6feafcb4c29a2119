package balance

import (
	"log/slog"
	"strings"

	"github.com/mtlprog/walletboard/internal/domain"
)

// WalletSummary is the sum of several wallets' balances.
type WalletSummary struct {
	Wallets int `json:"wallets"`
	WalletBalance
}

// Summarize adds up per-wallet balances in the given currency. Balances in a
// different currency are left out. The percentage is recomputed from the
// summed totals rather than averaged.
func Summarize(balances []WalletBalance, currency domain.Currency) WalletSummary {
	s := WalletSummary{WalletBalance: WalletBalance{Currency: currency}}
	for _, b := range balances {
		if !strings.EqualFold(b.Currency.Code, currency.Code) {
			slog.Warn("skipping wallet balance in foreign currency",
				"wallet", b.Wallet, "currency", b.Currency.Code, "want", currency.Code)
			continue
		}
		s.Wallets++
		s.TotalAmount = domain.AddOptional(s.TotalAmount, b.TotalAmount)
		s.Change = domain.AddOptional(s.Change, b.Change)
	}
	s.ChangePercentage = percentage(s.Change, s.TotalAmount)
	return s
}
