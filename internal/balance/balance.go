// Package balance computes fiat totals and 24h change for a set of tokens.
// Unknown values are nil, never NaN.
package balance

import (
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/walletboard/internal/domain"
)

// WalletBalance is the valuation of one wallet's token set.
type WalletBalance struct {
	Wallet           string           `json:"wallet,omitempty"`
	Currency         domain.Currency  `json:"currency"`
	TotalAmount      *decimal.Decimal `json:"totalAmount"`
	Change           *decimal.Decimal `json:"change"`
	ChangePercentage *decimal.Decimal `json:"changePercentage"`
}

type totals struct {
	amount *decimal.Decimal
	change *decimal.Decimal
}

// Compute values tokens in the given currency. Tokens without a finite price,
// or priced in another currency, are skipped.
func Compute(tokens []domain.TokenViewModel, currency domain.Currency) WalletBalance {
	t := lo.Reduce(tokens, func(acc totals, vm domain.TokenViewModel, _ int) totals {
		if !pricedIn(vm, currency) {
			return acc
		}
		value, ok := vm.FiatValue()
		if !ok {
			return acc
		}
		acc.amount = domain.AddOptional(acc.amount, &value)
		if change, ok := vm.ValueChange24h(); ok {
			acc.change = domain.AddOptional(acc.change, &change)
		}
		return acc
	}, totals{})

	return WalletBalance{
		Currency:         currency,
		TotalAmount:      t.amount,
		Change:           t.change,
		ChangePercentage: percentage(t.change, t.amount),
	}
}

func pricedIn(vm domain.TokenViewModel, currency domain.Currency) bool {
	if vm.Ticker == nil {
		return false
	}
	return vm.Ticker.Currency == "" || strings.EqualFold(vm.Ticker.Currency, currency.Code)
}

// percentage is change relative to the current total. Nil when either side is
// unknown or the total is zero.
func percentage(change, total *decimal.Decimal) *decimal.Decimal {
	if change == nil || total == nil {
		return nil
	}
	p, ok := domain.Percent(*change, *total)
	if !ok {
		return nil
	}
	return &p
}

// TotalAmountString renders the total, or "--" when unknown.
func (b WalletBalance) TotalAmountString() string {
	return formatAmount(b.Currency, b.TotalAmount, "--")
}

// ChangeString renders the signed 24h change, or "-" when unknown.
func (b WalletBalance) ChangeString() string {
	return formatChange(b.Currency, b.Change)
}

// ChangePercentageString renders the signed 24h percentage, or "-" when unknown.
func (b WalletBalance) ChangePercentageString() string {
	return formatPercent(b.ChangePercentage)
}
