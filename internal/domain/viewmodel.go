package domain

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// TokenViewModel is a read-only projection of a token with its current
// balance and optional ticker. It is rebuilt on every refresh, never mutated.
type TokenViewModel struct {
	Token   Token           `json:"token"`
	Balance decimal.Decimal `json:"balance"`
	Ticker  *CoinTicker     `json:"ticker,omitempty"`
}

// NewTokenViewModel scales a raw on-chain balance by the token's decimals.
func NewTokenViewModel(token Token, raw *big.Int, ticker *CoinTicker) TokenViewModel {
	return TokenViewModel{
		Token:   token,
		Balance: ScaleRaw(raw, token.Decimals),
		Ticker:  ticker,
	}
}

// ID returns the token identity.
func (vm TokenViewModel) ID() TokenID {
	return vm.Token.ID
}

// Price returns the ticker price, or false if there is no usable price.
func (vm TokenViewModel) Price() (decimal.Decimal, bool) {
	if vm.Ticker == nil {
		return decimal.Zero, false
	}
	return FromFinite(vm.Ticker.Price)
}

// FiatValue returns balance × price, or false if the token has no price.
func (vm TokenViewModel) FiatValue() (decimal.Decimal, bool) {
	price, ok := vm.Price()
	if !ok {
		return decimal.Zero, false
	}
	return vm.Balance.Mul(price), true
}

// ValueChange24h returns the fiat value change over the last 24h, or false if
// either the price or the percentage change is unavailable.
func (vm TokenViewModel) ValueChange24h() (decimal.Decimal, bool) {
	value, ok := vm.FiatValue()
	if !ok {
		return decimal.Zero, false
	}
	pct, ok := FromFinite(vm.Ticker.Change24h)
	if !ok {
		return decimal.Zero, false
	}
	return PercentOf(value, pct), true
}

// HasBalance reports whether the balance is non-zero.
func (vm TokenViewModel) HasBalance() bool {
	return !vm.Balance.IsZero()
}

// Equal reports whether two view models would render identically.
func (vm TokenViewModel) Equal(other TokenViewModel) bool {
	if vm.Token != other.Token || !vm.Balance.Equal(other.Balance) {
		return false
	}
	switch {
	case vm.Ticker == nil && other.Ticker == nil:
		return true
	case vm.Ticker == nil || other.Ticker == nil:
		return false
	default:
		a, b := *vm.Ticker, *other.Ticker
		return sameFloat(a.Price, b.Price) && sameFloat(a.Change24h, b.Change24h) &&
			sameFloat(a.MarketCap, b.MarketCap) && a.Currency == b.Currency
	}
}

func sameFloat(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}
