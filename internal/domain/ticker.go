package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Currency is a fiat display currency.
type Currency struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
}

var currencies = map[string]Currency{
	"USD": {Code: "USD", Symbol: "$"},
	"EUR": {Code: "EUR", Symbol: "€"},
	"GBP": {Code: "GBP", Symbol: "£"},
	"JPY": {Code: "JPY", Symbol: "¥"},
	"CNY": {Code: "CNY", Symbol: "¥"},
	"KRW": {Code: "KRW", Symbol: "₩"},
	"RUB": {Code: "RUB", Symbol: "₽"},
	"TRY": {Code: "TRY", Symbol: "₺"},
	"AUD": {Code: "AUD", Symbol: "A$"},
	"CAD": {Code: "CAD", Symbol: "CA$"},
	"SGD": {Code: "SGD", Symbol: "S$"},
	"NZD": {Code: "NZD", Symbol: "NZ$"},
	"TWD": {Code: "TWD", Symbol: "NT$"},
	"PLN": {Code: "PLN", Symbol: "zł"},
}

// USD is the default display currency.
var USD = currencies["USD"]

// ParseCurrency looks up a supported currency by ISO code.
func ParseCurrency(code string) (Currency, error) {
	c, ok := currencies[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Currency{}, fmt.Errorf("unsupported currency %q", code)
	}
	return c, nil
}

// APICode returns the lowercase code price APIs expect.
func (c Currency) APICode() string {
	return strings.ToLower(c.Code)
}

// CoinTicker is an externally sourced price snapshot. Fields are plain floats
// as delivered by the price API; non-finite values are treated as absent.
type CoinTicker struct {
	Price     float64   `json:"price"`
	Change24h float64   `json:"change24h"` // percent
	MarketCap float64   `json:"marketCap"`
	Currency  string    `json:"currency"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MarshalJSON writes non-finite fields as null; encoding/json rejects NaN.
func (t CoinTicker) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Price     *float64  `json:"price"`
		Change24h *float64  `json:"change24h"`
		MarketCap *float64  `json:"marketCap"`
		Currency  string    `json:"currency"`
		UpdatedAt time.Time `json:"updatedAt"`
	}{
		Price:     finitePtr(t.Price),
		Change24h: finitePtr(t.Change24h),
		MarketCap: finitePtr(t.MarketCap),
		Currency:  t.Currency,
		UpdatedAt: t.UpdatedAt,
	})
}

func finitePtr(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
