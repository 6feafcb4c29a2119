// Package store persists hidden tokens, custom RPC servers, the last known
// price tickers and daily wallet balances in PostgreSQL.
package store

import (
	"errors"
	"math"
	"strings"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("not found")

func normalizeWallet(wallet string) string {
	return strings.ToLower(strings.TrimSpace(wallet))
}

// nullable maps non-finite floats to SQL NULL.
func nullable(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func orNaN(f *float64) float64 {
	if f == nil {
		return math.NaN()
	}
	return *f
}
