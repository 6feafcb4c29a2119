package filter

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/walletboard/internal/domain"
)

// sortKey caches the comparison inputs so the comparator stays cheap.
type sortKey struct {
	valued bool
	value  decimal.Decimal
	symbol string
}

func keyOf(t domain.TokenViewModel) sortKey {
	v, ok := t.FiatValue()
	return sortKey{
		valued: ok && v.IsPositive(),
		value:  v,
		symbol: strings.ToLower(t.Token.Symbol),
	}
}

func less(a, b sortKey) bool {
	if a.valued != b.valued {
		return a.valued
	}
	if a.valued {
		if c := a.value.Cmp(b.value); c != 0 {
			return c > 0
		}
	}
	return a.symbol < b.symbol
}

// SortDisplayedTokens returns a sorted copy: tokens with a positive fiat value
// first by descending value, then the rest by symbol. Tokens with equal keys
// keep their input order. The input slice is left untouched.
func SortDisplayedTokens(tokens []domain.TokenViewModel) []domain.TokenViewModel {
	type entry struct {
		token domain.TokenViewModel
		key   sortKey
	}
	entries := make([]entry, len(tokens))
	for i, t := range tokens {
		entries[i] = entry{token: t, key: keyOf(t)}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return less(entries[i].key, entries[j].key)
	})

	out := make([]domain.TokenViewModel, len(entries))
	for i, e := range entries {
		out[i] = e.token
	}
	return out
}
