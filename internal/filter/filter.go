// Package filter selects and orders the tokens shown in the wallet list.
package filter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/mtlprog/walletboard/internal/domain"
)

// Kind names a wallet filter mode.
type Kind string

const (
	KindAll              Kind = "all"
	KindAssets           Kind = "assets"
	KindCollectiblesOnly Kind = "collectiblesOnly"
	KindDefi             Kind = "defi"
	KindGovernance       Kind = "governance"
	KindKeyword          Kind = "keyword"
	KindCustom           Kind = "custom"
)

// Predicate decides whether a token passes a custom filter.
type Predicate func(domain.TokenViewModel) bool

// WalletFilter is the active display mode. The zero value is All.
type WalletFilter struct {
	kind      Kind
	keyword   string
	predicate Predicate
}

var (
	All              = WalletFilter{kind: KindAll}
	Assets           = WalletFilter{kind: KindAssets}
	CollectiblesOnly = WalletFilter{kind: KindCollectiblesOnly}
	Defi             = WalletFilter{kind: KindDefi}
	Governance       = WalletFilter{kind: KindGovernance}
)

// Keyword filters by case-insensitive substring of name or symbol.
func Keyword(text string) WalletFilter {
	return WalletFilter{kind: KindKeyword, keyword: text}
}

// Custom filters by an arbitrary predicate. A nil predicate passes everything.
func Custom(p Predicate) WalletFilter {
	return WalletFilter{kind: KindCustom, predicate: p}
}

// Kind returns the filter mode.
func (f WalletFilter) Kind() Kind {
	if f.kind == "" {
		return KindAll
	}
	return f.kind
}

// KeywordText returns the search text of a keyword filter.
func (f WalletFilter) KeywordText() string {
	return f.keyword
}

func (f WalletFilter) String() string {
	if f.Kind() == KindKeyword {
		return fmt.Sprintf("keyword(%q)", f.keyword)
	}
	return string(f.Kind())
}

// ParseWalletFilter builds a filter from its transport name. Custom filters
// carry code and cannot be parsed.
func ParseWalletFilter(name, keyword string) (WalletFilter, error) {
	switch Kind(strings.TrimSpace(name)) {
	case "", KindAll:
		return All, nil
	case KindAssets:
		return Assets, nil
	case KindCollectiblesOnly:
		return CollectiblesOnly, nil
	case KindDefi:
		return Defi, nil
	case KindGovernance:
		return Governance, nil
	case KindKeyword:
		return Keyword(keyword), nil
	default:
		return WalletFilter{}, fmt.Errorf("unknown wallet filter %q", name)
	}
}

// Match reports whether a single token passes the filter.
func (f WalletFilter) Match(t domain.TokenViewModel) bool {
	switch f.Kind() {
	case KindAssets:
		return t.Token.Type.IsFungible()
	case KindCollectiblesOnly:
		return !t.Token.Type.IsFungible() && t.HasBalance()
	case KindDefi:
		return t.Token.EffectiveGroup() == domain.TokenGroupDefi
	case KindGovernance:
		return t.Token.EffectiveGroup() == domain.TokenGroupGovernance
	case KindKeyword:
		return matchKeyword(t.Token, f.keyword)
	case KindCustom:
		return f.predicate == nil || f.predicate(t)
	default:
		return true
	}
}

func matchKeyword(t domain.Token, keyword string) bool {
	needle := strings.ToLower(strings.TrimSpace(keyword))
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Name), needle) ||
		strings.Contains(strings.ToLower(t.Symbol), needle)
}

// FilterTokens returns the tokens matching f in their input order.
// The result never aliases the input.
func FilterTokens(tokens []domain.TokenViewModel, f WalletFilter) []domain.TokenViewModel {
	return lo.Filter(tokens, func(t domain.TokenViewModel, _ int) bool {
		return f.Match(t)
	})
}

// MarshalJSON encodes the filter as {"kind":..., "keyword":...}.
func (f WalletFilter) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    Kind   `json:"kind"`
		Keyword string `json:"keyword,omitempty"`
	}{f.Kind(), f.keyword})
}
