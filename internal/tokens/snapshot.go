package tokens

import (
	"github.com/samber/lo"

	"github.com/mtlprog/walletboard/internal/balance"
	"github.com/mtlprog/walletboard/internal/domain"
	"github.com/mtlprog/walletboard/internal/filter"
)

// Snapshot is the complete displayed state at one point in time.
type Snapshot struct {
	Seq          uint64                `json:"seq"`
	Filter       filter.WalletFilter   `json:"filter"`
	SessionCount int                   `json:"sessionCount"`
	Rows         []Row                 `json:"rows"`
	Summary      balance.WalletBalance `json:"summary"`
}

// Tokens returns the token rows' view models in display order.
func (s Snapshot) Tokens() []domain.TokenViewModel {
	return lo.FilterMap(s.Rows, func(r Row, _ int) (domain.TokenViewModel, bool) {
		if r.Token == nil {
			return domain.TokenViewModel{}, false
		}
		return *r.Token, true
	})
}

// IndexOf returns the row index of a token, or -1.
func (s Snapshot) IndexOf(id domain.TokenID) int {
	key := "token:" + id.Key()
	_, idx, ok := lo.FindIndexOf(s.Rows, func(r Row) bool { return r.Key() == key })
	if !ok {
		return -1
	}
	return idx
}

// BuildInput is everything a snapshot is derived from.
type BuildInput struct {
	Tokens       []domain.TokenViewModel
	Filter       filter.WalletFilter
	Hidden       map[string]bool
	Currency     domain.Currency
	SessionCount int
}

// Build filters, sorts and groups tokens from scratch. Hidden tokens never
// reach the filter. The summary covers exactly the displayed tokens.
func Build(in BuildInput, names ServerNamer) Snapshot {
	visible := lo.Reject(in.Tokens, func(t domain.TokenViewModel, _ int) bool {
		return in.Hidden[t.ID().Key()]
	})
	displayed := filter.SortDisplayedTokens(filter.FilterTokens(visible, in.Filter))

	return Snapshot{
		Filter:       in.Filter,
		SessionCount: in.SessionCount,
		Rows:         GroupByServer(displayed, names),
		Summary:      balance.Compute(displayed, in.Currency),
	}
}
