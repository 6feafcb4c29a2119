package tokens

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/samber/lo"

	"github.com/mtlprog/walletboard/internal/domain"
	"github.com/mtlprog/walletboard/internal/filter"
)

// ErrTokenNotFound indicates the token is not part of the wallet's token set.
var ErrTokenNotFound = errors.New("token not found")

// Update is emitted after every recompute.
type Update struct {
	Snapshot Snapshot `json:"snapshot"`
	Changes  Changes  `json:"changes"`
}

// Model holds one wallet's list state. Every mutation rebuilds the snapshot
// from scratch and diffs it against the previous one. Not safe for
// concurrent use; Pipeline serializes access.
type Model struct {
	names    ServerNamer
	currency domain.Currency

	tokens   []domain.TokenViewModel
	filter   filter.WalletFilter
	search   string
	hidden   map[string]bool
	sessions int

	seq  uint64
	last Snapshot
}

// NewModel creates an empty model.
func NewModel(names ServerNamer, currency domain.Currency) *Model {
	if names == nil {
		panic("tokens.NewModel: names is nil")
	}
	m := &Model{
		names:    names,
		currency: currency,
		filter:   filter.All,
		hidden:   make(map[string]bool),
	}
	m.last = m.build()
	return m
}

// Snapshot returns the last built snapshot.
func (m *Model) Snapshot() Snapshot {
	return m.last
}

// ActiveFilter is the search keyword while search text is set, the selected
// filter otherwise.
func (m *Model) ActiveFilter() filter.WalletFilter {
	if strings.TrimSpace(m.search) != "" {
		return filter.Keyword(m.search)
	}
	return m.filter
}

// SetTokens replaces the token set.
func (m *Model) SetTokens(tokens []domain.TokenViewModel) Update {
	m.tokens = append([]domain.TokenViewModel(nil), tokens...)
	return m.recompute()
}

// SetFilter selects the wallet filter.
func (m *Model) SetFilter(f filter.WalletFilter) Update {
	m.filter = f
	return m.recompute()
}

// SetSearchText sets or clears the search box text.
func (m *Model) SetSearchText(text string) Update {
	m.search = text
	return m.recompute()
}

// SetSessionCount records the number of connected wallet sessions.
func (m *Model) SetSessionCount(n int) Update {
	m.sessions = n
	return m.recompute()
}

// SetHiddenSet replaces the hidden flags, keyed by TokenID.Key.
func (m *Model) SetHiddenSet(hidden map[string]bool) Update {
	m.hidden = maps.Clone(hidden)
	if m.hidden == nil {
		m.hidden = make(map[string]bool)
	}
	return m.recompute()
}

// Refresh rebuilds without changing inputs, e.g. after server names change.
func (m *Model) Refresh() Update {
	return m.recompute()
}

// Has reports whether the token belongs to the current token set.
func (m *Model) Has(id domain.TokenID) bool {
	return lo.ContainsBy(m.tokens, func(t domain.TokenViewModel) bool {
		return t.ID() == id
	})
}

// Hide marks a token hidden. The returned paths index the rows displayed
// before the call and are empty if the token was not displayed.
func (m *Model) Hide(id domain.TokenID) ([]int, Update, error) {
	if !m.Has(id) {
		return nil, Update{}, fmt.Errorf("hiding %s: %w", id.Key(), ErrTokenNotFound)
	}
	paths := DeletionIndexPaths(m.last.Rows, m.last.IndexOf(id))
	m.hidden[id.Key()] = true
	return paths, m.recompute(), nil
}

// Unhide clears a token's hidden flag.
func (m *Model) Unhide(id domain.TokenID) (Update, error) {
	if !m.Has(id) {
		return Update{}, fmt.Errorf("unhiding %s: %w", id.Key(), ErrTokenNotFound)
	}
	delete(m.hidden, id.Key())
	return m.recompute(), nil
}

// IsHidden reports the token's hidden flag.
func (m *Model) IsHidden(id domain.TokenID) bool {
	return m.hidden[id.Key()]
}

func (m *Model) build() Snapshot {
	s := Build(BuildInput{
		Tokens:       m.tokens,
		Filter:       m.ActiveFilter(),
		Hidden:       m.hidden,
		Currency:     m.currency,
		SessionCount: m.sessions,
	}, m.names)
	s.Seq = m.seq
	return s
}

func (m *Model) recompute() Update {
	prev := m.last
	m.seq++
	m.last = m.build()
	return Update{Snapshot: m.last, Changes: Diff(prev.Rows, m.last.Rows)}
}
