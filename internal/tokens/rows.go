// Package tokens builds the grouped token list for a wallet and keeps it
// current as balances, filters and hidden flags change.
package tokens

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/mtlprog/walletboard/internal/chain"
	"github.com/mtlprog/walletboard/internal/domain"
)

// RowKind distinguishes server headers from token rows.
type RowKind string

const (
	RowServerHeader RowKind = "server"
	RowToken        RowKind = "token"
)

// Row is one line of the grouped list.
type Row struct {
	Kind       RowKind                `json:"kind"`
	Server     chain.Server           `json:"server"`
	ServerName string                 `json:"serverName,omitempty"`
	Token      *domain.TokenViewModel `json:"token,omitempty"`
}

// Key is stable across snapshots and unique within one.
func (r Row) Key() string {
	if r.Kind == RowServerHeader {
		return fmt.Sprintf("server:%d", r.Server)
	}
	return "token:" + r.Token.ID().Key()
}

// IsHeader reports whether the row is a server header.
func (r Row) IsHeader() bool {
	return r.Kind == RowServerHeader
}

func (r Row) sameContent(other Row) bool {
	if r.Kind != other.Kind || r.Server != other.Server || r.ServerName != other.ServerName {
		return false
	}
	if r.Token == nil || other.Token == nil {
		return r.Token == other.Token
	}
	return r.Token.Equal(*other.Token)
}

// ServerNamer resolves display names for servers. *chain.Catalog implements it.
type ServerNamer interface {
	Name(s chain.Server) string
}

// GroupByServer turns a sorted token list into contiguous server blocks.
// Servers appear in the order their first token appears; within a block the
// native token comes first and the rest keep their sorted order.
func GroupByServer(sorted []domain.TokenViewModel, names ServerNamer) []Row {
	serverOf := func(t domain.TokenViewModel, _ int) chain.Server {
		return chain.Server(t.Token.ID.ChainID)
	}
	order := lo.Uniq(lo.Map(sorted, serverOf))
	byServer := lo.GroupBy(sorted, func(t domain.TokenViewModel) chain.Server {
		return serverOf(t, 0)
	})

	rows := make([]Row, 0, len(sorted)+len(order))
	for _, s := range order {
		rows = append(rows, Row{Kind: RowServerHeader, Server: s, ServerName: names.Name(s)})
		for _, t := range pinNative(byServer[s]) {
			rows = append(rows, Row{Kind: RowToken, Server: s, Token: &t})
		}
	}
	return rows
}

func pinNative(block []domain.TokenViewModel) []domain.TokenViewModel {
	_, idx, ok := lo.FindIndexOf(block, func(t domain.TokenViewModel) bool {
		return t.Token.ID.IsNative()
	})
	if !ok || idx == 0 {
		return block
	}
	out := make([]domain.TokenViewModel, 0, len(block))
	out = append(out, block[idx])
	out = append(out, block[:idx]...)
	return append(out, block[idx+1:]...)
}
