// Package export writes the displayed token list to spreadsheets.
package export

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/walletboard/internal/tokens"
)

// TokensSheet is the sheet name both writers use.
const TokensSheet = "TOKENS"

// SheetWriter writes a table of cell values to a spreadsheet destination.
type SheetWriter interface {
	Write(ctx context.Context, table [][]any) error
}

// Service turns snapshots into tables and hands them to a SheetWriter.
type Service struct {
	writer SheetWriter
}

// NewService creates a new export Service.
func NewService(writer SheetWriter) *Service {
	if writer == nil {
		panic("export.NewService: writer must not be nil")
	}
	return &Service{writer: writer}
}

// Export writes the snapshot. Implements worker.Exporter.
func (s *Service) Export(ctx context.Context, snap tokens.Snapshot) error {
	if err := s.writer.Write(ctx, BuildTable(snap)); err != nil {
		return fmt.Errorf("writing %s sheet: %w", TokensSheet, err)
	}
	return nil
}

// BuildTable lays out a snapshot as rows of cells.
// Columns: Server | Symbol | Name | Type | Balance | Price | Value | 24h
// Server headers get their own row; the wallet totals follow after a blank row.
func BuildTable(snap tokens.Snapshot) [][]any {
	code := snap.Summary.Currency.Code
	data := make([][]any, 0, len(snap.Rows)+5)
	data = append(data, []any{
		"Server", "Symbol", "Name", "Type", "Balance",
		"Price (" + code + ")", "Value (" + code + ")", "24h (" + code + ")",
	})

	for _, row := range snap.Rows {
		if row.IsHeader() {
			data = append(data, []any{row.ServerName})
			continue
		}
		vm := *row.Token
		price, hasPrice := vm.Price()
		value, hasValue := vm.FiatValue()
		change, hasChange := vm.ValueChange24h()
		data = append(data, []any{
			"",
			vm.Token.Symbol,
			vm.Token.Name,
			string(vm.Token.Type),
			toFloat(vm.Balance),
			optFloat(price, hasPrice),
			optFloat(value, hasValue),
			optFloat(change, hasChange),
		})
	}

	data = append(data,
		[]any{},
		[]any{"Total", snap.Summary.TotalAmountString()},
		[]any{"24h change", snap.Summary.ChangeString()},
		[]any{"24h change %", snap.Summary.ChangePercentageString()},
	)
	return data
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func optFloat(d decimal.Decimal, ok bool) any {
	if !ok {
		return nil
	}
	return toFloat(d)
}
