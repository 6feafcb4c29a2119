package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXWriter implements SheetWriter by saving a local workbook.
type XLSXWriter struct {
	path string
}

// NewXLSXWriter creates a writer that overwrites path on every Write.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path}
}

// Write saves table to a single-sheet workbook.
func (w *XLSXWriter) Write(ctx context.Context, table [][]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", TokensSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}

	for i, row := range table {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(TokensSheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err := f.SetPanes(TokensSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving %s: %w", w.path, err)
	}
	return nil
}
