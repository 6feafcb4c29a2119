package export

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// SheetsWriter implements SheetWriter using the Google Sheets API.
type SheetsWriter struct {
	spreadsheetID string
	svc           *sheets.Service
}

// NewSheetsWriter creates a SheetsWriter authenticated with a service account JSON.
func NewSheetsWriter(ctx context.Context, spreadsheetID, credentialsJSON string) (*SheetsWriter, error) {
	creds, err := google.CredentialsFromJSON(
		ctx,
		[]byte(credentialsJSON),
		sheets.SpreadsheetsScope,
	)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &SheetsWriter{spreadsheetID: spreadsheetID, svc: svc}, nil
}

// Write ensures the tokens sheet exists, then clears and rewrites it.
func (w *SheetsWriter) Write(ctx context.Context, table [][]any) error {
	if err := w.ensureSheet(ctx, TokensSheet); err != nil {
		return err
	}

	_, err := w.svc.Spreadsheets.Values.Clear(
		w.spreadsheetID,
		TokensSheet+"!A:H",
		&sheets.ClearValuesRequest{},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clearing sheet: %w", err)
	}

	_, err = w.svc.Spreadsheets.Values.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateValuesRequest{
			ValueInputOption: "USER_ENTERED",
			Data: []*sheets.ValueRange{
				{Range: TokensSheet + "!A1", Values: table},
			},
		},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing sheet: %w", err)
	}

	return nil
}

// ensureSheet creates the named sheet if it does not already exist.
func (w *SheetsWriter) ensureSheet(ctx context.Context, name string) error {
	spreadsheet, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("getting spreadsheet metadata: %w", err)
	}

	for _, s := range spreadsheet.Sheets {
		if s.Properties.Title == name {
			return nil
		}
	}

	_, err = w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: name},
			},
		}}},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}

	return nil
}
