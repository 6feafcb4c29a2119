package main

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/walletboard/internal/chain"
	"github.com/mtlprog/walletboard/internal/domain"
	"github.com/mtlprog/walletboard/internal/tokens"
)

func TestExportRequiresDestination(t *testing.T) {
	t.Setenv("GOOGLE_CREDENTIALS_JSON", "")
	os.Unsetenv("GOOGLE_CREDENTIALS_JSON")
	t.Setenv("SPREADSHEET_ID", "")
	os.Unsetenv("SPREADSHEET_ID")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no destination", []string{"walletboard", "export"}, "pass --out or --spreadsheet-id"},
		{"sheet without credentials", []string{"walletboard", "export", "--spreadsheet-id", "abc"}, "credentials are required"},
		{"missing credentials file", []string{"walletboard", "export", "--spreadsheet-id", "abc", "--credentials", "/nonexistent/creds.json"}, "reading credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp()
			app.Writer = io.Discard
			app.ErrWriter = io.Discard

			err := app.Run(tt.args)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Run(%v) error = %v, want containing %q", tt.args, err, tt.want)
			}
		})
	}
}

func TestServeRequiresWallet(t *testing.T) {
	t.Setenv("WALLETS", "")
	os.Unsetenv("WALLETS")

	app := newApp()
	app.Writer = io.Discard
	err := app.Run([]string{"walletboard", "serve"})
	if err == nil || !strings.Contains(err.Error(), "WALLETS is required") {
		t.Errorf("serve error = %v, want WALLETS is required", err)
	}
}

type staticNames struct{}

func (staticNames) Name(chain.Server) string { return "Ethereum" }

func TestExportSummaryCountsHidden(t *testing.T) {
	usdc := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	vms := []domain.TokenViewModel{
		{
			Token:   domain.Token{ID: domain.NativeTokenID(1), Type: domain.TokenTypeNative, Symbol: "ETH", Name: "Ethereum"},
			Balance: decimal.NewFromInt(1),
			Ticker:  &domain.CoinTicker{Price: 2000, Currency: "USD"},
		},
		{
			Token:   domain.Token{ID: domain.TokenID{ChainID: 1, Contract: usdc}, Type: domain.TokenTypeERC20, Symbol: "USDC", Name: "USD Coin"},
			Balance: decimal.NewFromInt(5),
			Ticker:  &domain.CoinTicker{Price: 1, Currency: "USD"},
		},
	}

	tests := []struct {
		name       string
		hidden     map[string]bool
		wantHidden string
	}{
		{"nothing hidden", nil, ""},
		{"one hidden", map[string]bool{vms[1].Token.ID.Key(): true}, "(1 hidden)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := tokens.NewModel(staticNames{}, domain.USD)
			model.SetHiddenSet(tt.hidden)
			model.SetTokens(vms)

			got := exportSummary(model, vms, model.Snapshot())
			if !strings.HasPrefix(got, "exported ") {
				t.Errorf("summary = %q", got)
			}
			if tt.wantHidden == "" && strings.Contains(got, "hidden") {
				t.Errorf("summary = %q, want no hidden count", got)
			}
			if tt.wantHidden != "" && !strings.HasSuffix(got, tt.wantHidden) {
				t.Errorf("summary = %q, want suffix %q", got, tt.wantHidden)
			}
		})
	}
}
