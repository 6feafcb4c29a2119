package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/walletboard/internal/balance"
	"github.com/mtlprog/walletboard/internal/chain"
	"github.com/mtlprog/walletboard/internal/domain"
	"github.com/mtlprog/walletboard/internal/tokens"
)

const testWallet = "0x00000000000000000000000000000000000000aa"

var (
	usdcAddr = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	daiAddr  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
)

type namer struct{}

func (namer) Name(s chain.Server) string { return fmt.Sprintf("Chain %d", s) }

type memHiddenStore struct {
	mu     sync.Mutex
	hidden map[string]bool
}

func (m *memHiddenStore) SetHidden(_ context.Context, _ string, id domain.TokenID, hidden bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hidden == nil {
		m.hidden = map[string]bool{}
	}
	if hidden {
		m.hidden[id.Key()] = true
	} else {
		delete(m.hidden, id.Key())
	}
	return nil
}

func (m *memHiddenStore) Hidden(_ context.Context, _ string) (map[string]bool, error) {
	return map[string]bool{}, nil
}

type staticSummary struct {
	balances []balance.WalletBalance
}

func (s staticSummary) Balances() []balance.WalletBalance { return s.balances }

func (s staticSummary) Summary() balance.WalletSummary {
	return balance.Summarize(s.balances, domain.USD)
}

func vm(chainID uint64, contract common.Address, symbol, name, amount string, price float64) domain.TokenViewModel {
	typ := domain.TokenTypeERC20
	if contract == (common.Address{}) {
		typ = domain.TokenTypeNative
	}
	return domain.TokenViewModel{
		Token: domain.Token{
			ID:     domain.TokenID{Contract: contract, ChainID: chainID},
			Type:   typ,
			Symbol: symbol,
			Name:   name,
		},
		Balance: decimal.RequireFromString(amount),
		Ticker:  &domain.CoinTicker{Price: price, Change24h: 0, Currency: "USD"},
	}
}

func walletTokens() []domain.TokenViewModel {
	return []domain.TokenViewModel{
		vm(1, common.Address{}, "ETH", "Ethereum", "1", 2000),
		vm(1, usdcAddr, "USDC", "USD Coin", "500", 1),
		vm(137, common.Address{}, "POL", "Polygon", "100", 0.5),
	}
}

// startPipeline runs a pipeline loaded with walletTokens until the test ends.
func startPipeline(t *testing.T) *tokens.Pipeline {
	t.Helper()
	p := tokens.NewPipeline(tokens.NewModel(namer{}, domain.USD), &memHiddenStore{}, testWallet)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	if err := p.SetTokens(context.Background(), walletTokens()); err != nil {
		t.Fatalf("SetTokens: %v", err)
	}
	return p
}

func newTestHandler(t *testing.T) (*Handler, *tokens.Pipeline) {
	p := startPipeline(t)
	b := balance.Compute(walletTokens(), domain.USD)
	b.Wallet = testWallet
	return NewHandler(p, staticSummary{balances: []balance.WalletBalance{b}}, nil), p
}

func do(h http.HandlerFunc, method, target, body string, pathValues ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestGetTokens(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(h.GetTokens, http.MethodGet, "/api/v1/tokens", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Wallet   string `json:"wallet"`
		Snapshot struct {
			Rows []struct {
				Kind string `json:"kind"`
			} `json:"rows"`
		} `json:"snapshot"`
		SummaryText balanceText `json:"summaryText"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Wallet != testWallet {
		t.Errorf("wallet = %q", resp.Wallet)
	}
	if len(resp.Snapshot.Rows) != 5 {
		t.Errorf("rows = %d, want 5 (2 headers + 3 tokens)", len(resp.Snapshot.Rows))
	}
	if resp.SummaryText.TotalAmount != "$2,550.00" {
		t.Errorf("total = %q, want $2,550.00", resp.SummaryText.TotalAmount)
	}
}

func unpricedChangeTokens() []domain.TokenViewModel {
	ts := walletTokens()
	ts[1].Ticker = &domain.CoinTicker{Price: 1, Change24h: math.NaN(), MarketCap: math.Inf(1), Currency: "USD"}
	return ts
}

func TestGetTokensUnknownChange(t *testing.T) {
	h, p := newTestHandler(t)
	if err := p.SetTokens(context.Background(), unpricedChangeTokens()); err != nil {
		t.Fatal(err)
	}

	w := do(h.GetTokens, http.MethodGet, "/api/v1/tokens", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"change24h":null`) || !strings.Contains(body, `"marketCap":null`) {
		t.Errorf("body does not report unknown change as null: %s", body)
	}
}

func TestSetFilter(t *testing.T) {
	h, p := newTestHandler(t)

	w := do(h.SetFilter, http.MethodPut, "/api/v1/filter", `{"filter":"keyword","keyword":"usd"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body)
	}
	got := p.Current().Tokens()
	if len(got) != 1 || got[0].Token.Name != "USD Coin" {
		t.Errorf("tokens after keyword filter = %+v", got)
	}
}

func TestSetFilterInvalid(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"unknown filter", `{"filter":"memes"}`},
		{"custom not allowed", `{"filter":"custom"}`},
		{"malformed", `{"filter":`},
		{"unknown field", `{"filter":"all","extra":1}`},
		{"empty body", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(h.SetFilter, http.MethodPut, "/api/v1/filter", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestSetSearchOverridesFilter(t *testing.T) {
	h, p := newTestHandler(t)

	w := do(h.SetSearch, http.MethodPut, "/api/v1/search", `{"text":"pol"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	got := p.Current().Tokens()
	if len(got) != 1 || got[0].Token.Symbol != "POL" {
		t.Errorf("tokens after search = %+v", got)
	}

	do(h.SetSearch, http.MethodPut, "/api/v1/search", `{"text":""}`)
	if n := len(p.Current().Tokens()); n != 3 {
		t.Errorf("tokens after clearing search = %d, want 3", n)
	}
}

func TestSetSessions(t *testing.T) {
	h, p := newTestHandler(t)

	if w := do(h.SetSessions, http.MethodPut, "/api/v1/sessions", `{"count":2}`); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := p.Current().SessionCount; got != 2 {
		t.Errorf("SessionCount = %d, want 2", got)
	}
	if w := do(h.SetSessions, http.MethodPut, "/api/v1/sessions", `{"count":-1}`); w.Code != http.StatusBadRequest {
		t.Errorf("negative count status = %d, want 400", w.Code)
	}
}

func TestHideAndUnhideToken(t *testing.T) {
	h, p := newTestHandler(t)

	w := do(h.HideToken, http.MethodPost, "/", "", "chainId", "137", "contract", common.Address{}.Hex())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body)
	}
	var resp struct {
		Paths []int `json:"deletedIndexPaths"`
	}
	json.NewDecoder(w.Body).Decode(&resp)
	if len(resp.Paths) != 2 || resp.Paths[0] != 3 || resp.Paths[1] != 4 {
		t.Errorf("paths = %v, want [3 4]", resp.Paths)
	}
	if n := len(p.Current().Rows); n != 3 {
		t.Errorf("rows after hide = %d, want 3", n)
	}

	w = do(h.UnhideToken, http.MethodPost, "/", "", "chainId", "137", "contract", common.Address{}.Hex())
	if w.Code != http.StatusOK {
		t.Fatalf("unhide status = %d, want 200", w.Code)
	}
	if n := len(p.Current().Rows); n != 5 {
		t.Errorf("rows after unhide = %d, want 5", n)
	}
}

func TestHideTokenErrors(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name     string
		chainID  string
		contract string
		want     int
	}{
		{"unknown token", "1", daiAddr.Hex(), http.StatusNotFound},
		{"bad chain", "eth", daiAddr.Hex(), http.StatusBadRequest},
		{"zero chain", "0", daiAddr.Hex(), http.StatusBadRequest},
		{"bad contract", "1", "0x123", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(h.HideToken, http.MethodPost, "/", "", "chainId", tt.chainID, "contract", tt.contract)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestGetSummary(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(h.GetSummary, http.MethodGet, "/api/v1/summary", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Wallets  int         `json:"wallets"`
		Text     balanceText `json:"text"`
		Balances []struct {
			Wallet string      `json:"wallet"`
			Text   balanceText `json:"text"`
		} `json:"balances"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Wallets != 1 || resp.Text.TotalAmount != "$2,550.00" || resp.Text.Change != "$0.00" {
		t.Errorf("summary = %+v", resp)
	}
	if len(resp.Balances) != 1 || resp.Balances[0].Wallet != testWallet {
		t.Errorf("balances = %+v", resp.Balances)
	}
}

func TestPipelineErrorAfterStop(t *testing.T) {
	p := tokens.NewPipeline(tokens.NewModel(namer{}, domain.USD), &memHiddenStore{}, testWallet)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()
	cancel()
	<-done

	h := NewHandler(p, staticSummary{}, nil)
	reqCtx, reqCancel := context.WithTimeout(context.Background(), time.Second)
	defer reqCancel()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/search", strings.NewReader(`{"text":"x"}`)).WithContext(reqCtx)
	w := httptest.NewRecorder()
	h.SetSearch(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
