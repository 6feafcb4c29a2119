package filter

import (
	"math"
	"testing"

	"github.com/mtlprog/walletboard/internal/domain"
)

func TestSortDisplayedTokens(t *testing.T) {
	tokens := []domain.TokenViewModel{
		tok(1, "0x01", domain.TokenTypeERC20, "dai", "Dai", "100", 1),
		tok(1, "0x02", domain.TokenTypeERC20, "ZRX", "0x", "0", 0.3),
		tok(1, "0x03", domain.TokenTypeNative, "ETH", "Ether", "1", 2000),
		tok(1, "0x04", domain.TokenTypeERC20, "aave", "Aave", "1", noPrice),
		tok(1, "0x05", domain.TokenTypeERC20, "USDC", "USD Coin", "500", 1),
	}

	got := symbols(SortDisplayedTokens(tokens))
	want := []string{"ETH", "USDC", "dai", "aave", "ZRX"}
	if !equalStrings(got, want) {
		t.Errorf("SortDisplayedTokens() = %v, want %v", got, want)
	}
}

func TestSortDisplayedTokensStable(t *testing.T) {
	// Same value and same symbol: only input order can break the tie.
	a := tok(1, "0x0a", domain.TokenTypeERC20, "USDT", "Tether A", "10", 1)
	b := tok(137, "0x0b", domain.TokenTypeERC20, "USDT", "Tether B", "10", 1)
	c := tok(56, "0x0c", domain.TokenTypeERC20, "usdt", "Tether C", "10", 1)

	got := SortDisplayedTokens([]domain.TokenViewModel{b, a, c})
	names := []string{got[0].Token.Name, got[1].Token.Name, got[2].Token.Name}
	want := []string{"Tether B", "Tether A", "Tether C"}
	if !equalStrings(names, want) {
		t.Errorf("equal keys reordered: %v, want %v", names, want)
	}

	again := SortDisplayedTokens(got)
	for i := range got {
		if got[i].Token.ID != again[i].Token.ID {
			t.Fatalf("sort not idempotent at %d", i)
		}
	}
}

func TestSortDisplayedTokensDoesNotMutateInput(t *testing.T) {
	tokens := []domain.TokenViewModel{
		tok(1, "0x01", domain.TokenTypeERC20, "B", "B", "1", noPrice),
		tok(1, "0x02", domain.TokenTypeERC20, "A", "A", "1", noPrice),
	}
	_ = SortDisplayedTokens(tokens)
	if tokens[0].Token.Symbol != "B" {
		t.Error("input slice was reordered")
	}
}

func TestSortDisplayedTokensNonFinitePrices(t *testing.T) {
	inf := tok(1, "0x01", domain.TokenTypeERC20, "INF", "Inf", "1", 0)
	inf.Ticker.Price = math.Inf(1)
	tokens := []domain.TokenViewModel{
		inf,
		tok(1, "0x02", domain.TokenTypeERC20, "AAA", "A", "1", noPrice),
		tok(1, "0x03", domain.TokenTypeERC20, "ZZZ", "Z", "1", 5),
	}

	got := symbols(SortDisplayedTokens(tokens))
	want := []string{"ZZZ", "AAA", "INF"}
	if !equalStrings(got, want) {
		t.Errorf("SortDisplayedTokens() = %v, want %v", got, want)
	}
}

func TestSortDisplayedTokensEmpty(t *testing.T) {
	if got := SortDisplayedTokens(nil); len(got) != 0 {
		t.Errorf("SortDisplayedTokens(nil) = %v, want empty", got)
	}
}
