package ticker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mtlprog/walletboard/internal/domain"
)

type mockFetcher struct {
	coins      map[string]domain.CoinTicker
	tokens     map[common.Address]domain.CoinTicker
	err        error
	coinCalls  int
	tokenCalls int
	maxBatch   int
}

func (m *mockFetcher) FetchCoinTickers(_ context.Context, ids []string, _ domain.Currency) (map[string]domain.CoinTicker, error) {
	m.coinCalls++
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]domain.CoinTicker)
	for _, id := range ids {
		if t, ok := m.coins[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

func (m *mockFetcher) FetchTokenTickers(_ context.Context, _ string, contracts []common.Address, _ domain.Currency) (map[common.Address]domain.CoinTicker, error) {
	m.tokenCalls++
	m.maxBatch = max(m.maxBatch, len(contracts))
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[common.Address]domain.CoinTicker)
	for _, c := range contracts {
		if t, ok := m.tokens[c]; ok {
			out[c] = t
		}
	}
	return out, nil
}

type mockRepo struct {
	saved map[string]domain.CoinTicker
}

func (m *mockRepo) SaveTickers(_ context.Context, tickers map[string]domain.CoinTicker) error {
	for k, v := range tickers {
		m.saved[k] = v
	}
	return nil
}

func (m *mockRepo) LoadTickers(_ context.Context, keys []string) (map[string]domain.CoinTicker, error) {
	out := make(map[string]domain.CoinTicker)
	for _, k := range keys {
		if t, ok := m.saved[k]; ok {
			out[k] = t
		}
	}
	return out, nil
}

var dai = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")

func TestTickersCachesResults(t *testing.T) {
	fetcher := &mockFetcher{
		coins:  map[string]domain.CoinTicker{"ethereum": {Price: 2000, Currency: "USD"}},
		tokens: map[common.Address]domain.CoinTicker{dai: {Price: 1, Currency: "USD"}},
	}
	svc := NewService(fetcher, nil, time.Minute)
	reqs := []Request{CoinRequest("ethereum"), TokenRequest("ethereum", dai), CoinRequest("ethereum")}

	got := svc.Tickers(context.Background(), domain.USD, reqs)
	if len(got) != 2 {
		t.Fatalf("got %d tickers, want 2", len(got))
	}
	if got[CoinRequest("ethereum")].Price != 2000 || got[TokenRequest("ethereum", dai)].Price != 1 {
		t.Errorf("tickers = %+v", got)
	}

	svc.Tickers(context.Background(), domain.USD, reqs)
	if fetcher.coinCalls != 1 || fetcher.tokenCalls != 1 {
		t.Errorf("calls = %d coin / %d token, want 1/1 (second lookup cached)", fetcher.coinCalls, fetcher.tokenCalls)
	}

	svc.cache.Flush()
	svc.Tickers(context.Background(), domain.USD, reqs)
	if fetcher.coinCalls != 2 {
		t.Errorf("coinCalls = %d after flushing, want 2", fetcher.coinCalls)
	}
}

func TestTickersMissingPriceIsAbsent(t *testing.T) {
	svc := NewService(&mockFetcher{}, nil, time.Minute)
	got := svc.Tickers(context.Background(), domain.USD, []Request{CoinRequest("nothing")})
	if len(got) != 0 {
		t.Errorf("got %+v, want empty", got)
	}
}

func TestTickersCurrencyInKey(t *testing.T) {
	eur, _ := domain.ParseCurrency("EUR")
	r := TokenRequest("polygon-pos", dai)
	if got := r.Key(eur); got != "eur:polygon-pos:0x6b175474e89094c44da98b954eedeac495271d0f" {
		t.Errorf("Key() = %q", got)
	}
	if CoinRequest("ethereum").Key(domain.USD) == CoinRequest("ethereum").Key(eur) {
		t.Error("keys for different currencies collide")
	}
}

func TestTickersFallbackToRepository(t *testing.T) {
	repo := &mockRepo{saved: make(map[string]domain.CoinTicker)}
	fetcher := &mockFetcher{coins: map[string]domain.CoinTicker{"ethereum": {Price: 2000, Currency: "USD"}}}
	svc := NewService(fetcher, repo, time.Minute)

	svc.Tickers(context.Background(), domain.USD, []Request{CoinRequest("ethereum")})
	if _, ok := repo.saved[CoinRequest("ethereum").Key(domain.USD)]; !ok {
		t.Fatal("fetched ticker not persisted")
	}

	svc.cache.Flush()
	fetcher.err = errors.New("upstream down")
	got := svc.Tickers(context.Background(), domain.USD, []Request{CoinRequest("ethereum")})
	if got[CoinRequest("ethereum")].Price != 2000 {
		t.Errorf("fallback ticker = %+v, want stored price", got)
	}

	// Fallback values are not cached.
	svc.Tickers(context.Background(), domain.USD, []Request{CoinRequest("ethereum")})
	if fetcher.coinCalls != 3 {
		t.Errorf("coinCalls = %d, want 3", fetcher.coinCalls)
	}
}

func TestTickersChunksContracts(t *testing.T) {
	fetcher := &mockFetcher{}
	svc := NewService(fetcher, nil, time.Minute)

	var reqs []Request
	for i := 0; i < 250; i++ {
		reqs = append(reqs, TokenRequest("ethereum", common.HexToAddress(fmt.Sprintf("0x%040x", i+1))))
	}
	svc.Tickers(context.Background(), domain.USD, reqs)

	if fetcher.tokenCalls != 3 {
		t.Errorf("tokenCalls = %d, want 3", fetcher.tokenCalls)
	}
	if fetcher.maxBatch > maxContractsPerRequest {
		t.Errorf("batch of %d exceeds limit", fetcher.maxBatch)
	}
}
