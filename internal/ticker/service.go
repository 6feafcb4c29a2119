// Package ticker provides price tickers for native coins and tokens, cached
// in memory and backed by the last persisted quotes when CoinGecko fails.
package ticker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/patrickmn/go-cache"
	"github.com/samber/lo"

	"github.com/mtlprog/walletboard/internal/domain"
)

// maxContractsPerRequest keeps token_price URLs within CoinGecko's limits.
const maxContractsPerRequest = 100

// CoinPlatform marks requests for native coins by CoinGecko coin ID.
const CoinPlatform = "coin"

// Request identifies one ticker: a coin ID on CoinPlatform, or a lowercase
// contract address on a token platform.
type Request struct {
	Platform string
	ID       string
}

// CoinRequest requests a native coin ticker.
func CoinRequest(coinID string) Request {
	return Request{Platform: CoinPlatform, ID: coinID}
}

// TokenRequest requests a token ticker.
func TokenRequest(platform string, contract common.Address) Request {
	return Request{Platform: platform, ID: strings.ToLower(contract.Hex())}
}

// Key is the cache and storage key, "<currency>:<platform>:<id>".
func (r Request) Key(currency domain.Currency) string {
	return currency.APICode() + ":" + r.Platform + ":" + r.ID
}

// Fetcher is the upstream price API.
type Fetcher interface {
	FetchCoinTickers(ctx context.Context, ids []string, currency domain.Currency) (map[string]domain.CoinTicker, error)
	FetchTokenTickers(ctx context.Context, platform string, contracts []common.Address, currency domain.Currency) (map[common.Address]domain.CoinTicker, error)
}

// Repository persists the last known tickers by key.
type Repository interface {
	SaveTickers(ctx context.Context, tickers map[string]domain.CoinTicker) error
	LoadTickers(ctx context.Context, keys []string) (map[string]domain.CoinTicker, error)
}

// Service resolves tickers through the cache, the upstream API and, when the
// API fails, the repository.
type Service struct {
	fetcher Fetcher
	repo    Repository
	cache   *cache.Cache
}

// NewService creates a ticker service. repo may be nil.
func NewService(fetcher Fetcher, repo Repository, ttl time.Duration) *Service {
	if fetcher == nil {
		panic("ticker.NewService: fetcher is nil")
	}
	return &Service{
		fetcher: fetcher,
		repo:    repo,
		cache:   cache.New(ttl, 2*ttl),
	}
}

// Tickers returns whatever tickers can be resolved. Unresolved requests are
// absent from the result, never zero-priced.
func (s *Service) Tickers(ctx context.Context, currency domain.Currency, reqs []Request) map[Request]domain.CoinTicker {
	result := make(map[Request]domain.CoinTicker, len(reqs))
	var misses []Request
	for _, r := range lo.Uniq(reqs) {
		if v, ok := s.cache.Get(r.Key(currency)); ok {
			result[r] = v.(domain.CoinTicker)
			continue
		}
		misses = append(misses, r)
	}
	if len(misses) == 0 {
		return result
	}

	fetched := make(map[string]domain.CoinTicker)
	var failed []Request
	for platform, group := range lo.GroupBy(misses, func(r Request) string { return r.Platform }) {
		got, err := s.fetchPlatform(ctx, platform, group, currency)
		if err != nil {
			slog.Warn("fetching tickers failed", "platform", platform, "count", len(group), "error", err)
			failed = append(failed, group...)
			continue
		}
		for _, r := range group {
			if t, ok := got[r.ID]; ok {
				result[r] = t
				fetched[r.Key(currency)] = t
				s.cache.Set(r.Key(currency), t, cache.DefaultExpiration)
			}
		}
	}

	s.persist(ctx, fetched)
	s.fallback(ctx, currency, failed, result)
	return result
}

func (s *Service) fetchPlatform(ctx context.Context, platform string, reqs []Request, currency domain.Currency) (map[string]domain.CoinTicker, error) {
	if platform == CoinPlatform {
		return s.fetcher.FetchCoinTickers(ctx, lo.Map(reqs, func(r Request, _ int) string { return r.ID }), currency)
	}

	out := make(map[string]domain.CoinTicker)
	for _, chunk := range lo.Chunk(reqs, maxContractsPerRequest) {
		contracts := lo.Map(chunk, func(r Request, _ int) common.Address { return common.HexToAddress(r.ID) })
		got, err := s.fetcher.FetchTokenTickers(ctx, platform, contracts, currency)
		if err != nil {
			return nil, fmt.Errorf("fetching %s token tickers: %w", platform, err)
		}
		for addr, t := range got {
			out[strings.ToLower(addr.Hex())] = t
		}
	}
	return out, nil
}

func (s *Service) persist(ctx context.Context, tickers map[string]domain.CoinTicker) {
	if s.repo == nil || len(tickers) == 0 {
		return
	}
	if err := s.repo.SaveTickers(ctx, tickers); err != nil {
		slog.Warn("saving tickers failed", "count", len(tickers), "error", err)
	}
}

// fallback fills failed requests from the last persisted quotes. These are
// not cached so the next refresh retries upstream.
func (s *Service) fallback(ctx context.Context, currency domain.Currency, failed []Request, result map[Request]domain.CoinTicker) {
	if s.repo == nil || len(failed) == 0 {
		return
	}
	keys := lo.Map(failed, func(r Request, _ int) string { return r.Key(currency) })
	stored, err := s.repo.LoadTickers(ctx, keys)
	if err != nil {
		slog.Warn("loading stored tickers failed", "error", err)
		return
	}
	for _, r := range failed {
		if t, ok := stored[r.Key(currency)]; ok {
			result[r] = t
		}
	}
	slog.Debug("using stored tickers", "requested", len(failed), "found", len(stored))
}
