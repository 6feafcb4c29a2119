// Package feed resolves a wallet's balances across the enabled chains and
// joins them with price tickers into token view models.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mtlprog/walletboard/internal/chain"
	"github.com/mtlprog/walletboard/internal/domain"
	"github.com/mtlprog/walletboard/internal/evm"
	"github.com/mtlprog/walletboard/internal/metrics"
	"github.com/mtlprog/walletboard/internal/ticker"
)

// ErrInvalidWallet indicates the wallet is not a hex address.
var ErrInvalidWallet = errors.New("invalid wallet address")

// BalanceReader batches balance lookups on one chain.
type BalanceReader interface {
	Balances(ctx context.Context, wallet common.Address, contracts []common.Address) ([]evm.Result, error)
}

// Catalog resolves enabled servers to metadata.
type Catalog interface {
	Enabled(servers []chain.Server) []chain.Metadata
}

// TickerSource resolves price tickers.
type TickerSource interface {
	Tickers(ctx context.Context, currency domain.Currency, reqs []ticker.Request) map[ticker.Request]domain.CoinTicker
}

// Options tunes a Feed.
type Options struct {
	Enabled       []chain.Server // empty means chain.DefaultEnabled
	Currency      domain.Currency
	MaxConcurrent int           // chains fetched in parallel
	RateLimit     int           // RPC batches per second, 0 for no limit
	Attempts      uint          // tries per RPC batch, at least 1
	RetryDelay    time.Duration // initial backoff between tries
	Metrics       *metrics.Metrics
}

// Feed fetches token view models for wallets.
type Feed struct {
	catalog Catalog
	readers func(chain.Metadata) BalanceReader
	tickers TickerSource
	tracked map[uint64][]TrackedToken
	opts    Options
	limiter *rate.Limiter
}

// New creates a Feed. readers returns the balance reader for a server's
// current metadata.
func New(catalog Catalog, readers func(chain.Metadata) BalanceReader, tickers TickerSource, tracked []TrackedToken, opts Options) *Feed {
	if catalog == nil || readers == nil || tickers == nil {
		panic("feed.New: nil dependency")
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	if opts.Attempts == 0 {
		opts.Attempts = 1
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}
	if opts.Currency.Code == "" {
		opts.Currency = domain.USD
	}

	f := &Feed{
		catalog: catalog,
		readers: readers,
		tickers: tickers,
		tracked: lo.GroupBy(tracked, func(t TrackedToken) uint64 { return t.Token.ID.ChainID }),
		opts:    opts,
	}
	if opts.RateLimit > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateLimit)
	}
	return f
}

// Currency returns the currency tickers are requested in.
func (f *Feed) Currency() domain.Currency {
	return f.opts.Currency
}

type holding struct {
	server chain.Metadata
	token  TrackedToken
	raw    *big.Int
}

// Fetch returns the wallet's tokens on every enabled chain, native coins
// first within each chain. Chains or tokens whose balance cannot be read are
// logged and left out.
func (f *Feed) Fetch(ctx context.Context, wallet string) ([]domain.TokenViewModel, error) {
	if !common.IsHexAddress(wallet) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWallet, wallet)
	}
	addr := common.HexToAddress(wallet)
	servers := f.catalog.Enabled(f.opts.Enabled)

	perChain := make([][]holding, len(servers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.MaxConcurrent)
	for i, m := range servers {
		g.Go(func() error {
			perChain[i] = f.fetchChain(gctx, addr, m)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	holdings := lo.Flatten(perChain)
	reqs := lo.Uniq(lo.FilterMap(holdings, func(h holding, _ int) (ticker.Request, bool) {
		return tickerRequest(h.server, h.token)
	}))
	var tickers map[ticker.Request]domain.CoinTicker
	if len(reqs) > 0 {
		tickers = f.tickers.Tickers(ctx, f.opts.Currency, reqs)
	}

	return lo.Map(holdings, func(h holding, _ int) domain.TokenViewModel {
		var tk *domain.CoinTicker
		if req, ok := tickerRequest(h.server, h.token); ok {
			if t, ok := tickers[req]; ok {
				tk = &t
			}
		}
		return domain.NewTokenViewModel(h.token.Token, h.raw, tk)
	}), nil
}

func (f *Feed) fetchChain(ctx context.Context, wallet common.Address, m chain.Metadata) []holding {
	tokens := f.chainTokens(m)
	contracts := lo.Map(tokens, func(t TrackedToken, _ int) common.Address { return t.Token.ID.Contract })
	reader := f.readers(m)

	// Every attempt, retries included, takes a token from the shared limiter.
	results, err := backoff.Retry(ctx, func() ([]evm.Result, error) {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, backoff.Permanent(err)
			}
		}
		return reader.Balances(ctx, wallet, contracts)
	}, backoff.WithBackOff(f.backoff()), backoff.WithMaxTries(f.opts.Attempts))
	f.opts.Metrics.ObserveRPCBatch(m.ChainID, err)
	if err != nil {
		slog.Warn("fetching balances failed", "chainId", m.ChainID, "chain", m.Name, "error", err)
		return nil
	}

	out := make([]holding, 0, len(results))
	for i, r := range results {
		if i >= len(tokens) {
			break
		}
		if r.Err != nil || r.Balance == nil {
			slog.Warn("reading token balance failed",
				"chainId", m.ChainID, "symbol", tokens[i].Token.Symbol, "error", r.Err)
			continue
		}
		out = append(out, holding{server: m, token: tokens[i], raw: r.Balance})
	}
	return out
}

func (f *Feed) backoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.opts.RetryDelay
	return b
}

// chainTokens lists the native coin followed by the tracked tokens whose
// balance can be read with balanceOf(owner).
func (f *Feed) chainTokens(m chain.Metadata) []TrackedToken {
	native := TrackedToken{Token: domain.Token{
		ID:       domain.NativeTokenID(m.ChainID),
		Type:     domain.TokenTypeNative,
		Decimals: m.Decimals,
		Symbol:   m.Symbol,
		Name:     m.Name,
		Group:    domain.TokenGroupAssets,
	}}

	tracked := lo.Filter(f.tracked[m.ChainID], func(t TrackedToken, _ int) bool {
		switch t.Token.Type {
		case domain.TokenTypeERC1155, domain.TokenTypeERC875:
			slog.Debug("skipping token with unsupported balance query",
				"chainId", m.ChainID, "symbol", t.Token.Symbol, "type", t.Token.Type)
			return false
		}
		return true
	})
	return append([]TrackedToken{native}, tracked...)
}

// tickerRequest picks the price lookup for a token. Testnet coins and
// collectibles are never priced.
func tickerRequest(m chain.Metadata, t TrackedToken) (ticker.Request, bool) {
	if m.IsTestnet || !t.Token.Type.IsFungible() {
		return ticker.Request{}, false
	}
	switch {
	case t.CoinGeckoID != "":
		return ticker.CoinRequest(t.CoinGeckoID), true
	case t.Token.ID.IsNative() && m.CoinGeckoCoin != "":
		return ticker.CoinRequest(m.CoinGeckoCoin), true
	case !t.Token.ID.IsNative() && m.CoinGeckoPlatform != "":
		return ticker.TokenRequest(m.CoinGeckoPlatform, t.Token.ID.Contract), true
	}
	return ticker.Request{}, false
}
