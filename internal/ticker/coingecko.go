package ticker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mtlprog/walletboard/internal/domain"
)

// CoinGeckoClient fetches tickers from the CoinGecko API.
type CoinGeckoClient struct {
	baseURL    string
	httpClient *http.Client
	delay      time.Duration
	maxRetries int
}

// NewCoinGeckoClient creates a new CoinGecko API client.
func NewCoinGeckoClient(baseURL string, delay time.Duration, maxRetries int) *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		delay:      delay,
		maxRetries: maxRetries,
	}
}

// FetchCoinTickers fetches tickers for CoinGecko coin IDs (native coins).
// Coins CoinGecko has no price for are absent from the result.
func (c *CoinGeckoClient) FetchCoinTickers(ctx context.Context, ids []string, currency domain.Currency) (map[string]domain.CoinTicker, error) {
	if len(ids) == 0 {
		return map[string]domain.CoinTicker{}, nil
	}
	q := tickerQuery(currency)
	q.Set("ids", strings.Join(ids, ","))

	return c.fetchTickers(ctx, c.baseURL+"/simple/price?"+q.Encode(), currency)
}

// FetchTokenTickers fetches tickers for token contracts on one CoinGecko
// platform (e.g. "ethereum", "polygon-pos").
func (c *CoinGeckoClient) FetchTokenTickers(ctx context.Context, platform string, contracts []common.Address, currency domain.Currency) (map[common.Address]domain.CoinTicker, error) {
	if len(contracts) == 0 {
		return map[common.Address]domain.CoinTicker{}, nil
	}
	addrs := make([]string, len(contracts))
	for i, a := range contracts {
		addrs[i] = strings.ToLower(a.Hex())
	}
	q := tickerQuery(currency)
	q.Set("contract_addresses", strings.Join(addrs, ","))

	raw, err := c.fetchTickers(ctx, fmt.Sprintf("%s/simple/token_price/%s?%s", c.baseURL, url.PathEscape(platform), q.Encode()), currency)
	if err != nil {
		return nil, err
	}

	result := make(map[common.Address]domain.CoinTicker, len(raw))
	for addr, t := range raw {
		if !common.IsHexAddress(addr) {
			continue
		}
		result[common.HexToAddress(addr)] = t
	}
	return result, nil
}

func tickerQuery(currency domain.Currency) url.Values {
	q := url.Values{}
	q.Set("vs_currencies", currency.APICode())
	q.Set("include_24hr_change", "true")
	q.Set("include_market_cap", "true")
	return q
}

// fetchTickers parses {"<id>":{"usd":2000,"usd_24h_change":5.1,"usd_market_cap":1e11}}.
func (c *CoinGeckoClient) fetchTickers(ctx context.Context, url string, currency domain.Currency) (map[string]domain.CoinTicker, error) {
	body, err := c.fetchWithRetry(ctx, url)
	if err != nil {
		return nil, err
	}

	var raw map[string]map[string]*float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing CoinGecko response: %w", err)
	}

	code := currency.APICode()
	now := time.Now().UTC()
	result := make(map[string]domain.CoinTicker, len(raw))
	for id, fields := range raw {
		price := fields[code]
		if price == nil {
			continue
		}
		result[id] = domain.CoinTicker{
			Price:     *price,
			Change24h: orNaN(fields[code+"_24h_change"]),
			MarketCap: orNaN(fields[code+"_market_cap"]),
			Currency:  currency.Code,
			UpdatedAt: now,
		}
	}
	return result, nil
}

func orNaN(f *float64) float64 {
	if f == nil {
		return math.NaN()
	}
	return *f
}

func (c *CoinGeckoClient) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := range c.maxRetries + 1 {
		if attempt > 0 {
			baseDelay := c.delay
			if baseDelay == 0 {
				baseDelay = 10 * time.Second
			}
			delay := baseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating CoinGecko request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("CoinGecko request failed: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading CoinGecko response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("CoinGecko rate limited (attempt %d/%d)", attempt+1, c.maxRetries+1)
			continue
		}

		return nil, fmt.Errorf("CoinGecko HTTP %d: %s", resp.StatusCode, string(body))
	}

	return nil, lastErr
}
