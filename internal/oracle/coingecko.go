package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/networth/internal/domain"
)

var (
	// ErrNotFound indicates the provider returned no price for a symbol.
	ErrNotFound = errors.New("price not found")
	// ErrRateLimited indicates the provider kept answering 429 after all retries.
	ErrRateLimited = errors.New("rate limited")
)

// DefaultSymbolIDs maps common symbols to CoinGecko coin IDs.
var DefaultSymbolIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"ADA":  "cardano",
	"DOT":  "polkadot",
	"XLM":  "stellar",
	"USDT": "tether",
	"USDC": "usd-coin",
	"PAXG": "pax-gold",
}

// CoinGeckoClient fetches current prices from the CoinGecko API.
type CoinGeckoClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retryDelay time.Duration
	maxRetries int

	mu  sync.RWMutex
	ids map[string]string
}

// NewCoinGeckoClient creates a new CoinGecko API client. timeout bounds each HTTP request.
func NewCoinGeckoClient(baseURL, apiKey string, timeout, retryDelay time.Duration, maxRetries int) *CoinGeckoClient {
	ids := make(map[string]string, len(DefaultSymbolIDs))
	for symbol, id := range DefaultSymbolIDs {
		ids[symbol] = id
	}
	return &CoinGeckoClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		retryDelay: retryDelay,
		maxRetries: maxRetries,
		ids:        ids,
	}
}

// RegisterIDs adds or replaces symbol to coin ID mappings, typically from asset external IDs.
func (c *CoinGeckoClient) RegisterIDs(ids map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for symbol, id := range ids {
		if id == "" {
			continue
		}
		c.ids[domain.NormalizeSymbol(symbol)] = id
	}
}

// coinID returns the CoinGecko ID for symbol, falling back to the lower-cased symbol.
func (c *CoinGeckoClient) coinID(symbol string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if id, ok := c.ids[symbol]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

// GetPrice fetches the current price of one symbol.
func (c *CoinGeckoClient) GetPrice(ctx context.Context, symbol, currency string) (decimal.Decimal, error) {
	symbol = domain.NormalizeSymbol(symbol)
	prices, err := c.GetPrices(ctx, []string{symbol}, currency)
	if err != nil {
		return decimal.Zero, err
	}
	price, ok := prices[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("%s: %w", symbol, ErrNotFound)
	}
	return price, nil
}

// GetPrices fetches current prices for several symbols in one request.
// Symbols the provider does not know are absent from the result.
func (c *CoinGeckoClient) GetPrices(ctx context.Context, symbols []string, currency string) (map[string]decimal.Decimal, error) {
	symbols = lo.Uniq(lo.Map(symbols, func(s string, _ int) string { return domain.NormalizeSymbol(s) }))
	if len(symbols) == 0 {
		return map[string]decimal.Decimal{}, nil
	}
	vs := strings.ToLower(currency)

	bySymbol := make(map[string]string, len(symbols))
	for _, s := range symbols {
		bySymbol[s] = c.coinID(s)
	}
	ids := lo.Uniq(lo.Values(bySymbol))

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", vs)
	endpoint := fmt.Sprintf("%s/simple/price?%s", c.baseURL, q.Encode())

	body, err := c.fetchWithRetry(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	// Parse: {"bitcoin":{"eur":45000},"ethereum":{"eur":2500},...}
	var raw map[string]map[string]decimal.Decimal
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing CoinGecko response: %w", err)
	}

	result := make(map[string]decimal.Decimal, len(symbols))
	for symbol, id := range bySymbol {
		price, ok := raw[id][vs]
		if !ok || !price.IsPositive() {
			continue
		}
		result[symbol] = price
	}
	return result, nil
}

func (c *CoinGeckoClient) fetchWithRetry(ctx context.Context, endpoint string) ([]byte, error) {
	var lastErr error
	for attempt := range c.maxRetries + 1 {
		if attempt > 0 {
			baseDelay := c.retryDelay
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

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("creating CoinGecko request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("x-cg-demo-api-key", c.apiKey)
		}

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
			lastErr = fmt.Errorf("CoinGecko attempt %d/%d: %w", attempt+1, c.maxRetries+1, ErrRateLimited)
			continue
		}

		return nil, fmt.Errorf("CoinGecko HTTP %d: %s", resp.StatusCode, string(body))
	}

	return nil, lastErr
}
