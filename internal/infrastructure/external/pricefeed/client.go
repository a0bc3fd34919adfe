// Package pricefeed implements the spot price capability against a
// CoinGecko-compatible HTTP API.
package pricefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/learnify/learnify-hub/internal/domain/market"
	"github.com/learnify/learnify-hub/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// DefaultBaseURL is the public CoinGecko v3 API.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// ClientConfig contains configuration for the price feed client.
type ClientConfig struct {
	// BaseURL is the API base URL, without a trailing slash.
	BaseURL string

	// APIKey is sent as x-cg-demo-api-key when set.
	APIKey string

	// Currency is the quote currency (default: usd).
	Currency string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// Breaker short-circuits requests while the feed is down. Optional.
	Breaker *circuitbreaker.CircuitBreaker

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return ClientConfig{
		BaseURL:  baseURL,
		Currency: "usd",
		Timeout:  10 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client fetches spot prices. A request is made once; failures are returned
// to the caller, which keeps its previous prices.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
}

var _ market.PriceFeed = (*Client)(nil)

// NewClient creates a new price feed client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Currency == "" {
		config.Currency = "usd"
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     config.Logger,
	}
}

// APIError is a non-2xx response from the feed.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("price feed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("price feed: status %d: %s", e.StatusCode, e.Body)
}

// ErrRateLimited is returned on HTTP 429.
var ErrRateLimited = errors.New("price feed rate limit exceeded")

// FetchPrices returns the spot price of each symbol in the configured
// currency. Symbols the feed does not know are absent from the result.
func (c *Client) FetchPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}

	var prices map[string]float64
	call := func(ctx context.Context) error {
		var err error
		prices, err = c.fetch(ctx, symbols)
		return err
	}

	var err error
	if c.config.Breaker != nil {
		err = c.config.Breaker.Execute(ctx, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}
	return prices, nil
}

func (c *Client) fetch(ctx context.Context, symbols []string) (map[string]float64, error) {
	ids := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if key := market.NormalizeSymbol(s); key != "" {
			ids = append(ids, key)
		}
	}

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", c.config.Currency)
	fullURL := c.config.BaseURL + "/simple/price?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.config.APIKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("price feed response",
		"status", resp.StatusCode,
		"symbols", len(ids),
		"latency", time.Since(start).String(),
	)

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	// {"bitcoin": {"usd": 64000.1}, ...}
	var payload map[string]map[string]float64
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	prices := make(map[string]float64, len(payload))
	for id, quotes := range payload {
		if price, ok := quotes[c.config.Currency]; ok {
			prices[market.NormalizeSymbol(id)] = price
		}
	}
	return prices, nil
}

// IsHealthy checks if the feed is reachable.
func (c *Client) IsHealthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/ping", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
