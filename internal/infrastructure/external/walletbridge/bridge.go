// Package walletbridge connects wallets through an HTTP bridge that fronts
// the browser wallet extensions.
package walletbridge

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

	"github.com/learnify/learnify-hub/internal/domain/wallet"
	"github.com/learnify/learnify-hub/pkg/circuitbreaker"
)

// ClientConfig contains configuration for the wallet bridge client.
type ClientConfig struct {
	// BaseURL is the bridge URL. An empty URL means no wallet is installed.
	BaseURL string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// Breaker short-circuits requests while the bridge is down. Optional.
	Breaker *circuitbreaker.CircuitBreaker

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL: baseURL,
		Timeout: 15 * time.Second,
	}
}

// ErrNotConfigured is returned when no bridge URL is set.
var ErrNotConfigured = errors.New("wallet bridge is not configured")

// Client talks to the wallet bridge.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewClient creates a new wallet bridge client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     config.Logger,
		now:        time.Now,
	}
}

// connectResponse is the bridge's answer to a connect request.
type connectResponse struct {
	PrincipalID string `json:"principal_id"`
	PublicKey   string `json:"public_key"`
	Error       string `json:"error,omitempty"`
}

// Connect asks the bridge to connect the given wallet kind.
func (c *Client) Connect(ctx context.Context, kind wallet.Kind) (wallet.Connection, error) {
	if c.config.BaseURL == "" {
		return wallet.Connection{}, ErrNotConfigured
	}

	var conn wallet.Connection
	call := func(ctx context.Context) error {
		var err error
		conn, err = c.connect(ctx, kind)
		return err
	}

	var err error
	if c.config.Breaker != nil {
		err = c.config.Breaker.Execute(ctx, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wallet.Connection{}, fmt.Errorf("connect %s wallet: %w", kind, err)
	}
	return conn, nil
}

func (c *Client) connect(ctx context.Context, kind wallet.Kind) (wallet.Connection, error) {
	fullURL := fmt.Sprintf("%s/wallets/%s/connect", c.config.BaseURL, url.PathEscape(string(kind)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, nil)
	if err != nil {
		return wallet.Connection{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wallet.Connection{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return wallet.Connection{}, fmt.Errorf("read response: %w", err)
	}

	var payload connectResponse
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &payload); err != nil {
			return wallet.Connection{}, fmt.Errorf("unmarshal response: %w", err)
		}
	}

	if resp.StatusCode >= 400 {
		if payload.Error != "" {
			return wallet.Connection{}, fmt.Errorf("bridge error: status %d: %s", resp.StatusCode, payload.Error)
		}
		return wallet.Connection{}, fmt.Errorf("bridge error: status %d", resp.StatusCode)
	}

	c.logger.Debug("wallet connected via bridge", "wallet", string(kind))
	return wallet.Connection{
		Kind:        kind,
		Address:     payload.PrincipalID,
		PublicKey:   payload.PublicKey,
		ConnectedAt: c.now(),
	}, nil
}

// Connector returns the wallet.Connector for one kind.
func (c *Client) Connector(kind wallet.Kind) wallet.Connector {
	return wallet.ConnectorFunc(func(ctx context.Context) (wallet.Connection, error) {
		return c.Connect(ctx, kind)
	})
}

// Connectors returns a connector for every supported kind, or none when
// the bridge is not configured.
func (c *Client) Connectors() map[wallet.Kind]wallet.Connector {
	if c.config.BaseURL == "" {
		return nil
	}
	out := make(map[wallet.Kind]wallet.Connector, len(wallet.Kinds()))
	for _, k := range wallet.Kinds() {
		out[k] = c.Connector(k)
	}
	return out
}
