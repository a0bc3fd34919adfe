// Package pricing keeps the dashboard's spot prices fresh by polling the
// external price feed.
package pricing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/learnify/learnify-hub/internal/domain/market"
	"github.com/learnify/learnify-hub/internal/domain/shared"
	"github.com/learnify/learnify-hub/pkg/logger"
)

// DefaultSymbols are the assets shown when no symbols are configured.
var DefaultSymbols = []string{"internet-computer", "bitcoin", "ethereum"}

// DefaultTimeout bounds a single feed request.
const DefaultTimeout = 10 * time.Second

// Config configures a Tracker.
type Config struct {
	Symbols     []string
	HistorySize int
	Timeout     time.Duration
}

// DefaultConfig returns the default tracker configuration.
func DefaultConfig() Config {
	return Config{
		Symbols:     DefaultSymbols,
		HistorySize: market.DefaultHistorySize,
		Timeout:     DefaultTimeout,
	}
}

// Metrics observes refresh outcomes.
type Metrics interface {
	PricesRefreshed(recorded int, err error)
}

type nopMetrics struct{}

func (nopMetrics) PricesRefreshed(int, error) {}

// Tracker polls a PriceFeed into a bounded History.
type Tracker struct {
	mu      sync.RWMutex
	history *market.History
	last    time.Time

	feed    market.PriceFeed
	symbols []string
	timeout time.Duration
	now     func() time.Time
	metrics Metrics
	logger  *logger.Logger
}

// NewTracker creates a tracker. A nil logger or metrics is replaced by a no-op.
func NewTracker(feed market.PriceFeed, cfg Config, metrics Metrics, log *logger.Logger) *Tracker {
	def := DefaultConfig()
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = def.Symbols
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}

	symbols := make([]string, 0, len(cfg.Symbols))
	seen := make(map[string]bool, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		key := market.NormalizeSymbol(s)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		symbols = append(symbols, key)
	}

	return &Tracker{
		history: market.NewHistory(cfg.HistorySize),
		feed:    feed,
		symbols: symbols,
		timeout: cfg.Timeout,
		now:     time.Now,
		metrics: metrics,
		logger:  log.With(logger.Component("price_tracker")),
	}
}

// Refresh fetches one round of prices and records them. On failure the
// previous history is left untouched. It returns the number of samples recorded.
func (t *Tracker) Refresh(ctx context.Context) (int, error) {
	if t.feed == nil {
		err := shared.NewDomainError("pricing", "Refresh", shared.ErrPriceUnavailable, "no price feed configured")
		t.metrics.PricesRefreshed(0, err)
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	prices, err := t.feed.FetchPrices(ctx, t.symbols)
	if err != nil {
		wrapped := fmt.Errorf("%w: %w", shared.ErrPriceUnavailable, err)
		t.metrics.PricesRefreshed(0, wrapped)
		t.logger.Warn("price fetch failed", logger.Err(err), logger.Latency(time.Since(start)))
		return 0, wrapped
	}

	t.mu.Lock()
	at := t.now()
	recorded := t.history.Record(prices, at)
	if recorded > 0 {
		t.last = at
	}
	t.mu.Unlock()

	t.metrics.PricesRefreshed(recorded, nil)
	t.logger.Debug("prices recorded",
		logger.Int("recorded", recorded),
		logger.Int("requested", len(t.symbols)),
		logger.Latency(time.Since(start)),
	)
	return recorded, nil
}

// Quotes returns the latest quote for every tracked symbol with history.
func (t *Tracker) Quotes() []market.Quote {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.history.Quotes()
}

// Quote returns the latest quote for one symbol.
func (t *Tracker) Quote(symbol string) (market.Quote, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	q, ok := t.history.Quote(symbol)
	if !ok {
		return market.Quote{}, shared.NewDomainError("pricing", "Quote", shared.ErrNotFound,
			fmt.Sprintf("no price for %s", market.NormalizeSymbol(symbol)))
	}
	return q, nil
}

// History returns the recorded samples of symbol, oldest first.
func (t *Tracker) History(symbol string) []market.Sample {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.history.Samples(symbol)
}

// Symbols returns the tracked symbols in configured order.
func (t *Tracker) Symbols() []string {
	out := make([]string, len(t.symbols))
	copy(out, t.symbols)
	return out
}

// LastUpdated returns when a price was last recorded. Zero if never.
func (t *Tracker) LastUpdated() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}
