// Package market tracks spot prices of the assets shown on the dashboard.
// Prices come from an external feed and are best effort: a missing or
// failed sample is simply not recorded.
package market

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"
)

// DefaultHistorySize is the number of samples kept per symbol.
const DefaultHistorySize = 120

// PriceFeed is the external spot-price capability.
// Symbols missing from the result had no price available.
type PriceFeed interface {
	FetchPrices(ctx context.Context, symbols []string) (map[string]float64, error)
}

// Sample is one observed spot price.
type Sample struct {
	Price float64   `json:"price"`
	At    time.Time `json:"at"`
}

// Quote summarises the recorded history of one symbol.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	UpdatedAt time.Time `json:"updated_at"`
	ChangePct float64   `json:"change_pct"`
	Samples   int       `json:"samples"`
}

// History is a bounded per-symbol price history.
// History is not safe for concurrent use.
type History struct {
	size    int
	samples map[string][]Sample
}

// NewHistory creates a history keeping at most size samples per symbol.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{size: size, samples: make(map[string][]Sample)}
}

// NormalizeSymbol canonicalises a symbol for use as a key.
func NormalizeSymbol(symbol string) string {
	return strings.ToLower(strings.TrimSpace(symbol))
}

// Record appends every valid price in prices. Non-finite and non-positive
// prices are dropped. It returns the number of samples recorded.
func (h *History) Record(prices map[string]float64, at time.Time) int {
	recorded := 0
	for symbol, price := range prices {
		if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
			continue
		}
		key := NormalizeSymbol(symbol)
		if key == "" {
			continue
		}

		s := append(h.samples[key], Sample{Price: price, At: at})
		if len(s) > h.size {
			s = s[len(s)-h.size:]
		}
		h.samples[key] = s
		recorded++
	}
	return recorded
}

// Samples returns a copy of the history for symbol, oldest first.
func (h *History) Samples(symbol string) []Sample {
	s := h.samples[NormalizeSymbol(symbol)]
	out := make([]Sample, len(s))
	copy(out, s)
	return out
}

// Quote returns the latest price of symbol and its change since the oldest
// retained sample.
func (h *History) Quote(symbol string) (Quote, bool) {
	key := NormalizeSymbol(symbol)
	s := h.samples[key]
	if len(s) == 0 {
		return Quote{}, false
	}

	first, last := s[0], s[len(s)-1]
	return Quote{
		Symbol:    key,
		Price:     last.Price,
		UpdatedAt: last.At,
		ChangePct: (last.Price - first.Price) / first.Price * 100,
		Samples:   len(s),
	}, true
}

// Quotes returns a quote for every symbol with history, ordered by symbol.
func (h *History) Quotes() []Quote {
	symbols := make([]string, 0, len(h.samples))
	for s := range h.samples {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	quotes := make([]Quote, 0, len(symbols))
	for _, s := range symbols {
		if q, ok := h.Quote(s); ok {
			quotes = append(quotes, q)
		}
	}
	return quotes
}
