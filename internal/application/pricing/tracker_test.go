package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnify/learnify-hub/internal/domain/shared"
)

type scriptedFeed struct {
	responses []map[string]float64
	errs      []error
	calls     int
	symbols   []string
}

func (f *scriptedFeed) FetchPrices(_ context.Context, symbols []string) (map[string]float64, error) {
	i := f.calls
	f.calls++
	f.symbols = symbols
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	return f.responses[i], nil
}

type countingMetrics struct {
	ok, failed int
}

func (m *countingMetrics) PricesRefreshed(_ int, err error) {
	if err != nil {
		m.failed++
		return
	}
	m.ok++
}

func TestTracker_RefreshRecordsPrices(t *testing.T) {
	feed := &scriptedFeed{responses: []map[string]float64{
		{"bitcoin": 100, "internet-computer": 10},
		{"bitcoin": 110, "internet-computer": 0},
	}}
	metrics := &countingMetrics{}
	tr := NewTracker(feed, Config{Symbols: []string{"Bitcoin", "internet-computer", "bitcoin", " "}}, metrics, nil)

	base := time.Date(2024, 9, 3, 10, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return base }

	assert.Equal(t, []string{"bitcoin", "internet-computer"}, tr.Symbols())

	n, err := tr.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"bitcoin", "internet-computer"}, feed.symbols)

	tr.now = func() time.Time { return base.Add(30 * time.Second) }
	n, err = tr.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n, "zero prices are dropped")

	q, err := tr.Quote("BITCOIN")
	require.NoError(t, err)
	assert.Equal(t, 110.0, q.Price)
	assert.InDelta(t, 10.0, q.ChangePct, 1e-9)
	assert.Equal(t, 2, q.Samples)

	assert.Len(t, tr.History("internet-computer"), 1)
	assert.Len(t, tr.Quotes(), 2)
	assert.Equal(t, base.Add(30*time.Second), tr.LastUpdated())
	assert.Equal(t, 2, metrics.ok)
}

func TestTracker_FailureKeepsPreviousPrices(t *testing.T) {
	feed := &scriptedFeed{
		responses: []map[string]float64{{"bitcoin": 100}, nil},
		errs:      []error{nil, errors.New("connection refused")},
	}
	metrics := &countingMetrics{}
	tr := NewTracker(feed, Config{Symbols: []string{"bitcoin"}}, metrics, nil)

	_, err := tr.Refresh(context.Background())
	require.NoError(t, err)

	_, err = tr.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrPriceUnavailable)
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)

	q, err := tr.Quote("bitcoin")
	require.NoError(t, err)
	assert.Equal(t, 100.0, q.Price)
	assert.Equal(t, 1, metrics.failed)
	assert.Equal(t, 2, feed.calls, "no retry after a failure")
}

func TestTracker_WithoutFeedOrHistory(t *testing.T) {
	tr := NewTracker(nil, Config{}, nil, nil)
	assert.Equal(t, DefaultSymbols, tr.Symbols())

	_, err := tr.Refresh(context.Background())
	assert.ErrorIs(t, err, shared.ErrPriceUnavailable)

	_, err = tr.Quote("bitcoin")
	assert.True(t, shared.IsNotFound(err))
	assert.Empty(t, tr.Quotes())
	assert.True(t, tr.LastUpdated().IsZero())
}
