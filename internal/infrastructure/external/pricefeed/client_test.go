package pricefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnify/learnify-hub/pkg/circuitbreaker"
)

func TestClient_FetchPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin,internet-computer", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		assert.Equal(t, "demo-key", r.Header.Get("x-cg-demo-api-key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":64000.5},"internet-computer":{"usd":8.25},"ethereum":{"eur":1}}`))
	}))
	defer srv.Close()

	cfg := DefaultClientConfig(srv.URL + "/")
	cfg.APIKey = "demo-key"
	client := NewClient(cfg)

	prices, err := client.FetchPrices(context.Background(), []string{"Bitcoin", "internet-computer"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"bitcoin": 64000.5, "internet-computer": 8.25}, prices)
}

func TestClient_FetchPricesErrors(t *testing.T) {
	var calls atomic.Int32
	var status atomic.Int32
	status.Store(http.StatusInternalServerError)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	client := NewClient(DefaultClientConfig(srv.URL))
	ctx := context.Background()

	_, err := client.FetchPrices(ctx, []string{"bitcoin"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load(), "no retry")

	status.Store(http.StatusTooManyRequests)
	_, err = client.FetchPrices(ctx, []string{"bitcoin"})
	assert.ErrorIs(t, err, ErrRateLimited)

	empty, err := client.FetchPrices(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_BreakerShortCircuits(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := DefaultClientConfig(srv.URL)
	cfg.Breaker = circuitbreaker.New("test", circuitbreaker.WithFailureThreshold(1), circuitbreaker.WithCooldown(time.Hour))
	client := NewClient(cfg)

	_, err := client.FetchPrices(context.Background(), []string{"bitcoin"})
	require.Error(t, err)
	_, err = client.FetchPrices(context.Background(), []string{"bitcoin"})
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ping" {
			w.WriteHeader(http.StatusOK)
			return
		}
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := NewClient(DefaultClientConfig(srv.URL))
	_, err := client.FetchPrices(context.Background(), []string{"bitcoin"})
	assert.ErrorContains(t, err, "unmarshal response")
	assert.True(t, client.IsHealthy(context.Background()))
}
