package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnify/learnify-hub/internal/domain/streak"
	"github.com/learnify/learnify-hub/pkg/circuitbreaker"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.RolloverApplied(streak.OutcomeFreezeConsumed)
	m.RolloverApplied(streak.OutcomeFreezeConsumed)
	m.FreezeRequested("armed")
	m.StateCommitted("Reset", errors.New("db down"))
	m.JobFinished("rollover_check", 20*time.Millisecond, nil)
	m.PricesRefreshed(3, nil)
	m.PricesRefreshed(0, errors.New("timeout"))
	m.ObserveHTTP(http.MethodGet, "/health", 200, time.Millisecond)
	m.BreakerStateChanged("price-feed", circuitbreaker.StateClosed, circuitbreaker.StateOpen)
	m.EventPublished("freeze.armed")
	m.EventHandled("freeze.armed", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.rollovers.WithLabelValues("freeze_consumed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.freezeRequests.WithLabelValues("armed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commits.WithLabelValues("Reset", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("rollover_check", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.priceSamples))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.priceRefreshes.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/health", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.breakerState.WithLabelValues("price-feed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsTotal.WithLabelValues("freeze.armed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventHandlers.WithLabelValues("freeze.armed", "error")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.FreezeRequested("insufficient_balance")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `learnify_freeze_requests_total{result="insufficient_balance"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
