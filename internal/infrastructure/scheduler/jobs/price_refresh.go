package jobs

import (
	"context"
	"fmt"
	"log/slog"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRICE REFRESH JOB
// ══════════════════════════════════════════════════════════════════════════════

// PriceRefresher fetches the latest spot prices into the price history.
type PriceRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

// PriceRefreshJob polls the external price feed.
// A failed poll leaves the previous prices in place; the next poll runs on
// schedule and there is no retry in between.
type PriceRefreshJob struct {
	refresher PriceRefresher
	logger    *slog.Logger
}

// NewPriceRefreshJob creates a new price refresh job.
func NewPriceRefreshJob(refresher PriceRefresher, logger *slog.Logger) *PriceRefreshJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &PriceRefreshJob{refresher: refresher, logger: logger}
}

// Name returns the job name.
func (j *PriceRefreshJob) Name() string {
	return "price_refresh"
}

// Description returns a human-readable description.
func (j *PriceRefreshJob) Description() string {
	return "Fetches spot prices for the dashboard assets"
}

// Run executes the price refresh.
func (j *PriceRefreshJob) Run(ctx context.Context) error {
	recorded, err := j.refresher.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("price refresh: %w", err)
	}
	j.logger.Debug("prices refreshed", "recorded", recorded)
	return nil
}
