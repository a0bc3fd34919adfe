// Package jobs contains the scheduled jobs of the Learnify service.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/learnify/learnify-hub/internal/application/session"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROLLOVER CHECK JOB
// ══════════════════════════════════════════════════════════════════════════════

// RolloverChecker runs the day-rollover check for every loaded learner.
type RolloverChecker interface {
	CheckAll(ctx context.Context) (session.RolloverReport, error)
}

// RolloverCheckJob polls for a calendar-day change. When the day has advanced
// each learner's freeze is consumed or their streak is closed.
type RolloverCheckJob struct {
	checker RolloverChecker
	logger  *slog.Logger
}

// NewRolloverCheckJob creates a new rollover check job.
func NewRolloverCheckJob(checker RolloverChecker, logger *slog.Logger) *RolloverCheckJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RolloverCheckJob{checker: checker, logger: logger}
}

// Name returns the job name.
func (j *RolloverCheckJob) Name() string {
	return "rollover_check"
}

// Description returns a human-readable description.
func (j *RolloverCheckJob) Description() string {
	return "Detects a new calendar day and applies the streak freeze or break rule"
}

// Run executes the rollover check.
func (j *RolloverCheckJob) Run(ctx context.Context) error {
	report, err := j.checker.CheckAll(ctx)

	if report.FreezesConsumed > 0 || report.StreaksBroken > 0 || report.Failed > 0 {
		j.logger.Info("rollover check finished",
			"checked", report.Checked,
			"freezes_consumed", report.FreezesConsumed,
			"streaks_broken", report.StreaksBroken,
			"failed", report.Failed,
		)
	}

	if err != nil {
		return fmt.Errorf("rollover check: %w", err)
	}
	return nil
}
