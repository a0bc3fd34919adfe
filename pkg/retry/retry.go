// Package retry retries startup connections to backing services with
// exponential backoff and jitter.
//
// Only connection setup is retried. Request-path calls such as the price
// feed fail fast and are retried by their own poll.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Config contains retry settings.
type Config struct {
	// MaxAttempts is the maximum number of attempts, including the first.
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries.
	MaxDelay time.Duration

	// Multiplier is the factor by which the delay grows after each attempt.
	Multiplier float64

	// JitterFactor randomizes each delay by up to this fraction.
	JitterFactor float64

	// Logger receives a warning before every retry.
	Logger *slog.Logger
}

// DefaultConfig returns settings suited to connecting to a database or Redis
// that may still be starting up.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  5,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.2,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = d.InitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}
	if c.Multiplier < 1 {
		c.Multiplier = d.Multiplier
	}
	if c.JitterFactor < 0 || c.JitterFactor > 1 {
		c.JitterFactor = d.JitterFactor
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

func (c Config) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialDelay
	b.MaxInterval = c.MaxDelay
	b.Multiplier = c.Multiplier
	b.RandomizationFactor = c.JitterFactor
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.MaxAttempts-1)), ctx)
}

// Do runs operation until it succeeds, returns a Permanent error, the
// attempts run out or ctx ends. The last error is returned.
func Do(ctx context.Context, name string, cfg Config, operation func(ctx context.Context) error) error {
	cfg = cfg.withDefaults()

	attempt := 0
	notify := func(err error, delay time.Duration) {
		cfg.Logger.Warn("connection attempt failed, retrying",
			"target", name,
			"attempt", attempt,
			"delay", delay.String(),
			"error", err,
		)
	}

	return backoff.RetryNotify(func() error {
		attempt++
		return operation(ctx)
	}, cfg.backOff(ctx), notify)
}

// DoWithData is Do for operations that return a value.
func DoWithData[T any](ctx context.Context, name string, cfg Config, operation func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Do(ctx, name, cfg, func(ctx context.Context) error {
		var opErr error
		result, opErr = operation(ctx)
		return opErr
	})
	return result, err
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
