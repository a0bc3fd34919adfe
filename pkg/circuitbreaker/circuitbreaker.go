// Package circuitbreaker stops calling an external service that keeps failing.
// Learnify talks to two best-effort services, the price feed and the wallet
// bridge; while a breaker is open their calls fail immediately instead of
// waiting for another timeout.
// No external dependencies - uses only standard library.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents the current state of the circuit breaker.
type State int

const (
	StateClosed   State = iota // calls pass through
	StateOpen                  // calls are rejected
	StateHalfOpen              // a single trial call is allowed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when a call is rejected without being made.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Config holds circuit breaker configuration.
type Config struct {
	// Name identifies this breaker in logs and metrics.
	Name string

	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold int

	// Cooldown is how long the circuit stays open before a trial call is allowed.
	Cooldown time.Duration

	// OnStateChange is called, without the lock held, after every transition.
	OnStateChange func(name string, from, to State)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
	}
}

// Option is a functional option for configuring the circuit breaker.
type Option func(*Config)

// WithFailureThreshold sets the failure threshold.
func WithFailureThreshold(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.FailureThreshold = n
		}
	}
}

// WithCooldown sets how long the circuit stays open.
func WithCooldown(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.Cooldown = d
		}
	}
}

// WithOnStateChange sets the state change callback.
func WithOnStateChange(fn func(name string, from, to State)) Option {
	return func(c *Config) {
		c.OnStateChange = fn
	}
}

// Counts holds lifetime and consecutive outcome counters.
type Counts struct {
	Requests            int
	Rejected            int
	TotalFailures       int
	ConsecutiveFailures int
}

// CircuitBreaker implements the circuit breaker pattern with a single
// trial call in the half-open state.
type CircuitBreaker struct {
	config Config
	now    func() time.Time

	mu       sync.Mutex
	state    State
	counts   Counts
	openedAt time.Time
	probing  bool
}

// New creates a new CircuitBreaker with the given name and options.
func New(name string, opts ...Option) *CircuitBreaker {
	config := DefaultConfig(name)
	for _, opt := range opts {
		opt(&config)
	}
	return &CircuitBreaker{config: config, now: time.Now}
}

// Execute calls fn unless the circuit is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.before(); err != nil {
		return err
	}
	err := fn(ctx)
	cb.after(err)
	return err
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	var from State
	transition := false
	defer func() {
		cb.mu.Unlock()
		if transition {
			cb.notify(from, StateHalfOpen)
		}
	}()

	cb.counts.Requests++
	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.config.Cooldown {
			cb.counts.Rejected++
			return ErrCircuitOpen
		}
		from, transition = cb.state, true
		cb.state = StateHalfOpen
		cb.probing = true
		return nil
	case StateHalfOpen:
		if cb.probing {
			cb.counts.Rejected++
			return ErrCircuitOpen
		}
		cb.probing = true
		return nil
	default:
		return nil
	}
}

func (cb *CircuitBreaker) after(err error) {
	cb.mu.Lock()
	from := cb.state
	to := from

	if cb.isFailure(err) {
		cb.counts.TotalFailures++
		cb.counts.ConsecutiveFailures++
		if from == StateHalfOpen || cb.counts.ConsecutiveFailures >= cb.config.FailureThreshold {
			to = StateOpen
			cb.openedAt = cb.now()
		}
	} else {
		cb.counts.ConsecutiveFailures = 0
		to = StateClosed
	}

	cb.state = to
	cb.probing = false
	cb.mu.Unlock()

	if to != from {
		cb.notify(from, to)
	}
}

func (cb *CircuitBreaker) isFailure(err error) bool {
	// Cancellation is the caller giving up, not the service failing.
	return err != nil && !errors.Is(err, context.Canceled)
}

func (cb *CircuitBreaker) notify(from, to State) {
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Counts returns the current counts.
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.counts
}

// Reset closes the circuit and clears the counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.counts = Counts{}
	cb.probing = false
}

// Name returns the name of the circuit breaker.
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

// PriceFeedBreaker returns the breaker used for the spot price feed.
// The feed is polled every 30s, so three misses in a row mean a real outage.
func PriceFeedBreaker(onStateChange func(name string, from, to State)) *CircuitBreaker {
	return New(
		"price-feed",
		WithFailureThreshold(3),
		WithCooldown(2*time.Minute),
		WithOnStateChange(onStateChange),
	)
}

// WalletBridgeBreaker returns the breaker used for the wallet bridge.
func WalletBridgeBreaker(onStateChange func(name string, from, to State)) *CircuitBreaker {
	return New(
		"wallet-bridge",
		WithFailureThreshold(5),
		WithCooldown(30*time.Second),
		WithOnStateChange(onStateChange),
	)
}
