// Package session hosts the streak engine for one learner at a time.
//
// A Controller owns the activity log, the freeze guard, the derived stats and
// the day-rollover clock of a single learner, and is the only entry point for
// changing them. Every change is applied to a copy, persisted as one atomic
// mutation, and only then made visible.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/learnify/learnify-hub/internal/domain/leaderboard"
	"github.com/learnify/learnify-hub/internal/domain/ledger"
	"github.com/learnify/learnify-hub/internal/domain/shared"
	"github.com/learnify/learnify-hub/internal/domain/staking"
	"github.com/learnify/learnify-hub/internal/domain/streak"
	"github.com/learnify/learnify-hub/internal/domain/tier"
	"github.com/learnify/learnify-hub/internal/domain/wallet"
	"github.com/learnify/learnify-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains controller settings.
type Config struct {
	// FreezeCost is the spendable-token price of a streak freeze.
	FreezeCost int

	// TokensPerDay is the number of LEARNY tokens earned per active day.
	TokensPerDay int

	// SeedDays is the length of the synthetic history given to a new learner.
	// Zero disables seeding.
	SeedDays int

	// SeedActiveRatio is the probability that a seeded day is active.
	SeedActiveRatio float64

	// Location is the timezone calendar days are counted in.
	Location *time.Location

	// MaxNotices bounds the queue of undelivered notices.
	MaxNotices int
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		FreezeCost:      streak.DefaultFreezeCost,
		TokensPerDay:    tier.DefaultTokensPerDay,
		SeedDays:        30,
		SeedActiveRatio: 0.8,
		Location:        time.UTC,
		MaxNotices:      20,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.FreezeCost <= 0 {
		c.FreezeCost = d.FreezeCost
	}
	if c.TokensPerDay <= 0 {
		c.TokensPerDay = d.TokensPerDay
	}
	if c.SeedDays < 0 {
		c.SeedDays = 0
	}
	if c.SeedActiveRatio <= 0 || c.SeedActiveRatio > 1 {
		c.SeedActiveRatio = d.SeedActiveRatio
	}
	if c.Location == nil {
		c.Location = d.Location
	}
	if c.MaxNotices <= 0 {
		c.MaxNotices = d.MaxNotices
	}
	return c
}

// Metrics receives controller events.
type Metrics interface {
	RolloverApplied(outcome streak.Outcome)
	FreezeRequested(result string)
	StateCommitted(op string, err error)
}

type nopMetrics struct{}

func (nopMetrics) RolloverApplied(streak.Outcome) {}
func (nopMetrics) FreezeRequested(string)         {}
func (nopMetrics) StateCommitted(string, error)   {}

// Freeze request results reported to Metrics.
const (
	FreezeResultArmed        = "armed"
	FreezeResultInsufficient = "insufficient_balance"
	FreezeResultConflict     = "already_armed"
	FreezeResultError        = "error"
)

// Dependencies contains the collaborators of a controller.
type Dependencies struct {
	Repository streak.Repository
	Ledger     ledger.Ledger
	Ladder     *tier.Ladder

	// Board receives the learner's token total after every change. Optional.
	Board leaderboard.Board

	// Events receives a domain event after every persisted change. Optional.
	// Events are published while the controller is locked, so handlers must
	// not call back into the controller on the publishing goroutine.
	Events shared.EventPublisher

	// Connectors are the installed wallet extensions. Optional.
	Connectors map[wallet.Kind]wallet.Connector

	Clock   Clock
	Metrics Metrics
	Logger  *logger.Logger

	// RandFloat returns a number in [0, 1) for synthetic seeding.
	RandFloat func() float64
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Ladder == nil {
		d.Ladder = tier.DefaultLadder()
	}
	if d.Clock == nil {
		d.Clock = RealClock{}
	}
	if d.Metrics == nil {
		d.Metrics = nopMetrics{}
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.RandFloat == nil {
		d.RandFloat = rand.Float64
	}
	return d
}

func (d Dependencies) validate() error {
	if d.Repository == nil {
		return errors.New("session: repository is required")
	}
	if d.Ledger == nil {
		return errors.New("session: ledger is required")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTROLLER
// ══════════════════════════════════════════════════════════════════════════════

// Controller owns the streak state of one learner.
// All methods are safe for concurrent use; mutations are serialized.
type Controller struct {
	mu sync.Mutex

	userID streak.UserID
	cfg    Config
	deps   Dependencies
	logger *logger.Logger

	log      *streak.ActivityLog
	guard    *streak.FreezeGuard
	stats    streak.Stats
	rollover *DayRolloverClock
	notices  *noticeQueue

	wallets *wallet.Registry
	staking *staking.Simulator
}

// View is a consistent snapshot of a learner's streak state.
type View struct {
	UserID     streak.UserID      `json:"user_id"`
	Today      streak.Day         `json:"today"`
	Stats      streak.Stats       `json:"stats"`
	Freeze     streak.FreezeState `json:"freeze"`
	FreezeCost int                `json:"freeze_cost"`
	Spendable  int                `json:"spendable_balance"`
	Tier       tier.Standing      `json:"tier"`
	Entries    []streak.Entry     `json:"entries"`
}

// Load builds a controller for userID from persisted state.
func Load(ctx context.Context, userID streak.UserID, cfg Config, deps Dependencies) (*Controller, error) {
	if !userID.IsValid() {
		return nil, shared.ErrInvalidUserID
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	deps = deps.withDefaults()

	snap, err := deps.Repository.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("session: load %s: %w", userID, err)
	}

	c := &Controller{
		userID:   userID,
		cfg:      cfg,
		deps:     deps,
		logger:   deps.Logger.With(logger.Component("session"), logger.UserID(userID.String())),
		log:      streak.NewActivityLogFromEntries(snap.Entries),
		guard:    streak.RestoreFreezeGuard(cfg.FreezeCost, snap.Freeze),
		rollover: NewDayRolloverClock(cfg.Location),
		notices:  newNoticeQueue(cfg.MaxNotices),
		wallets:  wallet.NewRegistry(deps.Connectors),
		staking:  staking.NewSimulator(),
	}
	c.stats = streak.Compute(c.log)
	return c, nil
}

// isBlank reports whether nothing is stored for the learner yet.
func (c *Controller) isBlank() bool {
	return c.log.Len() == 0 && !c.guard.IsFrozen()
}

// UserID returns the learner this controller belongs to.
func (c *Controller) UserID() streak.UserID {
	return c.userID
}

// Seed gives an empty log a synthetic history of cfg.SeedDays days ending
// yesterday. Today is left for the learner. A non-empty log is left alone.
func (c *Controller) Seed(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.log.Len() > 0 || c.cfg.SeedDays == 0 {
		return nil
	}

	today := c.rollover.Today(c.deps.Clock.Now())
	next := streak.NewActivityLog()
	for i := c.cfg.SeedDays; i >= 1; i-- {
		next.Set(today.AddDays(-i), c.deps.RandFloat() < c.cfg.SeedActiveRatio)
	}

	if err := c.commit(ctx, "Seed", next, c.guard); err != nil {
		return err
	}
	c.publish(shared.NewHistorySeededEvent(c.userID.String(), c.cfg.SeedDays, c.stats.TotalActiveDays, c.deps.Clock.Now()))
	c.logger.Info("seeded synthetic history",
		logger.Int("days", c.cfg.SeedDays),
		logger.Streak(c.stats.CurrentStreak),
	)
	return nil
}

// CheckRollover polls the day-rollover clock and, when the calendar day has
// changed since the last check, applies the rollover rule for today.
// If persisting fails the check is forgotten so the next poll retries it.
func (c *Controller) CheckRollover(ctx context.Context) (streak.Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.deps.Clock.Now()
	previous := *c.rollover

	today, changed := c.rollover.Check(now)
	if !changed {
		return streak.OutcomeNoChange, nil
	}

	previousStreak := c.stats.CurrentStreak
	next := c.log.Clone()
	nextGuard := c.guard.Clone()
	outcome := streak.Rollover(next, nextGuard, today)
	if outcome == streak.OutcomeNoChange {
		c.deps.Metrics.RolloverApplied(outcome)
		return outcome, nil
	}

	if err := c.commit(ctx, "Rollover", next, nextGuard); err != nil {
		*c.rollover = previous
		return streak.OutcomeNoChange, err
	}

	switch outcome {
	case streak.OutcomeFreezeConsumed:
		c.notices.push(NoticeSuccess, msgFreezeUsed, now)
		c.publish(shared.NewFreezeConsumedEvent(c.userID.String(), today.String(), now))
	case streak.OutcomeStreakBroken:
		c.notices.push(NoticeWarning, msgStreakBroken, now)
		c.publish(shared.NewStreakBrokenEvent(c.userID.String(), today.String(), previousStreak, now))
	}
	c.deps.Metrics.RolloverApplied(outcome)
	c.logger.Info("day rollover applied",
		logger.Day(today.String()),
		logger.String("outcome", string(outcome)),
		logger.Streak(c.stats.CurrentStreak),
	)
	return outcome, nil
}

// RecordActivity marks today as active after a completed lesson.
// date is optional; when set it must name today, so a client and the server
// never disagree on which day was credited. Past days are never rewritten,
// but today's entry may move from inactive to active.
func (c *Controller) RecordActivity(ctx context.Context, date string) (streak.Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.deps.Clock.Now()
	today := c.rollover.Today(now)

	if date != "" {
		day, err := streak.ParseDay(date)
		if err != nil {
			return c.stats, err
		}
		if day.After(today) {
			return c.stats, shared.ErrFutureDay
		}
		if day.Before(today) {
			return c.stats, shared.ErrDayRecorded
		}
	}

	if c.log.Get(today) {
		return c.stats, nil
	}

	next := c.log.Clone()
	next.Set(today, true)
	if err := c.commit(ctx, "RecordActivity", next, c.guard); err != nil {
		return c.stats, err
	}

	c.notices.push(NoticeSuccess, fmt.Sprintf(msgActivityRecorded, today), now)
	c.publish(shared.NewActivityRecordedEvent(c.userID.String(), today.String(), c.stats.CurrentStreak, c.tokens(), now))
	return c.stats, nil
}

// RequestFreeze arms the freeze guard, paying its cost from the spendable
// balance. An insufficient balance is rejected with a notice and no change.
func (c *Controller) RequestFreeze(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.deps.Clock.Now()
	cost := c.guard.Cost()

	balance, err := c.deps.Ledger.Balance(ctx, c.userID)
	if err != nil {
		c.deps.Metrics.FreezeRequested(FreezeResultError)
		return fmt.Errorf("session: read balance: %w", err)
	}

	nextGuard := c.guard.Clone()
	if _, err := nextGuard.RequestFreeze(balance); err != nil {
		c.rejectFreeze(err, now)
		return err
	}

	if _, err := c.deps.Ledger.Debit(ctx, c.userID, cost); err != nil {
		c.rejectFreeze(err, now)
		return err
	}

	if err := c.commit(ctx, "RequestFreeze", c.log, nextGuard); err != nil {
		if _, cerr := c.deps.Ledger.Credit(ctx, c.userID, cost); cerr != nil {
			c.logger.Error("failed to refund freeze after persist error",
				logger.Int("amount", cost),
				logger.Err(cerr),
			)
		}
		c.deps.Metrics.FreezeRequested(FreezeResultError)
		return err
	}

	c.deps.Metrics.FreezeRequested(FreezeResultArmed)
	c.notices.push(NoticeSuccess, fmt.Sprintf(msgFreezeArmed, cost), now)
	c.publish(shared.NewFreezeArmedEvent(c.userID.String(), cost, now))
	return nil
}

func (c *Controller) rejectFreeze(err error, now time.Time) {
	switch {
	case errors.Is(err, shared.ErrInsufficientBalance):
		c.deps.Metrics.FreezeRequested(FreezeResultInsufficient)
		c.notices.push(NoticeError, fmt.Sprintf(msgInsufficient, c.guard.Cost()), now)
	case errors.Is(err, shared.ErrFreezeArmed):
		c.deps.Metrics.FreezeRequested(FreezeResultConflict)
	default:
		c.deps.Metrics.FreezeRequested(FreezeResultError)
	}
}

// RemoveFreeze cancels a pending freeze without refund.
// It reports whether a freeze was pending.
func (c *Controller) RemoveFreeze(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	nextGuard := c.guard.Clone()
	if !nextGuard.Remove() {
		return false, nil
	}
	if err := c.commit(ctx, "RemoveFreeze", c.log, nextGuard); err != nil {
		return false, err
	}

	now := c.deps.Clock.Now()
	c.notices.push(NoticeInfo, msgFreezeRemoved, now)
	c.publish(shared.NewFreezeRemovedEvent(c.userID.String(), now))
	return true, nil
}

// Reset clears the log, zeroes the stats and puts the guard back to idle,
// all at once. On a storage error nothing changes.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	previousTokens := c.tokens()
	idle := streak.FreezeIdle
	m := streak.Mutation{ClearLog: true, Freeze: &idle}
	if err := c.apply(ctx, "Reset", m, streak.NewActivityLog(), streak.NewFreezeGuard(c.cfg.FreezeCost)); err != nil {
		return err
	}

	if c.deps.Board != nil {
		if err := c.deps.Board.Remove(ctx, c.userID); err != nil {
			c.logger.Warn("failed to remove learner from leaderboard", logger.Err(err))
		}
	}

	now := c.deps.Clock.Now()
	c.notices.push(NoticeInfo, msgReset, now)
	c.publish(shared.NewStreakResetEvent(c.userID.String(), previousTokens, now))
	c.logger.Info("streak reset")
	return nil
}

// View returns a consistent snapshot of the learner's state.
func (c *Controller) View(ctx context.Context) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	balance, err := c.deps.Ledger.Balance(ctx, c.userID)
	if err != nil {
		return View{}, fmt.Errorf("session: read balance: %w", err)
	}

	return View{
		UserID:     c.userID,
		Today:      c.rollover.Today(c.deps.Clock.Now()),
		Stats:      c.stats,
		Freeze:     c.guard.State(),
		FreezeCost: c.guard.Cost(),
		Spendable:  balance,
		Tier:       c.standing(),
		Entries:    c.log.Entries(),
	}, nil
}

// Stats returns the current derived counters.
func (c *Controller) Stats() streak.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Freeze returns the current guard state.
func (c *Controller) Freeze() streak.FreezeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.guard.State()
}

// Tokens returns the LEARNY tokens derived from active days.
func (c *Controller) Tokens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens()
}

// Notices returns and clears the undelivered notices, oldest first.
func (c *Controller) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notices.drain()
}

// ══════════════════════════════════════════════════════════════════════════════
// WALLETS AND STAKING
// ══════════════════════════════════════════════════════════════════════════════

// ConnectWallet connects a wallet extension. The call to the extension is
// made without holding the controller lock.
func (c *Controller) ConnectWallet(ctx context.Context, kind wallet.Kind) (wallet.Connection, error) {
	conn, err := c.wallets.Connect(ctx, kind)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.deps.Clock.Now()
	if err != nil {
		c.notices.push(NoticeError, msgWalletFailed, now)
		c.logger.Warn("wallet connection failed", logger.Wallet(string(kind)), logger.Err(err))
		return wallet.Connection{}, err
	}

	c.notices.push(NoticeSuccess, fmt.Sprintf(msgWalletConnected, kind), now)
	return conn, nil
}

// DisconnectWallet forgets a connected wallet.
func (c *Controller) DisconnectWallet(kind wallet.Kind) error {
	if err := c.wallets.Disconnect(kind); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices.push(NoticeInfo, fmt.Sprintf(msgWalletRemoved, kind), c.deps.Clock.Now())
	return nil
}

// Wallets lists the connected wallets.
func (c *Controller) Wallets() []wallet.Connection {
	return c.wallets.List()
}

// Stake opens a simulated stake.
func (c *Controller) Stake(amount int64, rate float64) (staking.Stake, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.staking.Stake(amount, rate, c.deps.Clock.Now())
}

// StakeSummary reports the simulated stake and its accrued reward.
func (c *Controller) StakeSummary() staking.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.staking.Summary(c.deps.Clock.Now())
}

// Unstake closes the simulated stake.
func (c *Controller) Unstake() (staking.Payout, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.staking.Unstake(c.deps.Clock.Now())
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERNALS
// ══════════════════════════════════════════════════════════════════════════════

func (c *Controller) tokens() int {
	return tier.TokensForActiveDays(c.stats.TotalActiveDays, c.cfg.TokensPerDay)
}

func (c *Controller) standing() tier.Standing {
	return c.deps.Ladder.StandingFor(c.tokens())
}

// commit persists the difference between the current and the next state and
// swaps the next state in.
func (c *Controller) commit(ctx context.Context, op string, next *streak.ActivityLog, nextGuard *streak.FreezeGuard) error {
	m := streak.Diff(c.log, next, c.guard.State(), nextGuard.State())
	return c.apply(ctx, op, m, next, nextGuard)
}

// apply stores m and, only on success, makes next visible together with the
// recomputed stats and tier. Callers hold c.mu.
func (c *Controller) apply(ctx context.Context, op string, m streak.Mutation, next *streak.ActivityLog, nextGuard *streak.FreezeGuard) error {
	if !m.IsEmpty() {
		if err := c.deps.Repository.Apply(ctx, c.userID, m); err != nil {
			c.deps.Metrics.StateCommitted(op, err)
			c.logger.Error("failed to persist streak state", logger.Operation(op), logger.Err(err))
			return fmt.Errorf("session: %s: %w", op, err)
		}
	}
	c.deps.Metrics.StateCommitted(op, nil)

	before := c.standing().Current

	c.log = next
	c.guard = nextGuard
	c.stats = streak.Compute(c.log)

	// A seeded history is a starting point, not an unlock.
	after := c.standing().Current
	if op != "Seed" && after.Threshold > before.Threshold {
		now := c.deps.Clock.Now()
		c.notices.push(NoticeSuccess, fmt.Sprintf(msgTierUp, after.Name), now)
		c.publish(shared.NewTierUnlockedEvent(c.userID.String(), after.Name, c.tokens(), now))
		c.logger.Info("tier unlocked", logger.TierName(after.Name), logger.Tokens(c.tokens()))
	}

	if c.deps.Board != nil && op != "Reset" {
		score := leaderboard.Score{UserID: c.userID, Tokens: c.tokens()}
		if err := c.deps.Board.Submit(ctx, score); err != nil {
			c.logger.Warn("failed to publish leaderboard score", logger.Err(err))
		}
	}
	return nil
}

// Notify queues a notice raised outside the controller, such as a leaderboard
// milestone.
func (c *Controller) Notify(kind NoticeKind, message string) Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notices.push(kind, message, c.deps.Clock.Now())
}

// publish hands e to the event publisher. A publish failure is logged and
// never undoes the change that produced the event.
func (c *Controller) publish(e shared.Event) {
	if c.deps.Events == nil {
		return
	}
	if err := c.deps.Events.Publish(e); err != nil {
		c.logger.Warn("failed to publish event",
			logger.String("event_type", string(e.EventType())),
			logger.Err(err),
		)
	}
}
