package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/learnify/learnify-hub/internal/domain/shared"
	"github.com/learnify/learnify-hub/internal/domain/streak"
	"github.com/learnify/learnify-hub/pkg/logger"
)

// Manager keeps one Controller per learner, loading them lazily.
// Controllers are never shared between learners.
type Manager struct {
	mu       sync.Mutex
	sessions map[streak.UserID]*Controller
	loads    singleflight.Group

	cfg    Config
	deps   Dependencies
	logger *logger.Logger
}

// NewManager creates a manager.
func NewManager(cfg Config, deps Dependencies) (*Manager, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	deps = deps.withDefaults()
	return &Manager{
		sessions: make(map[streak.UserID]*Controller),
		cfg:      cfg.withDefaults(),
		deps:     deps,
		logger:   deps.Logger.With(logger.Component("session_manager")),
	}, nil
}

// Session returns the controller for userID, loading it on first use.
// The rollover rule is applied once to catch up with a day change that
// happened while the learner was not loaded, and a learner with no history
// is then seeded. Concurrent first calls for one learner share a single load.
func (m *Manager) Session(ctx context.Context, userID streak.UserID) (*Controller, error) {
	return m.open(ctx, userID, true)
}

// Lookup returns the controller for a learner that already has stored state.
// Unknown learners yield ErrLearnerNotFound and nothing is created.
func (m *Manager) Lookup(ctx context.Context, userID streak.UserID) (*Controller, error) {
	return m.open(ctx, userID, false)
}

func (m *Manager) open(ctx context.Context, userID streak.UserID, create bool) (*Controller, error) {
	if !userID.IsValid() {
		return nil, shared.ErrInvalidUserID
	}

	for {
		if c, ok := m.loaded(userID); ok {
			return c, nil
		}

		v, err, _ := m.loads.Do(userID.String(), func() (interface{}, error) {
			// Shared by every waiter, so one caller going away must not fail the rest.
			return m.load(context.WithoutCancel(ctx), userID, create)
		})
		if err != nil {
			return nil, err
		}
		if c, _ := v.(*Controller); c != nil {
			return c, nil
		}
		if !create {
			return nil, shared.ErrLearnerNotFound
		}
		// Joined a lookup that found nothing; load again, this time creating.
	}
}

// load builds and registers the controller. It returns nil without error
// when create is false and the learner has no stored state.
func (m *Manager) load(ctx context.Context, userID streak.UserID, create bool) (*Controller, error) {
	if c, ok := m.loaded(userID); ok {
		return c, nil
	}

	c, err := Load(ctx, userID, m.cfg, m.deps)
	if err != nil {
		return nil, err
	}
	if !create && c.isBlank() {
		return nil, nil
	}
	if _, err := c.CheckRollover(ctx); err != nil {
		return nil, fmt.Errorf("session: initial rollover %s: %w", userID, err)
	}
	// Seeding after the catch-up check keeps a fresh history intact until
	// the next real day change.
	if err := c.Seed(ctx); err != nil {
		return nil, fmt.Errorf("session: seed %s: %w", userID, err)
	}

	m.mu.Lock()
	m.sessions[userID] = c
	m.mu.Unlock()
	m.logger.Debug("session loaded", logger.UserID(userID.String()))
	return c, nil
}

func (m *Manager) loaded(userID streak.UserID) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.sessions[userID]
	return c, ok
}

// Restore loads every learner with stored state so the rollover poll covers
// them from startup. Learners that fail to load are logged and skipped.
func (m *Manager) Restore(ctx context.Context) (int, error) {
	users, err := m.deps.Repository.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("session: list users: %w", err)
	}

	loaded := 0
	for _, u := range users {
		if _, err := m.Session(ctx, u); err != nil {
			m.logger.Warn("failed to restore session", logger.UserID(u.String()), logger.Err(err))
			continue
		}
		loaded++
	}
	return loaded, nil
}

// Close ends a learner's session. Its persisted state is kept.
func (m *Manager) Close(userID streak.UserID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[userID]; !ok {
		return false
	}
	delete(m.sessions, userID)
	return true
}

// Notify queues a notice for a loaded learner. It reports false when the
// learner has no active session; such notices are dropped.
func (m *Manager) Notify(userID streak.UserID, kind NoticeKind, message string) bool {
	c, ok := m.loaded(userID)
	if !ok {
		return false
	}
	c.Notify(kind, message)
	return true
}

// Sessions returns the loaded controllers ordered by user ID.
func (m *Manager) Sessions() []*Controller {
	m.mu.Lock()
	out := make([]*Controller, 0, len(m.sessions))
	for _, c := range m.sessions {
		out = append(out, c)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].userID < out[j].userID })
	return out
}

// RolloverReport summarises one pass of CheckAll.
type RolloverReport struct {
	Checked         int
	FreezesConsumed int
	StreaksBroken   int
	Failed          int
}

// CheckAll runs the rollover check for every loaded learner.
// A failure for one learner does not stop the others.
func (m *Manager) CheckAll(ctx context.Context) (RolloverReport, error) {
	var (
		report RolloverReport
		errs   []error
	)

	for _, c := range m.Sessions() {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		outcome, err := c.CheckRollover(ctx)
		report.Checked++
		if err != nil {
			report.Failed++
			errs = append(errs, fmt.Errorf("%s: %w", c.userID, err))
			continue
		}

		switch outcome {
		case streak.OutcomeFreezeConsumed:
			report.FreezesConsumed++
		case streak.OutcomeStreakBroken:
			report.StreaksBroken++
		}
	}

	return report, errors.Join(errs...)
}

// Config returns the effective controller configuration.
func (m *Manager) Config() Config {
	return m.cfg
}
