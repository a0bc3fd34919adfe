package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnify/learnify-hub/internal/domain/shared"
	"github.com/learnify/learnify-hub/internal/domain/streak"
)

func newTestManager(t *testing.T, f *fixture) *Manager {
	t.Helper()
	m, err := NewManager(f.cfg, f.deps)
	require.NoError(t, err)
	return m
}

func TestManager_SessionIsLoadedOnce(t *testing.T) {
	f := newFixture(t, day0)
	m := newTestManager(t, f)
	ctx := context.Background()

	_, err := m.Session(ctx, "  ")
	assert.ErrorIs(t, err, shared.ErrInvalidUserID)

	var wg sync.WaitGroup
	got := make([]*Controller, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := m.Session(ctx, "ada")
			assert.NoError(t, err)
			got[i] = c
		}(i)
	}
	wg.Wait()

	for _, c := range got[1:] {
		assert.Same(t, got[0], c)
	}
	assert.Len(t, m.Sessions(), 1)

	assert.True(t, m.Close("ada"))
	assert.False(t, m.Close("ada"))
	assert.Empty(t, m.Sessions())
}

func TestManager_SeedsNewLearnerWithoutBreakingStreak(t *testing.T) {
	f := newFixture(t, day0)
	f.cfg.SeedDays = 5
	f.deps.RandFloat = func() float64 { return 0 }
	m := newTestManager(t, f)
	ctx := context.Background()

	c, err := m.Session(ctx, "grace")
	require.NoError(t, err)
	assert.Equal(t, 5, c.Stats().CurrentStreak)
	assert.Equal(t, 5, c.Stats().TotalActiveDays)

	snap, err := f.repo.Load(ctx, "grace")
	require.NoError(t, err)
	require.Len(t, snap.Entries, 5)
	assert.Equal(t, day0.AddDays(-5), snap.Entries[0].Day)
	assert.Equal(t, day0.AddDays(-1), snap.Entries[4].Day)

	// The next real day change applies the rollover rule.
	f.nextDay()
	report, err := m.CheckAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Equal(t, 0, report.StreaksBroken, "yesterday was day0, which was never recorded")
}

func TestManager_CheckAll(t *testing.T) {
	f := newFixture(t, day0)
	m := newTestManager(t, f)
	ctx := context.Background()

	frozen, err := m.Session(ctx, "ada")
	require.NoError(t, err)
	plain, err := m.Session(ctx, "bob")
	require.NoError(t, err)

	_, err = frozen.RecordActivity(ctx, "")
	require.NoError(t, err)
	_, err = plain.RecordActivity(ctx, "")
	require.NoError(t, err)
	require.NoError(t, frozen.RequestFreeze(ctx))

	report, err := m.CheckAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, RolloverReport{Checked: 2}, report, "same day, nothing to do")

	f.nextDay()
	report, err = m.CheckAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, RolloverReport{Checked: 2, FreezesConsumed: 1, StreaksBroken: 1}, report)

	assert.Equal(t, 2, frozen.Stats().CurrentStreak)
	assert.Equal(t, streak.FreezeIdle, frozen.Freeze())
	assert.Equal(t, 0, plain.Stats().CurrentStreak)
	assert.Equal(t, 1, plain.Stats().LongestStreak)

	report, err = m.CheckAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, RolloverReport{Checked: 2}, report, "the rule runs once per day")
}

func TestManager_CheckAllReportsFailuresAndRetries(t *testing.T) {
	f := newFixture(t, day0)
	m := newTestManager(t, f)
	ctx := context.Background()

	c, err := m.Session(ctx, "ada")
	require.NoError(t, err)
	_, err = c.RecordActivity(ctx, "")
	require.NoError(t, err)

	f.nextDay()
	f.repo.setFailing(true)
	report, err := m.CheckAll(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ada")
	assert.Equal(t, 1, report.Failed)

	f.repo.setFailing(false)
	report, err = m.CheckAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.StreaksBroken)
}

func TestManager_Restore(t *testing.T) {
	f := newFixture(t, day0)
	f.store(t, "ada", active(day0.AddDays(-2)), active(day0.AddDays(-1)))
	f.store(t, "bob", active(day0.AddDays(-3)))

	m := newTestManager(t, f)
	n, err := m.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sessions := m.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, streak.UserID("ada"), sessions[0].UserID())
	assert.Equal(t, streak.UserID("bob"), sessions[1].UserID())

	// ada missed day0 while the service was down.
	assert.Equal(t, 0, sessions[0].Stats().CurrentStreak)
	assert.Equal(t, 2, sessions[0].Stats().LongestStreak)
}

func TestManager_Notify(t *testing.T) {
	f := newFixture(t, day0)
	m := newTestManager(t, f)

	assert.False(t, m.Notify("ada", NoticeSuccess, "hello"))

	c, err := m.Session(context.Background(), "ada")
	require.NoError(t, err)
	c.Notices()

	assert.True(t, m.Notify("ada", NoticeInfo, "hello"))
	ns := c.Notices()
	require.Len(t, ns, 1)
	assert.Equal(t, NoticeInfo, ns[0].Kind)
}

func TestNewManager_RequiresRepository(t *testing.T) {
	_, err := NewManager(DefaultConfig(), Dependencies{})
	assert.Error(t, err)

	f := newFixture(t, day0)
	m := newTestManager(t, f)
	assert.Equal(t, time.UTC, m.Config().Location)
}

// gatedRepository holds the first Load open until release is closed.
type gatedRepository struct {
	streak.Repository
	loads   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (r *gatedRepository) Load(ctx context.Context, userID streak.UserID) (streak.Snapshot, error) {
	if r.loads.Add(1) == 1 {
		close(r.entered)
		<-r.release
	}
	return r.Repository.Load(ctx, userID)
}

func TestManager_ConcurrentFirstSessionsShareOneLoad(t *testing.T) {
	f := newFixture(t, day0)
	f.cfg.SeedDays = 5
	f.deps.RandFloat = func() float64 { return 0 }
	repo := &gatedRepository{
		Repository: f.repo,
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	f.deps.Repository = repo
	m := newTestManager(t, f)
	ctx := context.Background()

	got := make([]*Controller, 2)
	var wg sync.WaitGroup
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := m.Session(ctx, "ada")
			assert.NoError(t, err)
			got[i] = c
		}(i)
	}

	<-repo.entered
	time.Sleep(20 * time.Millisecond)
	close(repo.release)
	wg.Wait()

	require.NotNil(t, got[0])
	assert.Same(t, got[0], got[1])
	assert.Equal(t, int32(1), repo.loads.Load())

	snap, err := f.repo.Load(ctx, "ada")
	require.NoError(t, err)
	stored := streak.Compute(streak.NewActivityLogFromEntries(snap.Entries))
	assert.Equal(t, 5, stored.TotalActiveDays)
	assert.Equal(t, got[0].Stats(), stored)
}

func TestManager_LookupNeverCreates(t *testing.T) {
	f := newFixture(t, day0)
	f.cfg.SeedDays = 5
	f.deps.RandFloat = func() float64 { return 0 }
	m := newTestManager(t, f)
	ctx := context.Background()

	_, err := m.Lookup(ctx, "ghost")
	assert.ErrorIs(t, err, shared.ErrLearnerNotFound)
	assert.True(t, shared.IsNotFound(err))
	assert.Empty(t, m.Sessions())

	users, err := f.repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	_, err = m.Lookup(ctx, " ")
	assert.ErrorIs(t, err, shared.ErrInvalidUserID)

	// Stored learners are loaded without reseeding.
	f.store(t, "linus", active(day0.AddDays(-1)))
	c, err := m.Lookup(ctx, "linus")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Stats().TotalActiveDays)

	// Learners created through Session are visible to Lookup.
	created, err := m.Session(ctx, "grace")
	require.NoError(t, err)
	found, err := m.Lookup(ctx, "grace")
	require.NoError(t, err)
	assert.Same(t, created, found)
}

func TestManager_SeedingRaisesNoTierUnlock(t *testing.T) {
	f := newFixture(t, day0)
	f.cfg.SeedDays = 15
	f.deps.RandFloat = func() float64 { return 0 }
	pub := &recordingPublisher{}
	f.deps.Events = pub
	m := newTestManager(t, f)

	c, err := m.Session(context.Background(), "grace")
	require.NoError(t, err)
	assert.Equal(t, 30, c.Tokens(), "seeded tokens already reach the second tier")

	assert.Empty(t, c.Notices())
	assert.Equal(t, []shared.EventType{shared.EventHistorySeeded}, pub.types())
}
