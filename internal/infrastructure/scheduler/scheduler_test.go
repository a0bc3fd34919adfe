package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name    string
	runs    atomic.Int32
	active  atomic.Int32
	overlap atomic.Bool
	delay   time.Duration
	err     error
	panics  bool
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "test job " + j.name }

func (j *countingJob) Run(ctx context.Context) error {
	if j.active.Add(1) > 1 {
		j.overlap.Store(true)
	}
	defer j.active.Add(-1)
	j.runs.Add(1)

	if j.panics {
		panic("boom")
	}
	if j.delay > 0 {
		select {
		case <-time.After(j.delay):
		case <-ctx.Done():
		}
	}
	return j.err
}

type recordingObserver struct {
	mu   sync.Mutex
	errs map[string]int
	runs map[string]int
}

func (o *recordingObserver) JobFinished(name string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs[name]++
	if err != nil {
		o.errs[name]++
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func every(t *testing.T, d time.Duration) *IntervalSchedule {
	t.Helper()
	s, err := NewIntervalSchedule(d)
	require.NoError(t, err)
	return s
}

func TestScheduler_RunsDueJobs(t *testing.T) {
	obs := &recordingObserver{errs: map[string]int{}, runs: map[string]int{}}
	s := New(Config{Logger: quietLogger(), Observer: obs, TickInterval: 5 * time.Millisecond})

	fast := &countingJob{name: "fast"}
	failing := &countingJob{name: "failing", err: errors.New("feed down")}
	require.NoError(t, s.Register(fast, every(t, 10*time.Millisecond)))
	require.NoError(t, s.Register(failing, every(t, 10*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	assert.Eventually(t, func() bool {
		return fast.runs.Load() >= 3 && failing.runs.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.GreaterOrEqual(t, obs.runs["fast"], 3)
	assert.Zero(t, obs.errs["fast"])
	assert.Equal(t, obs.runs["failing"], obs.errs["failing"])
}

func TestScheduler_NoOverlap(t *testing.T) {
	s := New(Config{Logger: quietLogger(), TickInterval: 2 * time.Millisecond})
	slow := &countingJob{name: "slow", delay: 30 * time.Millisecond}
	require.NoError(t, s.Register(slow, every(t, time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(120 * time.Millisecond)
	require.NoError(t, s.Stop())

	assert.False(t, slow.overlap.Load(), "a job never runs concurrently with itself")
	assert.GreaterOrEqual(t, slow.runs.Load(), int32(2))
}

func TestScheduler_RunNowAndPanics(t *testing.T) {
	s := New(Config{Logger: quietLogger()})
	job := &countingJob{name: "explodes", panics: true}
	require.NoError(t, s.Register(job, every(t, time.Hour)))

	result, err := s.RunNow(context.Background(), "explodes")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrJobPanicked)
	assert.False(t, result.Success)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.Equal(t, int64(1), infos[0].RunCount)
	assert.Equal(t, int64(1), infos[0].FailCount)
	assert.Equal(t, "@every 1h0m0s", infos[0].Schedule)
}

func TestScheduler_RegistrationAndLifecycleErrors(t *testing.T) {
	s := New(DefaultConfig())
	job := &countingJob{name: "dup"}

	assert.ErrorIs(t, s.Register(nil, every(t, time.Second)), ErrNilJob)
	assert.ErrorIs(t, s.Register(job, nil), ErrNilSchedule)
	require.NoError(t, s.Register(job, every(t, time.Second)))
	assert.ErrorIs(t, s.Register(job, every(t, time.Second)), ErrJobAlreadyExists)

	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)
	require.NoError(t, s.Stop())
}

func TestIntervalSchedule(t *testing.T) {
	s, err := NewIntervalSchedule(30 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "@every 30s", s.String())

	_, err = NewIntervalSchedule(0)
	assert.Error(t, err)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, start.Add(30*time.Second), s.Next(start))
}
