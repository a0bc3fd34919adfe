package session

import (
	"sync"
	"time"

	"github.com/learnify/learnify-hub/internal/domain/streak"
	"github.com/learnify/learnify-hub/pkg/timeutil"
)

// Clock abstracts wall-clock time so rollover logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FakeClock is deterministic and test-friendly.
type FakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{t: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// DayRolloverClock detects that the calendar date has advanced since the
// last check. It is polled; a rollover is noticed at most one poll interval
// late.
type DayRolloverClock struct {
	loc         *time.Location
	lastChecked time.Time
}

// NewDayRolloverClock creates a clock that has never been checked, so the
// first Check always reports a rollover.
func NewDayRolloverClock(loc *time.Location) *DayRolloverClock {
	if loc == nil {
		loc = time.UTC
	}
	return &DayRolloverClock{loc: loc}
}

// Check records now as the last observation and reports today's calendar
// day together with whether it differs from the previous observation.
func (c *DayRolloverClock) Check(now time.Time) (streak.Day, bool) {
	changed := c.lastChecked.IsZero() || !timeutil.IsSameDay(c.lastChecked, now, c.loc)
	c.lastChecked = now
	return streak.DayOf(now, c.loc), changed
}

// Today returns the calendar day of now in the clock's location.
func (c *DayRolloverClock) Today(now time.Time) streak.Day {
	return streak.DayOf(now, c.loc)
}

// LastChecked returns the last observed day, or the zero Day before the first check.
func (c *DayRolloverClock) LastChecked() streak.Day {
	if c.lastChecked.IsZero() {
		return streak.Day{}
	}
	return streak.DayOf(c.lastChecked, c.loc)
}

// Location returns the timezone days are counted in.
func (c *DayRolloverClock) Location() *time.Location {
	return c.loc
}
