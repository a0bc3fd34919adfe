package streak

import (
	"sort"
)

// Entry is one recorded day of the activity log.
type Entry struct {
	Day    Day  `json:"day"`
	Active bool `json:"active"`
}

// ActivityLog maps calendar days to whether the learner was active that day.
// There is at most one entry per day. Absent days read as inactive.
// ActivityLog is not safe for concurrent use; the session controller owns it.
type ActivityLog struct {
	days map[Day]bool
}

// NewActivityLog creates an empty log.
func NewActivityLog() *ActivityLog {
	return &ActivityLog{days: make(map[Day]bool)}
}

// NewActivityLogFromEntries creates a log from stored entries.
// Later entries for the same day win.
func NewActivityLogFromEntries(entries []Entry) *ActivityLog {
	l := NewActivityLog()
	for _, e := range entries {
		l.Set(e.Day, e.Active)
	}
	return l
}

// Set upserts the activity flag for a day.
func (l *ActivityLog) Set(day Day, active bool) {
	l.days[day] = active
}

// SetDate upserts the activity flag for a YYYY-MM-DD date.
// Malformed dates are rejected with shared.ErrInvalidDate and leave the log unchanged.
func (l *ActivityLog) SetDate(date string, active bool) error {
	day, err := ParseDay(date)
	if err != nil {
		return err
	}
	l.Set(day, active)
	return nil
}

// Get returns whether the learner was active on day. Absent days read as false.
func (l *ActivityLog) Get(day Day) bool {
	return l.days[day]
}

// Recorded reports whether the log holds an entry for day, active or not.
func (l *ActivityLog) Recorded(day Day) bool {
	_, ok := l.days[day]
	return ok
}

// Clear empties the whole log.
func (l *ActivityLog) Clear() {
	l.days = make(map[Day]bool)
}

// Len returns the number of recorded days.
func (l *ActivityLog) Len() int {
	return len(l.days)
}

// Days returns the recorded days in ascending order.
func (l *ActivityLog) Days() []Day {
	days := make([]Day, 0, len(l.days))
	for d := range l.days {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Before(days[j])
	})
	return days
}

// Entries returns all entries in ascending day order.
func (l *ActivityLog) Entries() []Entry {
	days := l.Days()
	entries := make([]Entry, 0, len(days))
	for _, d := range days {
		entries = append(entries, Entry{Day: d, Active: l.days[d]})
	}
	return entries
}

// Clone returns an independent copy of the log.
func (l *ActivityLog) Clone() *ActivityLog {
	c := &ActivityLog{days: make(map[Day]bool, len(l.days))}
	for d, active := range l.days {
		c.days[d] = active
	}
	return c
}

// ActiveDays returns the number of days marked active.
func (l *ActivityLog) ActiveDays() int {
	n := 0
	for _, active := range l.days {
		if active {
			n++
		}
	}
	return n
}
