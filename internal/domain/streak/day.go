// Package streak contains the learning-streak model: a date-indexed activity
// log, the derived streak counters, the freeze consumable and the day
// rollover rule that ties them together.
// This is a pure domain layer with zero external dependencies.
package streak

import (
	"strconv"
	"strings"
	"time"

	"github.com/learnify/learnify-hub/internal/domain/shared"
)

// dayLayout is the canonical text form of a Day.
const dayLayout = "2006-01-02"

// Day is a calendar day with the time of day and timezone stripped.
// Two Days are equal if and only if they name the same calendar date,
// which makes Day safe to use as a map key.
type Day struct {
	year  int
	month time.Month
	day   int
}

// NewDay builds a Day from its parts, normalising overflow the way time.Date does.
func NewDay(year int, month time.Month, day int) Day {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Day{year: t.Year(), month: t.Month(), day: t.Day()}
}

// DayOf returns the calendar day of t as observed in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return Day{year: local.Year(), month: local.Month(), day: local.Day()}
}

// ParseDay parses a YYYY-MM-DD string.
// Malformed input fails with shared.ErrInvalidDate.
func ParseDay(value string) (Day, error) {
	value = strings.TrimSpace(value)
	t, err := time.Parse(dayLayout, value)
	if err != nil {
		return Day{}, shared.WrapError("streak", "ParseDay", shared.ErrInvalidDate, "invalid date "+strconv.Quote(value), err)
	}
	return Day{year: t.Year(), month: t.Month(), day: t.Day()}, nil
}

// MustParseDay is like ParseDay but panics on malformed input.
// Intended for tests and static tables.
func MustParseDay(value string) Day {
	d, err := ParseDay(value)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero reports whether d is the zero Day.
func (d Day) IsZero() bool {
	return d.year == 0 && d.month == 0 && d.day == 0
}

// Time returns midnight of the day in UTC.
func (d Day) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the day n days after d (before, for negative n).
func (d Day) AddDays(n int) Day {
	return NewDay(d.year, d.month, d.day+n)
}

// Before reports whether d is strictly earlier than other.
func (d Day) Before(other Day) bool {
	return d.Time().Before(other.Time())
}

// After reports whether d is strictly later than other.
func (d Day) After(other Day) bool {
	return d.Time().After(other.Time())
}

// DaysUntil returns the number of calendar days from d to other.
func (d Day) DaysUntil(other Day) int {
	return int(other.Time().Sub(d.Time()).Hours() / 24)
}

// String returns the YYYY-MM-DD form.
func (d Day) String() string {
	return d.Time().Format(dayLayout)
}

// MarshalText implements encoding.TextMarshaler.
func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Day) UnmarshalText(text []byte) error {
	parsed, err := ParseDay(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
