// Package timeutil provides calendar-day helpers for a configurable learner timezone.
// A streak is counted in whole calendar days, so every comparison here strips the
// time of day in the given location first.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// LoadLocation resolves a timezone name. An empty name and "UTC" map to time.UTC,
// and fixed offsets such as "+05:00" are accepted alongside IANA names.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "UTC") {
		return time.UTC, nil
	}

	if name[0] == '+' || name[0] == '-' {
		offset, err := time.Parse("-07:00", name)
		if err != nil {
			return nil, fmt.Errorf("invalid utc offset %q: %w", name, err)
		}
		_, secs := offset.Zone()
		return time.FixedZone("UTC"+name, secs), nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", name, err)
	}
	return loc, nil
}

// IsSameDay checks if two times fall on the same calendar day in loc.
func IsSameDay(t1, t2 time.Time, loc *time.Location) bool {
	a := t1.In(loc)
	b := t2.In(loc)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
