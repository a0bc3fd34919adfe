package streak

import (
	"context"
	"strings"
)

// UserID identifies the learner who owns a log.
type UserID string

// IsValid checks if the user ID is usable as a storage key.
func (u UserID) IsValid() bool {
	s := strings.TrimSpace(string(u))
	return s != "" && len(s) <= 128 && s == string(u)
}

// String returns the string representation of UserID.
func (u UserID) String() string {
	return string(u)
}

// Snapshot is the persisted state of one learner's streak.
type Snapshot struct {
	UserID  UserID
	Entries []Entry
	Freeze  FreezeState
}

// Mutation is one atomic change to a learner's persisted state.
// ClearLog is applied before Upserts; a nil Freeze leaves the guard as stored.
type Mutation struct {
	ClearLog bool
	Upserts  []Entry
	Freeze   *FreezeState
}

// IsEmpty reports whether the mutation would change nothing.
func (m Mutation) IsEmpty() bool {
	return !m.ClearLog && len(m.Upserts) == 0 && m.Freeze == nil
}

// Repository persists activity logs keyed by (user, day) together with the
// freeze state. Apply must be all-or-nothing.
type Repository interface {
	// Load returns the stored state. Unknown users yield an empty idle snapshot.
	Load(ctx context.Context, userID UserID) (Snapshot, error)

	// Apply stores a mutation atomically.
	Apply(ctx context.Context, userID UserID, m Mutation) error

	// ListUsers returns every user with stored state.
	ListUsers(ctx context.Context) ([]UserID, error)
}

// Diff returns the mutation that turns (oldLog, oldState) into (newLog, newState).
// A log that lost entries is expressed as a clear followed by a full rewrite.
func Diff(oldLog, newLog *ActivityLog, oldState, newState FreezeState) Mutation {
	var m Mutation

	shrunk := false
	for _, d := range oldLog.Days() {
		if !newLog.Recorded(d) {
			shrunk = true
			break
		}
	}

	if shrunk {
		m.ClearLog = true
		m.Upserts = newLog.Entries()
	} else {
		for _, e := range newLog.Entries() {
			if !oldLog.Recorded(e.Day) || oldLog.Get(e.Day) != e.Active {
				m.Upserts = append(m.Upserts, e)
			}
		}
	}

	if oldState != newState {
		s := newState
		m.Freeze = &s
	}
	return m
}
