// Package memory provides in-process implementations of the repositories.
// State lives only as long as the process; used for local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/learnify/learnify-hub/internal/domain/streak"
)

type userState struct {
	days   map[streak.Day]bool
	freeze streak.FreezeState
}

// StreakRepository is an in-memory streak.Repository.
type StreakRepository struct {
	mu    sync.RWMutex
	users map[streak.UserID]*userState
}

// NewStreakRepository creates an empty repository.
func NewStreakRepository() *StreakRepository {
	return &StreakRepository{users: make(map[streak.UserID]*userState)}
}

// Load implements streak.Repository.
func (r *StreakRepository) Load(ctx context.Context, userID streak.UserID) (streak.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return streak.Snapshot{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := streak.Snapshot{UserID: userID, Freeze: streak.FreezeIdle}
	st, ok := r.users[userID]
	if !ok {
		return snap, nil
	}

	snap.Freeze = st.freeze
	snap.Entries = make([]streak.Entry, 0, len(st.days))
	for d, active := range st.days {
		snap.Entries = append(snap.Entries, streak.Entry{Day: d, Active: active})
	}
	sort.Slice(snap.Entries, func(i, j int) bool {
		return snap.Entries[i].Day.Before(snap.Entries[j].Day)
	})
	return snap, nil
}

// Apply implements streak.Repository. The mutation is applied under one lock.
func (r *StreakRepository) Apply(ctx context.Context, userID streak.UserID, m streak.Mutation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.users[userID]
	if !ok {
		st = &userState{days: make(map[streak.Day]bool), freeze: streak.FreezeIdle}
		r.users[userID] = st
	}

	if m.ClearLog {
		st.days = make(map[streak.Day]bool)
	}
	for _, e := range m.Upserts {
		st.days[e.Day] = e.Active
	}
	if m.Freeze != nil {
		st.freeze = *m.Freeze
	}
	return nil
}

// ListUsers implements streak.Repository.
func (r *StreakRepository) ListUsers(ctx context.Context) ([]streak.UserID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]streak.UserID, 0, len(r.users))
	for u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users, nil
}
