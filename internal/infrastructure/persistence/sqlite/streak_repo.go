package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/learnify/learnify-hub/internal/domain/streak"
)

// StreakRepository implements streak.Repository on SQLite.
type StreakRepository struct {
	db *DB
}

var _ streak.Repository = (*StreakRepository)(nil)

// NewStreakRepository creates a new streak repository.
func NewStreakRepository(db *DB) *StreakRepository {
	return &StreakRepository{db: db}
}

// Load implements streak.Repository.
func (r *StreakRepository) Load(ctx context.Context, userID streak.UserID) (streak.Snapshot, error) {
	snap := streak.Snapshot{UserID: userID, Freeze: streak.FreezeIdle}

	rows, err := r.db.db.QueryContext(ctx,
		`SELECT day, active FROM activity_log WHERE user_id = ? ORDER BY day`, userID.String())
	if err != nil {
		return snap, fmt.Errorf("load activity log: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			raw    string
			active bool
		)
		if err := rows.Scan(&raw, &active); err != nil {
			return snap, fmt.Errorf("scan activity row: %w", err)
		}
		day, err := streak.ParseDay(raw)
		if err != nil {
			return snap, fmt.Errorf("stored day: %w", err)
		}
		snap.Entries = append(snap.Entries, streak.Entry{Day: day, Active: active})
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterate activity log: %w", err)
	}

	var state string
	err = r.db.db.QueryRowContext(ctx,
		`SELECT state FROM freeze_state WHERE user_id = ?`, userID.String()).Scan(&state)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return snap, fmt.Errorf("load freeze state: %w", err)
	default:
		snap.Freeze = streak.FreezeState(state)
	}
	return snap, nil
}

// Apply implements streak.Repository.
func (r *StreakRepository) Apply(ctx context.Context, userID streak.UserID, m streak.Mutation) error {
	if m.IsEmpty() {
		return nil
	}

	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		if m.ClearLog {
			if _, err := tx.ExecContext(ctx, `DELETE FROM activity_log WHERE user_id = ?`, userID.String()); err != nil {
				return fmt.Errorf("clear activity log: %w", err)
			}
		}

		for _, e := range m.Upserts {
			const stmt = `
INSERT INTO activity_log (user_id, day, active) VALUES (?, ?, ?)
ON CONFLICT(user_id, day) DO UPDATE SET active=excluded.active;
`
			if _, err := tx.ExecContext(ctx, stmt, userID.String(), e.Day.String(), e.Active); err != nil {
				return fmt.Errorf("upsert activity %s: %w", e.Day, err)
			}
		}

		if m.Freeze != nil {
			const stmt = `
INSERT INTO freeze_state (user_id, state) VALUES (?, ?)
ON CONFLICT(user_id) DO UPDATE SET state=excluded.state;
`
			if _, err := tx.ExecContext(ctx, stmt, userID.String(), string(*m.Freeze)); err != nil {
				return fmt.Errorf("save freeze state: %w", err)
			}
		}
		return nil
	})
}

// ListUsers implements streak.Repository.
func (r *StreakRepository) ListUsers(ctx context.Context) ([]streak.UserID, error) {
	rows, err := r.db.db.QueryContext(ctx, `
SELECT user_id FROM activity_log
UNION
SELECT user_id FROM freeze_state
ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []streak.UserID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, streak.UserID(id))
	}
	return users, rows.Err()
}
