package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/learnify/learnify-hub/internal/domain/streak"
)

// StreakRepository implements streak.Repository on PostgreSQL.
type StreakRepository struct {
	conn *Connection
}

var _ streak.Repository = (*StreakRepository)(nil)

// NewStreakRepository creates a new streak repository.
func NewStreakRepository(conn *Connection) *StreakRepository {
	return &StreakRepository{conn: conn}
}

// Load implements streak.Repository.
func (r *StreakRepository) Load(ctx context.Context, userID streak.UserID) (streak.Snapshot, error) {
	snap := streak.Snapshot{UserID: userID, Freeze: streak.FreezeIdle}

	rows, err := r.conn.query(ctx, `
		SELECT day, active FROM activity_log
		WHERE user_id = $1
		ORDER BY day
	`, userID.String())
	if err != nil {
		return snap, fmt.Errorf("postgres: load activity log: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			day    time.Time
			active bool
		)
		if err := rows.Scan(&day, &active); err != nil {
			return snap, fmt.Errorf("postgres: scan activity row: %w", err)
		}
		snap.Entries = append(snap.Entries, streak.Entry{
			Day:    streak.NewDay(day.Year(), day.Month(), day.Day()),
			Active: active,
		})
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("postgres: iterate activity log: %w", err)
	}

	var state string
	err = r.conn.queryRow(ctx, `SELECT state FROM freeze_state WHERE user_id = $1`, userID.String()).Scan(&state)
	switch {
	case isNoRows(err):
	case err != nil:
		return snap, fmt.Errorf("postgres: load freeze state: %w", err)
	default:
		snap.Freeze = streak.FreezeState(state)
	}

	return snap, nil
}

// Apply implements streak.Repository. The whole mutation runs in one transaction.
func (r *StreakRepository) Apply(ctx context.Context, userID streak.UserID, m streak.Mutation) error {
	if m.IsEmpty() {
		return nil
	}

	return r.conn.inTx(ctx, func(tx pgx.Tx) error {
		if m.ClearLog {
			if _, err := tx.Exec(ctx, `DELETE FROM activity_log WHERE user_id = $1`, userID.String()); err != nil {
				return fmt.Errorf("postgres: clear activity log: %w", err)
			}
		}

		if len(m.Upserts) > 0 {
			batch := &pgx.Batch{}
			for _, e := range m.Upserts {
				batch.Queue(`
					INSERT INTO activity_log (user_id, day, active)
					VALUES ($1, $2, $3)
					ON CONFLICT (user_id, day) DO UPDATE
					SET active = EXCLUDED.active, recorded_at = NOW()
				`, userID.String(), e.Day.Time(), e.Active)
			}
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("postgres: upsert activity log: %w", err)
			}
		}

		if m.Freeze != nil {
			_, err := tx.Exec(ctx, `
				INSERT INTO freeze_state (user_id, state)
				VALUES ($1, $2)
				ON CONFLICT (user_id) DO UPDATE
				SET state = EXCLUDED.state, updated_at = NOW()
			`, userID.String(), string(*m.Freeze))
			if err != nil {
				return fmt.Errorf("postgres: save freeze state: %w", err)
			}
		}
		return nil
	})
}

// ListUsers implements streak.Repository.
func (r *StreakRepository) ListUsers(ctx context.Context) ([]streak.UserID, error) {
	rows, err := r.conn.query(ctx, `
		SELECT user_id FROM activity_log
		UNION
		SELECT user_id FROM freeze_state
		ORDER BY user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list users: %w", err)
	}
	defer rows.Close()

	var users []streak.UserID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: scan user: %w", err)
		}
		users = append(users, streak.UserID(id))
	}
	return users, rows.Err()
}
