package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrMigrationFailed wraps every failed schema change.
var ErrMigrationFailed = errors.New("postgres: migration failed")

// Migration is one versioned schema change.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
	IsApplied bool
}

// Migrations returns the schema history in version order.
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_activity_log", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_spendable_balance", UpSQL: migration002Up, DownSQL: migration002Down},
	}
}

const schemaMigrationsDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
)`

// Migrator applies and reverts Migrations, tracking them in schema_migrations.
type Migrator struct {
	conn  *Connection
	steps []Migration
}

// NewMigrator creates a migrator over the built-in schema history.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{conn: conn, steps: Migrations()}
}

// applied returns the recorded versions, creating the tracking table first.
func (m *Migrator) applied(ctx context.Context) (map[int]time.Time, error) {
	if _, err := m.conn.exec(ctx, schemaMigrationsDDL); err != nil {
		return nil, fmt.Errorf("%w: create schema_migrations: %v", ErrMigrationFailed, err)
	}

	rows, err := m.conn.query(ctx, `SELECT version, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("%w: read schema_migrations: %v", ErrMigrationFailed, err)
	}
	versions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Migration, error) {
		var mig Migration
		err := row.Scan(&mig.Version, &mig.AppliedAt)
		return mig, err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scan schema_migrations: %v", ErrMigrationFailed, err)
	}

	out := make(map[int]time.Time, len(versions))
	for _, v := range versions {
		out[v.Version] = v.AppliedAt
	}
	return out, nil
}

// Migrate applies every pending migration, each in its own transaction.
func (m *Migrator) Migrate(ctx context.Context) error {
	done, err := m.applied(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.steps {
		if _, ok := done[mig.Version]; ok {
			continue
		}
		err := m.conn.inTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: apply %03d_%s: %v", ErrMigrationFailed, mig.Version, mig.Name, err)
		}
	}
	return nil
}

// Rollback reverts the newest applied migration. With nothing applied it
// does nothing.
func (m *Migrator) Rollback(ctx context.Context) error {
	done, err := m.applied(ctx)
	if err != nil {
		return err
	}

	for i := len(m.steps) - 1; i >= 0; i-- {
		mig := m.steps[i]
		if _, ok := done[mig.Version]; !ok {
			continue
		}
		err := m.conn.inTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.DownSQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, mig.Version)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: revert %03d_%s: %v", ErrMigrationFailed, mig.Version, mig.Name, err)
		}
		return nil
	}
	return nil
}

// Status lists every known migration with its applied time.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Migration, len(m.steps))
	copy(out, m.steps)
	for i := range out {
		if at, ok := done[out[i].Version]; ok {
			out[i].IsApplied = true
			out[i].AppliedAt = at
		}
	}
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: ACTIVITY LOG AND FREEZE STATE
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- One row per (learner, calendar day). A day is either active or inactive;
-- an absent row means nothing was recorded for that day.
CREATE TABLE IF NOT EXISTS activity_log (
    user_id VARCHAR(128) NOT NULL,
    day DATE NOT NULL,
    active BOOLEAN NOT NULL,
    recorded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (user_id, day)
);

CREATE INDEX IF NOT EXISTS idx_activity_log_user_day ON activity_log(user_id, day DESC);

-- The freeze guard of each learner.
CREATE TABLE IF NOT EXISTS freeze_state (
    user_id VARCHAR(128) PRIMARY KEY,
    state VARCHAR(10) NOT NULL DEFAULT 'idle',
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_freeze_state CHECK (state IN ('idle', 'armed'))
);
`

const migration001Down = `
DROP TABLE IF EXISTS freeze_state;
DROP TABLE IF EXISTS activity_log;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: SPENDABLE BALANCE
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Spendable LEARNY tokens. Learners without a row hold the opening balance.
CREATE TABLE IF NOT EXISTS spendable_balance (
    user_id VARCHAR(128) PRIMARY KEY,
    balance INTEGER NOT NULL,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT non_negative_balance CHECK (balance >= 0)
);
`

const migration002Down = `
DROP TABLE IF EXISTS spendable_balance;
`
