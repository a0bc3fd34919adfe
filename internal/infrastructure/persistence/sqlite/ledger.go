package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/learnify/learnify-hub/internal/domain/ledger"
	"github.com/learnify/learnify-hub/internal/domain/shared"
	"github.com/learnify/learnify-hub/internal/domain/streak"
)

// Ledger implements ledger.Ledger on SQLite.
type Ledger struct {
	db      *DB
	opening int
}

var _ ledger.Ledger = (*Ledger)(nil)

// NewLedger creates a ledger with the given opening balance.
func NewLedger(db *DB, opening int) *Ledger {
	if opening < 0 {
		opening = 0
	}
	return &Ledger{db: db, opening: opening}
}

// Balance implements ledger.Ledger.
func (l *Ledger) Balance(ctx context.Context, userID streak.UserID) (int, error) {
	var balance int
	err := l.db.db.QueryRowContext(ctx,
		`SELECT balance FROM spendable_balance WHERE user_id = ?`, userID.String()).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return l.opening, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load balance: %w", err)
	}
	return balance, nil
}

// Debit implements ledger.Ledger.
func (l *Ledger) Debit(ctx context.Context, userID streak.UserID, amount int) (int, error) {
	if amount <= 0 {
		return 0, shared.ErrInvalidAmount
	}
	return l.adjust(ctx, userID, -amount)
}

// Credit implements ledger.Ledger.
func (l *Ledger) Credit(ctx context.Context, userID streak.UserID, amount int) (int, error) {
	if amount <= 0 {
		return 0, shared.ErrInvalidAmount
	}
	return l.adjust(ctx, userID, amount)
}

func (l *Ledger) adjust(ctx context.Context, userID streak.UserID, delta int) (int, error) {
	var balance int
	err := l.db.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT balance FROM spendable_balance WHERE user_id = ?`, userID.String()).Scan(&balance)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			balance = l.opening
		case err != nil:
			return fmt.Errorf("load balance: %w", err)
		}

		if balance+delta < 0 {
			return shared.ErrInsufficientBalance
		}
		balance += delta

		const stmt = `
INSERT INTO spendable_balance (user_id, balance) VALUES (?, ?)
ON CONFLICT(user_id) DO UPDATE SET balance=excluded.balance;
`
		if _, err := tx.ExecContext(ctx, stmt, userID.String(), balance); err != nil {
			return fmt.Errorf("save balance: %w", err)
		}
		return nil
	})
	if errors.Is(err, shared.ErrInsufficientBalance) {
		return balance, err
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}
