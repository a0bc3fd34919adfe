package postgres

import (
	"context"
	"fmt"

	"github.com/learnify/learnify-hub/internal/domain/ledger"
	"github.com/learnify/learnify-hub/internal/domain/shared"
	"github.com/learnify/learnify-hub/internal/domain/streak"
)

// Ledger implements ledger.Ledger on the spendable_balance table.
// A learner without a row holds the opening balance.
type Ledger struct {
	conn    *Connection
	opening int
}

var _ ledger.Ledger = (*Ledger)(nil)

// NewLedger creates a ledger with the given opening balance.
func NewLedger(conn *Connection, opening int) *Ledger {
	if opening < 0 {
		opening = 0
	}
	return &Ledger{conn: conn, opening: opening}
}

// Balance implements ledger.Ledger.
func (l *Ledger) Balance(ctx context.Context, userID streak.UserID) (int, error) {
	var balance int
	err := l.conn.queryRow(ctx, `SELECT balance FROM spendable_balance WHERE user_id = $1`, userID.String()).Scan(&balance)
	if isNoRows(err) {
		return l.opening, nil
	}
	if err != nil {
		return 0, fmt.Errorf("postgres: load balance: %w", err)
	}
	return balance, nil
}

// Debit implements ledger.Ledger. The check and the update are one statement,
// so two concurrent debits can never overdraw.
func (l *Ledger) Debit(ctx context.Context, userID streak.UserID, amount int) (int, error) {
	if amount <= 0 {
		return 0, shared.ErrInvalidAmount
	}
	if err := l.ensureRow(ctx, userID); err != nil {
		return 0, err
	}

	var balance int
	err := l.conn.queryRow(ctx, `
		UPDATE spendable_balance
		SET balance = balance - $2, updated_at = NOW()
		WHERE user_id = $1 AND balance >= $2
		RETURNING balance
	`, userID.String(), amount).Scan(&balance)
	if isNoRows(err) {
		current, berr := l.Balance(ctx, userID)
		if berr != nil {
			return 0, berr
		}
		return current, shared.ErrInsufficientBalance
	}
	if err != nil {
		return 0, fmt.Errorf("postgres: debit balance: %w", err)
	}
	return balance, nil
}

// Credit implements ledger.Ledger.
func (l *Ledger) Credit(ctx context.Context, userID streak.UserID, amount int) (int, error) {
	if amount <= 0 {
		return 0, shared.ErrInvalidAmount
	}

	var balance int
	err := l.conn.queryRow(ctx, `
		INSERT INTO spendable_balance (user_id, balance)
		VALUES ($1, $2 + $3)
		ON CONFLICT (user_id) DO UPDATE
		SET balance = spendable_balance.balance + $3, updated_at = NOW()
		RETURNING balance
	`, userID.String(), l.opening, amount).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("postgres: credit balance: %w", err)
	}
	return balance, nil
}

func (l *Ledger) ensureRow(ctx context.Context, userID streak.UserID) error {
	_, err := l.conn.exec(ctx, `
		INSERT INTO spendable_balance (user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, userID.String(), l.opening)
	if err != nil {
		return fmt.Errorf("postgres: open balance: %w", err)
	}
	return nil
}
