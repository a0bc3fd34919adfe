// Package ledger defines the spendable LEARNY token balance.
// The spendable balance is a separate counter from the tokens derived from
// active days: it pays for consumables such as a streak freeze.
package ledger

import (
	"context"

	"github.com/learnify/learnify-hub/internal/domain/streak"
)

// DefaultOpeningBalance is the balance a learner starts with.
const DefaultOpeningBalance = 100

// Ledger tracks spendable tokens per learner.
type Ledger interface {
	// Balance returns the learner's spendable tokens.
	Balance(ctx context.Context, userID streak.UserID) (int, error)

	// Debit removes amount from the balance. It fails with
	// shared.ErrInsufficientBalance when the balance is too low.
	Debit(ctx context.Context, userID streak.UserID, amount int) (int, error)

	// Credit adds amount to the balance.
	Credit(ctx context.Context, userID streak.UserID, amount int) (int, error)
}
