package memory

import (
	"context"
	"sync"

	"github.com/learnify/learnify-hub/internal/domain/shared"
	"github.com/learnify/learnify-hub/internal/domain/streak"
)

// Ledger is an in-memory ledger.Ledger. Learners it has not seen yet start
// with the opening balance.
type Ledger struct {
	mu       sync.Mutex
	opening  int
	balances map[streak.UserID]int
}

// NewLedger creates a ledger with the given opening balance.
func NewLedger(opening int) *Ledger {
	if opening < 0 {
		opening = 0
	}
	return &Ledger{opening: opening, balances: make(map[streak.UserID]int)}
}

func (l *Ledger) balance(userID streak.UserID) int {
	if b, ok := l.balances[userID]; ok {
		return b
	}
	return l.opening
}

// Balance implements ledger.Ledger.
func (l *Ledger) Balance(_ context.Context, userID streak.UserID) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance(userID), nil
}

// Debit implements ledger.Ledger.
func (l *Ledger) Debit(_ context.Context, userID streak.UserID, amount int) (int, error) {
	if amount <= 0 {
		return 0, shared.ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.balance(userID)
	if b < amount {
		return b, shared.ErrInsufficientBalance
	}
	l.balances[userID] = b - amount
	return b - amount, nil
}

// Credit implements ledger.Ledger.
func (l *Ledger) Credit(_ context.Context, userID streak.UserID, amount int) (int, error) {
	if amount <= 0 {
		return 0, shared.ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.balance(userID) + amount
	l.balances[userID] = b
	return b, nil
}

// SetBalance overrides a learner's balance.
func (l *Ledger) SetBalance(userID streak.UserID, balance int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] = balance
}
