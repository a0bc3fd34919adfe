package streak

import (
	"github.com/learnify/learnify-hub/internal/domain/shared"
)

// DefaultFreezeCost is the spendable-token price of one streak freeze.
const DefaultFreezeCost = 10

// FreezeState is the state of the freeze consumable.
type FreezeState string

const (
	FreezeIdle  FreezeState = "idle"  // not frozen
	FreezeArmed FreezeState = "armed" // protection pending for the next rollover
)

// IsValid checks if the freeze state is known.
func (s FreezeState) IsValid() bool {
	return s == FreezeIdle || s == FreezeArmed
}

// FreezeGuard protects a streak across one missed day.
// It is armed by an explicit freeze request paid from the spendable balance,
// and goes back to idle when consumed at a rollover or removed by the learner.
type FreezeGuard struct {
	state FreezeState
	cost  int
}

// NewFreezeGuard creates an idle guard with the given freeze cost.
// A non-positive cost falls back to DefaultFreezeCost.
func NewFreezeGuard(cost int) *FreezeGuard {
	if cost <= 0 {
		cost = DefaultFreezeCost
	}
	return &FreezeGuard{state: FreezeIdle, cost: cost}
}

// RestoreFreezeGuard recreates a guard from a stored state.
func RestoreFreezeGuard(cost int, state FreezeState) *FreezeGuard {
	g := NewFreezeGuard(cost)
	if state == FreezeArmed {
		g.state = FreezeArmed
	}
	return g
}

// State returns the current state.
func (g *FreezeGuard) State() FreezeState {
	return g.state
}

// IsFrozen reports whether protection is pending.
func (g *FreezeGuard) IsFrozen() bool {
	return g.state == FreezeArmed
}

// Cost returns the freeze price in spendable tokens.
func (g *FreezeGuard) Cost() int {
	return g.cost
}

// RequestFreeze arms the guard if spendable covers the cost and returns the
// balance left after paying for it. The caller is responsible for debiting
// the cost from the ledger. On failure the guard is unchanged.
func (g *FreezeGuard) RequestFreeze(spendable int) (int, error) {
	if g.state == FreezeArmed {
		return spendable, shared.ErrFreezeArmed
	}
	if spendable < g.cost {
		return spendable, shared.ErrInsufficientBalance
	}
	g.state = FreezeArmed
	return spendable - g.cost, nil
}

// Remove cancels a pending freeze. No refund is given.
// It reports whether the guard was armed.
func (g *FreezeGuard) Remove() bool {
	if g.state != FreezeArmed {
		return false
	}
	g.state = FreezeIdle
	return true
}

// Reset puts the guard back to idle without any other effect.
func (g *FreezeGuard) Reset() {
	g.state = FreezeIdle
}

// consume spends a pending freeze. It reports whether one was pending.
func (g *FreezeGuard) consume() bool {
	if g.state != FreezeArmed {
		return false
	}
	g.state = FreezeIdle
	return true
}

// Clone returns an independent copy of the guard.
func (g *FreezeGuard) Clone() *FreezeGuard {
	c := *g
	return &c
}
