// Package staking implements the staking simulator shown on the dashboard.
// Nothing is locked on chain; the simulator only projects rewards.
package staking

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/learnify/learnify-hub/internal/domain/shared"
)

// Stake is an active simulated stake.
type Stake struct {
	ID       string    `json:"id"`
	Amount   int64     `json:"amount"`
	Rate     float64   `json:"rate"` // reward per token per second
	StakedAt time.Time `json:"staked_at"`
}

// Reward returns the reward accrued at now: round(amount * rate * elapsed seconds).
func (s Stake) Reward(now time.Time) int64 {
	elapsed := now.Sub(s.StakedAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	return int64(math.Round(float64(s.Amount) * s.Rate * math.Floor(elapsed)))
}

// Summary is the simulator view at a moment in time.
type Summary struct {
	Stake   *Stake `json:"stake,omitempty"`
	Reward  int64  `json:"reward"`
	Elapsed int64  `json:"elapsed_seconds"`
}

// Payout is what an unstake returns.
type Payout struct {
	Amount int64 `json:"amount"`
	Reward int64 `json:"reward"`
	Total  int64 `json:"total"`
}

// Simulator holds at most one active stake.
// Simulator is not safe for concurrent use.
type Simulator struct {
	active *Stake
}

// NewSimulator creates a simulator with no stake.
func NewSimulator() *Simulator {
	return &Simulator{}
}

// Stake opens a stake. Only one stake may be active at a time.
func (s *Simulator) Stake(amount int64, rate float64, now time.Time) (Stake, error) {
	if s.active != nil {
		return Stake{}, shared.ErrStakeActive
	}
	if amount <= 0 || rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return Stake{}, shared.ErrInvalidStake
	}

	st := Stake{
		ID:       uuid.NewString(),
		Amount:   amount,
		Rate:     rate,
		StakedAt: now,
	}
	s.active = &st
	return st, nil
}

// Summary reports the active stake and its accrued reward.
func (s *Simulator) Summary(now time.Time) Summary {
	if s.active == nil {
		return Summary{}
	}
	st := *s.active
	elapsed := int64(now.Sub(st.StakedAt).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	return Summary{Stake: &st, Reward: st.Reward(now), Elapsed: elapsed}
}

// Unstake closes the active stake and pays out amount plus reward.
func (s *Simulator) Unstake(now time.Time) (Payout, error) {
	if s.active == nil {
		return Payout{}, shared.ErrNoStake
	}
	reward := s.active.Reward(now)
	p := Payout{Amount: s.active.Amount, Reward: reward, Total: s.active.Amount + reward}
	s.active = nil
	return p, nil
}
