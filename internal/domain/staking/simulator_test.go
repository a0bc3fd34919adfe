package staking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnify/learnify-hub/internal/domain/shared"
)

func TestSimulator_Lifecycle(t *testing.T) {
	sim := NewSimulator()
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	st, err := sim.Stake(1000, 0.0001, start)
	require.NoError(t, err)
	assert.NotEmpty(t, st.ID)

	_, err = sim.Stake(50, 0.1, start)
	assert.ErrorIs(t, err, shared.ErrStakeActive)

	summary := sim.Summary(start.Add(90 * time.Second))
	require.NotNil(t, summary.Stake)
	assert.Equal(t, int64(90), summary.Elapsed)
	assert.Equal(t, int64(9), summary.Reward) // 1000 * 0.0001 * 90

	payout, err := sim.Unstake(start.Add(100 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, Payout{Amount: 1000, Reward: 10, Total: 1010}, payout)

	_, err = sim.Unstake(start)
	assert.ErrorIs(t, err, shared.ErrNoStake)
	assert.Nil(t, sim.Summary(start).Stake)
}

func TestSimulator_RejectsInvalidStake(t *testing.T) {
	sim := NewSimulator()
	now := time.Now()

	_, err := sim.Stake(0, 0.1, now)
	assert.ErrorIs(t, err, shared.ErrInvalidStake)

	_, err = sim.Stake(10, -1, now)
	assert.ErrorIs(t, err, shared.ErrInvalidStake)
}

func TestStake_RewardNeverNegative(t *testing.T) {
	st := Stake{Amount: 500, Rate: 0.5, StakedAt: time.Now()}
	assert.Equal(t, int64(0), st.Reward(st.StakedAt.Add(-time.Hour)))
}
