package streak

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnify/learnify-hub/internal/domain/shared"
)

func TestFreezeGuard_RequestFreeze(t *testing.T) {
	t.Run("insufficient balance is rejected", func(t *testing.T) {
		g := NewFreezeGuard(10)

		left, err := g.RequestFreeze(9)

		assert.ErrorIs(t, err, shared.ErrInsufficientBalance)
		assert.ErrorIs(t, err, shared.ErrInsufficientFunds)
		assert.Equal(t, 9, left)
		assert.Equal(t, FreezeIdle, g.State())
	})

	t.Run("exact balance arms the guard", func(t *testing.T) {
		g := NewFreezeGuard(10)

		left, err := g.RequestFreeze(10)

		require.NoError(t, err)
		assert.Equal(t, 0, left)
		assert.Equal(t, FreezeArmed, g.State())
		assert.True(t, g.IsFrozen())
	})

	t.Run("second request while armed is a conflict", func(t *testing.T) {
		g := NewFreezeGuard(10)
		_, err := g.RequestFreeze(100)
		require.NoError(t, err)

		left, err := g.RequestFreeze(90)

		assert.ErrorIs(t, err, shared.ErrFreezeArmed)
		assert.True(t, shared.IsConflict(err))
		assert.Equal(t, 90, left)
		assert.True(t, g.IsFrozen())
	})
}

func TestFreezeGuard_Remove(t *testing.T) {
	g := NewFreezeGuard(0)
	assert.Equal(t, DefaultFreezeCost, g.Cost())
	assert.False(t, g.Remove(), "removing an idle guard is a no-op")

	_, err := g.RequestFreeze(DefaultFreezeCost)
	require.NoError(t, err)

	assert.True(t, g.Remove())
	assert.Equal(t, FreezeIdle, g.State())
}

func TestRestoreFreezeGuard(t *testing.T) {
	assert.True(t, RestoreFreezeGuard(10, FreezeArmed).IsFrozen())
	assert.False(t, RestoreFreezeGuard(10, FreezeIdle).IsFrozen())
	assert.False(t, RestoreFreezeGuard(10, FreezeState("bogus")).IsFrozen())
}
