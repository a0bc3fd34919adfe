package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnify/learnify-hub/internal/domain/leaderboard"
	"github.com/learnify/learnify-hub/internal/domain/shared"
	"github.com/learnify/learnify-hub/internal/domain/streak"
)

func TestStreakRepository_ApplyAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := NewStreakRepository()
	d := streak.MustParseDay("2024-02-01")
	armed := streak.FreezeArmed

	snap, err := repo.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, snap.Entries)
	assert.Equal(t, streak.FreezeIdle, snap.Freeze)

	require.NoError(t, repo.Apply(ctx, "u1", streak.Mutation{
		Upserts: []streak.Entry{{Day: d.AddDays(1), Active: false}, {Day: d, Active: true}},
		Freeze:  &armed,
	}))

	snap, err = repo.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []streak.Entry{{Day: d, Active: true}, {Day: d.AddDays(1), Active: false}}, snap.Entries)
	assert.Equal(t, streak.FreezeArmed, snap.Freeze)

	require.NoError(t, repo.Apply(ctx, "u1", streak.Mutation{ClearLog: true}))
	snap, err = repo.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, snap.Entries)
	assert.Equal(t, streak.FreezeArmed, snap.Freeze, "a nil freeze leaves the stored state")

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []streak.UserID{"u1"}, users)
}

func TestLedger(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(15)

	b, err := l.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 15, b)

	b, err = l.Debit(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, 5, b)

	_, err = l.Debit(ctx, "u1", 10)
	assert.ErrorIs(t, err, shared.ErrInsufficientBalance)

	b, err = l.Credit(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, 15, b)

	_, err = l.Debit(ctx, "u1", 0)
	assert.ErrorIs(t, err, shared.ErrInvalidAmount)
}

func TestLeaderboard(t *testing.T) {
	ctx := context.Background()
	b := NewLeaderboard()

	require.NoError(t, b.Submit(ctx, leaderboard.Score{UserID: "a", Tokens: 10}))
	require.NoError(t, b.Submit(ctx, leaderboard.Score{UserID: "b", Tokens: 30}))
	require.NoError(t, b.Submit(ctx, leaderboard.Score{UserID: "a", Tokens: 40}))

	top, err := b.Top(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, streak.UserID("a"), top[0].UserID)
	assert.Equal(t, 40, top[0].Tokens, "submit overwrites")

	e, err := b.RankOf(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, leaderboard.Rank(2), e.Rank)

	require.NoError(t, b.Remove(ctx, "b"))
	_, err = b.RankOf(ctx, "b")
	assert.True(t, shared.IsNotFound(err))
}
