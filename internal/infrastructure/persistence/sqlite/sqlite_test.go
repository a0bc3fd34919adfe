package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnify/learnify-hub/internal/domain/shared"
	"github.com/learnify/learnify-hub/internal/domain/streak"
)

func openMemory(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStreakRepository_ApplyAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := NewStreakRepository(openMemory(t))
	d := streak.MustParseDay("2024-09-03")

	snap, err := repo.Load(ctx, "ada")
	require.NoError(t, err)
	assert.Empty(t, snap.Entries)
	assert.Equal(t, streak.FreezeIdle, snap.Freeze)

	armed := streak.FreezeArmed
	require.NoError(t, repo.Apply(ctx, "ada", streak.Mutation{
		Upserts: []streak.Entry{{Day: d, Active: true}, {Day: d.AddDays(-1), Active: false}},
		Freeze:  &armed,
	}))
	require.NoError(t, repo.Apply(ctx, "ada", streak.Mutation{
		Upserts: []streak.Entry{{Day: d.AddDays(-1), Active: true}},
	}))

	snap, err = repo.Load(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, []streak.Entry{
		{Day: d.AddDays(-1), Active: true},
		{Day: d, Active: true},
	}, snap.Entries)
	assert.Equal(t, streak.FreezeArmed, snap.Freeze)

	idle := streak.FreezeIdle
	require.NoError(t, repo.Apply(ctx, "ada", streak.Mutation{ClearLog: true, Freeze: &idle}))
	snap, err = repo.Load(ctx, "ada")
	require.NoError(t, err)
	assert.Empty(t, snap.Entries)
	assert.Equal(t, streak.FreezeIdle, snap.Freeze)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []streak.UserID{"ada"}, users, "a stored freeze state keeps the learner listed")
}

func TestLedger(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(openMemory(t), 15)

	b, err := l.Balance(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, 15, b)

	b, err = l.Debit(ctx, "ada", 10)
	require.NoError(t, err)
	assert.Equal(t, 5, b)

	b, err = l.Debit(ctx, "ada", 10)
	assert.ErrorIs(t, err, shared.ErrInsufficientBalance)
	assert.Equal(t, 5, b)

	b, err = l.Credit(ctx, "ada", 10)
	require.NoError(t, err)
	assert.Equal(t, 15, b)

	_, err = l.Debit(ctx, "ada", 0)
	assert.ErrorIs(t, err, shared.ErrInvalidAmount)
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "learnify.db")
	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, db.Ping(context.Background()))
	require.NoError(t, db.Close())

	// Reopening keeps the schema idempotent.
	db, err = Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}
