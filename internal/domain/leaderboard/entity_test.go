package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankScores(t *testing.T) {
	entries := RankScores([]Score{
		{UserID: "carol", Tokens: 10},
		{UserID: "bob", Tokens: 40},
		{UserID: "alice", Tokens: 10},
	})

	require.Len(t, entries, 3)
	assert.Equal(t, Entry{Rank: 1, UserID: "bob", Tokens: 40}, entries[0])
	assert.Equal(t, Entry{Rank: 2, UserID: "alice", Tokens: 10}, entries[1])
	assert.Equal(t, Entry{Rank: 3, UserID: "carol", Tokens: 10}, entries[2])
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultTopLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultTopLimit, NormalizeLimit(-1))
	assert.Equal(t, 25, NormalizeLimit(25))
	assert.Equal(t, MaxTopLimit, NormalizeLimit(1000))
}

func TestRank(t *testing.T) {
	assert.True(t, Rank(1).IsValid())
	assert.False(t, Rank(0).IsValid())
	assert.True(t, Rank(10).IsTop10())
	assert.False(t, Rank(11).IsTop10())
	assert.Equal(t, "#3", Rank(3).String())
}
