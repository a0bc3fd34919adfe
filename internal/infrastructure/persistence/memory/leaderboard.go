package memory

import (
	"context"
	"sync"

	"github.com/learnify/learnify-hub/internal/domain/leaderboard"
	"github.com/learnify/learnify-hub/internal/domain/shared"
	"github.com/learnify/learnify-hub/internal/domain/streak"
)

// Leaderboard is an in-memory leaderboard.Board.
type Leaderboard struct {
	mu     sync.RWMutex
	scores map[streak.UserID]int
}

// NewLeaderboard creates an empty board.
func NewLeaderboard() *Leaderboard {
	return &Leaderboard{scores: make(map[streak.UserID]int)}
}

// Submit implements leaderboard.Board.
func (b *Leaderboard) Submit(_ context.Context, score leaderboard.Score) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scores[score.UserID] = score.Tokens
	return nil
}

// Remove implements leaderboard.Board.
func (b *Leaderboard) Remove(_ context.Context, userID streak.UserID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.scores, userID)
	return nil
}

// Top implements leaderboard.Board.
func (b *Leaderboard) Top(_ context.Context, limit int) ([]leaderboard.Entry, error) {
	entries := b.ranked()
	limit = leaderboard.NormalizeLimit(limit)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// RankOf implements leaderboard.Board.
func (b *Leaderboard) RankOf(_ context.Context, userID streak.UserID) (leaderboard.Entry, error) {
	for _, e := range b.ranked() {
		if e.UserID == userID {
			return e, nil
		}
	}
	return leaderboard.Entry{}, shared.WrapError("leaderboard", "RankOf", shared.ErrNotFound, "learner is not ranked", nil)
}

func (b *Leaderboard) ranked() []leaderboard.Entry {
	b.mu.RLock()
	scores := make([]leaderboard.Score, 0, len(b.scores))
	for u, t := range b.scores {
		scores = append(scores, leaderboard.Score{UserID: u, Tokens: t})
	}
	b.mu.RUnlock()
	return leaderboard.RankScores(scores)
}
