package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/learnify/learnify-hub/internal/domain/leaderboard"
	"github.com/learnify/learnify-hub/internal/domain/shared"
	"github.com/learnify/learnify-hub/internal/domain/streak"
)

// DefaultTopTTL is how long a computed top list is served from cache.
const DefaultTopTTL = 15 * time.Second

// Leaderboard implements leaderboard.Board on a Redis sorted set shared by
// every service instance.
//
// Scores are stored negated so that an ascending range orders by tokens
// descending and breaks ties by user ID ascending, the same order as
// leaderboard.RankScores.
type Leaderboard struct {
	cache  *Cache
	key    string
	topTTL time.Duration
}

var _ leaderboard.Board = (*Leaderboard)(nil)

// NewLeaderboard creates a leaderboard stored under name.
func NewLeaderboard(cache *Cache, name string) *Leaderboard {
	if name == "" {
		name = "global"
	}
	return &Leaderboard{
		cache:  cache,
		key:    PrefixLeaderboard + name,
		topTTL: DefaultTopTTL,
	}
}

func (l *Leaderboard) topKey(limit int) string {
	return PrefixCache + "top:" + l.key + ":" + strconv.Itoa(limit)
}

// Submit implements leaderboard.Board.
func (l *Leaderboard) Submit(ctx context.Context, score leaderboard.Score) error {
	err := l.cache.Client().ZAdd(ctx, l.key, redis.Z{
		Score:  -float64(score.Tokens),
		Member: score.UserID.String(),
	}).Err()
	if err != nil {
		return fmt.Errorf("leaderboard submit: %w", err)
	}
	return l.invalidate(ctx)
}

// Remove implements leaderboard.Board.
func (l *Leaderboard) Remove(ctx context.Context, userID streak.UserID) error {
	if err := l.cache.Client().ZRem(ctx, l.key, userID.String()).Err(); err != nil {
		return fmt.Errorf("leaderboard remove: %w", err)
	}
	return l.invalidate(ctx)
}

// Top implements leaderboard.Board.
func (l *Leaderboard) Top(ctx context.Context, limit int) ([]leaderboard.Entry, error) {
	limit = leaderboard.NormalizeLimit(limit)

	var cached []leaderboard.Entry
	err := l.cache.Get(ctx, l.topKey(limit), &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return nil, fmt.Errorf("leaderboard top cache: %w", err)
	}

	members, err := l.cache.Client().ZRangeWithScores(ctx, l.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard top: %w", err)
	}

	entries := make([]leaderboard.Entry, 0, len(members))
	for i, z := range members {
		entries = append(entries, leaderboard.Entry{
			Rank:   leaderboard.Rank(i + 1),
			UserID: streak.UserID(fmt.Sprint(z.Member)),
			Tokens: int(-z.Score),
		})
	}

	if err := l.cache.Set(ctx, l.topKey(limit), entries, l.topTTL); err != nil {
		return nil, fmt.Errorf("leaderboard top cache: %w", err)
	}
	return entries, nil
}

// RankOf implements leaderboard.Board.
func (l *Leaderboard) RankOf(ctx context.Context, userID streak.UserID) (leaderboard.Entry, error) {
	client := l.cache.Client()

	rank, err := client.ZRank(ctx, l.key, userID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return leaderboard.Entry{}, shared.WrapError("leaderboard", "RankOf", shared.ErrNotFound, "learner is not ranked", nil)
	}
	if err != nil {
		return leaderboard.Entry{}, fmt.Errorf("leaderboard rank: %w", err)
	}

	score, err := client.ZScore(ctx, l.key, userID.String()).Result()
	if err != nil {
		return leaderboard.Entry{}, fmt.Errorf("leaderboard score: %w", err)
	}

	return leaderboard.Entry{
		Rank:   leaderboard.Rank(rank + 1),
		UserID: userID,
		Tokens: int(-score),
	}, nil
}

// invalidate drops every cached top list of this board.
func (l *Leaderboard) invalidate(ctx context.Context) error {
	var keys []string
	iter := l.cache.Client().Scan(ctx, 0, PrefixCache+"top:"+l.key+":*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("leaderboard invalidate: %w", err)
	}
	return l.cache.Delete(ctx, keys...)
}
