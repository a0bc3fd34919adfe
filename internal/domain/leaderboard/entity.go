// Package leaderboard содержит доменную модель лидерборда Learnify.
// Ученики ранжируются по LEARNY-токенам, заработанным за активные дни.
package leaderboard

import (
	"fmt"
	"sort"

	"github.com/learnify/learnify-hub/internal/domain/streak"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rank представляет позицию ученика в лидерборде.
// Rank начинается с 1 (первое место).
type Rank int

// IsValid проверяет, что ранг положительный.
func (r Rank) IsValid() bool {
	return r > 0
}

// IsTop10 возвращает true, если ученик в топ-10.
func (r Rank) IsTop10() bool {
	return r >= 1 && r <= 10
}

// String возвращает строковое представление ранга.
func (r Rank) String() string {
	return fmt.Sprintf("#%d", r)
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry - одна строка лидерборда.
type Entry struct {
	Rank   Rank          `json:"rank"`
	UserID streak.UserID `json:"user_id"`
	Tokens int           `json:"tokens"`
	Tier   string        `json:"tier,omitempty"`
}

// Score - входные данные для публикации результата ученика.
type Score struct {
	UserID streak.UserID
	Tokens int
}

// RankScores сортирует результаты по убыванию токенов и проставляет ранги.
// При равенстве токенов порядок определяется UserID, чтобы ранги были стабильными.
// Ученики с одинаковым числом токенов получают разные ранги.
func RankScores(scores []Score) []Entry {
	sorted := make([]Score, len(scores))
	copy(sorted, scores)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Tokens != sorted[j].Tokens {
			return sorted[i].Tokens > sorted[j].Tokens
		}
		return sorted[i].UserID < sorted[j].UserID
	})

	entries := make([]Entry, len(sorted))
	for i, s := range sorted {
		entries[i] = Entry{
			Rank:   Rank(i + 1),
			UserID: s.UserID,
			Tokens: s.Tokens,
		}
	}
	return entries
}
