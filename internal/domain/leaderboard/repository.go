package leaderboard

import (
	"context"

	"github.com/learnify/learnify-hub/internal/domain/streak"
)

// ══════════════════════════════════════════════════════════════════════════════
// BOARD INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Board определяет контракт хранилища лидерборда.
// Реализации находятся в infrastructure слое (Redis, in-memory).
type Board interface {
	// Submit устанавливает текущее число токенов ученика.
	// Повторный вызов перезаписывает значение, а не суммирует его.
	Submit(ctx context.Context, score Score) error

	// Remove удаляет ученика из лидерборда.
	Remove(ctx context.Context, userID streak.UserID) error

	// Top возвращает топ-N учеников.
	Top(ctx context.Context, limit int) ([]Entry, error)

	// RankOf возвращает позицию ученика.
	// Возвращает shared.ErrNotFound, если ученика нет в лидерборде.
	RankOf(ctx context.Context, userID streak.UserID) (Entry, error)
}

// DefaultTopLimit - размер топа по умолчанию.
const DefaultTopLimit = 10

// MaxTopLimit - максимальный размер топа за один запрос.
const MaxTopLimit = 100

// NormalizeLimit приводит limit к допустимому диапазону.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultTopLimit
	}
	if limit > MaxTopLimit {
		return MaxTopLimit
	}
	return limit
}
