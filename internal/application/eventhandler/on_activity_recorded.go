// Package eventhandler содержит обработчики доменных событий стрика.
// Обработчики реагируют на уже сохранённые изменения и запускают
// побочные эффекты: уведомления о достижениях и журналирование.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/learnify/learnify-hub/internal/application/session"
	"github.com/learnify/learnify-hub/internal/domain/leaderboard"
	"github.com/learnify/learnify-hub/internal/domain/shared"
	"github.com/learnify/learnify-hub/internal/domain/streak"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON ACTIVITY RECORDED HANDLER
// После каждого урока проверяет позицию ученика в лидерборде и
// поздравляет его при первом входе в топ-N.
// ═══════════════════════════════════════════════════════════════════════════

// Notifier доставляет уведомление активной сессии ученика.
// Реализуется session.Manager.
type Notifier interface {
	Notify(userID streak.UserID, kind session.NoticeKind, message string) bool
}

// MilestoneConfig содержит конфигурацию обработчика.
type MilestoneConfig struct {
	// Milestones: пороги топа, например [10, 3, 1].
	Milestones []int

	// Timeout ограничивает запрос позиции в лидерборде.
	Timeout time.Duration
}

// DefaultMilestoneConfig возвращает конфигурацию по умолчанию.
func DefaultMilestoneConfig() MilestoneConfig {
	return MilestoneConfig{
		Milestones: []int{10, 3, 1},
		Timeout:    2 * time.Second,
	}
}

// OnActivityRecordedHandler отслеживает лучший достигнутый порог топа
// для каждого ученика.
type OnActivityRecordedHandler struct {
	board    leaderboard.Board
	notifier Notifier
	logger   *slog.Logger
	config   MilestoneConfig

	mu   sync.Mutex
	best map[streak.UserID]int
}

// NewOnActivityRecordedHandler создаёт обработчик.
func NewOnActivityRecordedHandler(
	board leaderboard.Board,
	notifier Notifier,
	logger *slog.Logger,
	config MilestoneConfig,
) *OnActivityRecordedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if len(config.Milestones) == 0 {
		config.Milestones = DefaultMilestoneConfig().Milestones
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultMilestoneConfig().Timeout
	}

	// Пороги по убыванию: первый подходящий с конца самый престижный.
	milestones := append([]int(nil), config.Milestones...)
	sort.Sort(sort.Reverse(sort.IntSlice(milestones)))
	config.Milestones = milestones

	return &OnActivityRecordedHandler{
		board:    board,
		notifier: notifier,
		logger:   logger.With("handler", "on_activity_recorded"),
		config:   config,
		best:     make(map[streak.UserID]int),
	}
}

// Subscribe регистрирует обработчик на шине событий.
func (h *OnActivityRecordedHandler) Subscribe(bus shared.EventSubscriber) error {
	if err := bus.Subscribe(shared.EventActivityRecorded, h.Handle); err != nil {
		return err
	}
	return bus.Subscribe(shared.EventStreakReset, h.HandleReset)
}

// Handle обрабатывает событие записанной активности.
// Реализует интерфейс shared.EventHandler.
func (h *OnActivityRecordedHandler) Handle(event shared.Event) error {
	e, ok := event.(*shared.ActivityRecordedEvent)
	if !ok {
		h.logger.Warn("received unexpected event", "event_type", event.EventType())
		return nil
	}

	userID := streak.UserID(e.AggregateID())

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	entry, err := h.board.RankOf(ctx, userID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("rank of %s: %w", userID, err)
	}

	milestone := h.milestoneFor(int(entry.Rank))
	if milestone == 0 || !h.improve(userID, milestone) {
		return nil
	}

	h.logger.Info("leaderboard milestone reached",
		"user_id", userID.String(),
		"rank", int(entry.Rank),
		"milestone", milestone,
	)
	h.notifier.Notify(userID, session.NoticeSuccess, milestoneMessage(milestone))
	return nil
}

// HandleReset забывает достигнутые пороги ученика после сброса.
func (h *OnActivityRecordedHandler) HandleReset(event shared.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.best, streak.UserID(event.AggregateID()))
	return nil
}

// milestoneFor возвращает наименьший порог, в который попадает rank, или 0.
func (h *OnActivityRecordedHandler) milestoneFor(rank int) int {
	found := 0
	for _, m := range h.config.Milestones {
		if rank <= m {
			found = m
		}
	}
	return found
}

// improve запоминает milestone, если он лучше уже достигнутого.
func (h *OnActivityRecordedHandler) improve(userID streak.UserID, milestone int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if best, ok := h.best[userID]; ok && best <= milestone {
		return false
	}
	h.best[userID] = milestone
	return true
}

func milestoneMessage(milestone int) string {
	if milestone == 1 {
		return "You're #1 on the leaderboard!"
	}
	return fmt.Sprintf("You've entered the top %d of the leaderboard!", milestone)
}
