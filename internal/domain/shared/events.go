package shared

import "time"

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each one is emitted after the change it describes has
// been persisted.
const (
	// Activity events
	EventActivityRecorded EventType = "streak.activity_recorded"
	EventHistorySeeded    EventType = "streak.history_seeded"

	// Freeze events
	EventFreezeArmed    EventType = "freeze.armed"
	EventFreezeRemoved  EventType = "freeze.removed"
	EventFreezeConsumed EventType = "freeze.consumed"

	// Streak lifecycle events
	EventStreakBroken EventType = "streak.broken"
	EventStreakReset  EventType = "streak.reset"

	// Tier events
	EventTierUnlocked EventType = "tier.unlocked"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the learner the event belongs to.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event stamped with at.
func NewBaseEvent(eventType EventType, aggregateID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   at,
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Activity Events
// ═══════════════════════════════════════════════════════════════════════════

// ActivityRecordedEvent is emitted when today is marked active.
type ActivityRecordedEvent struct {
	BaseEvent
	Day           string `json:"day"`
	CurrentStreak int    `json:"current_streak"`
	Tokens        int    `json:"tokens"`
}

// NewActivityRecordedEvent creates a new ActivityRecordedEvent.
func NewActivityRecordedEvent(userID, day string, currentStreak, tokens int, at time.Time) *ActivityRecordedEvent {
	return &ActivityRecordedEvent{
		BaseEvent:     NewBaseEvent(EventActivityRecorded, userID, at),
		Day:           day,
		CurrentStreak: currentStreak,
		Tokens:        tokens,
	}
}

// Payload implements Event interface.
func (e *ActivityRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.AggregateId,
		"day":            e.Day,
		"current_streak": e.CurrentStreak,
		"tokens":         e.Tokens,
	}
}

// HistorySeededEvent is emitted when a new learner receives synthetic history.
type HistorySeededEvent struct {
	BaseEvent
	Days       int `json:"days"`
	ActiveDays int `json:"active_days"`
}

// NewHistorySeededEvent creates a new HistorySeededEvent.
func NewHistorySeededEvent(userID string, days, activeDays int, at time.Time) *HistorySeededEvent {
	return &HistorySeededEvent{
		BaseEvent:  NewBaseEvent(EventHistorySeeded, userID, at),
		Days:       days,
		ActiveDays: activeDays,
	}
}

// Payload implements Event interface.
func (e *HistorySeededEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":     e.AggregateId,
		"days":        e.Days,
		"active_days": e.ActiveDays,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Freeze Events
// ═══════════════════════════════════════════════════════════════════════════

// FreezeEvent is emitted when the freeze guard changes state.
// Cost is the price paid when armed and zero otherwise.
type FreezeEvent struct {
	BaseEvent
	Day  string `json:"day,omitempty"`
	Cost int    `json:"cost,omitempty"`
}

// NewFreezeArmedEvent creates an event for a freeze bought at cost.
func NewFreezeArmedEvent(userID string, cost int, at time.Time) *FreezeEvent {
	return &FreezeEvent{
		BaseEvent: NewBaseEvent(EventFreezeArmed, userID, at),
		Cost:      cost,
	}
}

// NewFreezeRemovedEvent creates an event for a cancelled freeze.
func NewFreezeRemovedEvent(userID string, at time.Time) *FreezeEvent {
	return &FreezeEvent{
		BaseEvent: NewBaseEvent(EventFreezeRemoved, userID, at),
	}
}

// NewFreezeConsumedEvent creates an event for a freeze spent on day.
func NewFreezeConsumedEvent(userID, day string, at time.Time) *FreezeEvent {
	return &FreezeEvent{
		BaseEvent: NewBaseEvent(EventFreezeConsumed, userID, at),
		Day:       day,
	}
}

// Payload implements Event interface.
func (e *FreezeEvent) Payload() map[string]interface{} {
	p := map[string]interface{}{
		"user_id": e.AggregateId,
	}
	if e.Day != "" {
		p["day"] = e.Day
	}
	if e.Cost > 0 {
		p["cost"] = e.Cost
	}
	return p
}

// ═══════════════════════════════════════════════════════════════════════════
// Streak Lifecycle Events
// ═══════════════════════════════════════════════════════════════════════════

// StreakBrokenEvent is emitted when a rollover finds the learner inactive
// with no freeze armed.
type StreakBrokenEvent struct {
	BaseEvent
	Day            string `json:"day"`
	PreviousStreak int    `json:"previous_streak"`
}

// NewStreakBrokenEvent creates a new StreakBrokenEvent.
func NewStreakBrokenEvent(userID, day string, previousStreak int, at time.Time) *StreakBrokenEvent {
	return &StreakBrokenEvent{
		BaseEvent:      NewBaseEvent(EventStreakBroken, userID, at),
		Day:            day,
		PreviousStreak: previousStreak,
	}
}

// Payload implements Event interface.
func (e *StreakBrokenEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":         e.AggregateId,
		"day":             e.Day,
		"previous_streak": e.PreviousStreak,
	}
}

// StreakResetEvent is emitted after a full reset.
type StreakResetEvent struct {
	BaseEvent
	PreviousTokens int `json:"previous_tokens"`
}

// NewStreakResetEvent creates a new StreakResetEvent.
func NewStreakResetEvent(userID string, previousTokens int, at time.Time) *StreakResetEvent {
	return &StreakResetEvent{
		BaseEvent:      NewBaseEvent(EventStreakReset, userID, at),
		PreviousTokens: previousTokens,
	}
}

// Payload implements Event interface.
func (e *StreakResetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":         e.AggregateId,
		"previous_tokens": e.PreviousTokens,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Tier Events
// ═══════════════════════════════════════════════════════════════════════════

// TierUnlockedEvent is emitted when the learner's token total crosses into a
// higher tier.
type TierUnlockedEvent struct {
	BaseEvent
	Tier   string `json:"tier"`
	Tokens int    `json:"tokens"`
}

// NewTierUnlockedEvent creates a new TierUnlockedEvent.
func NewTierUnlockedEvent(userID, tierName string, tokens int, at time.Time) *TierUnlockedEvent {
	return &TierUnlockedEvent{
		BaseEvent: NewBaseEvent(EventTierUnlocked, userID, at),
		Tier:      tierName,
		Tokens:    tokens,
	}
}

// Payload implements Event interface.
func (e *TierUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.AggregateId,
		"tier":    e.Tier,
		"tokens":  e.Tokens,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
