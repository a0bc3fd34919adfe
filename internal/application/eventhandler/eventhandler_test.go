package eventhandler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnify/learnify-hub/internal/application/session"
	"github.com/learnify/learnify-hub/internal/domain/leaderboard"
	"github.com/learnify/learnify-hub/internal/domain/shared"
	"github.com/learnify/learnify-hub/internal/domain/streak"
	"github.com/learnify/learnify-hub/internal/infrastructure/persistence/memory"
)

type notice struct {
	user    streak.UserID
	kind    session.NoticeKind
	message string
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (n *recordingNotifier) Notify(userID streak.UserID, kind session.NoticeKind, message string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{user: userID, kind: kind, message: message})
	return true
}

func (n *recordingNotifier) all() []notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notice(nil), n.notices...)
}

type failingBoard struct{ leaderboard.Board }

func (failingBoard) RankOf(context.Context, streak.UserID) (leaderboard.Entry, error) {
	return leaderboard.Entry{}, errors.New("redis: connection refused")
}

var at = time.Date(2024, 9, 3, 12, 0, 0, 0, time.UTC)

func submit(t *testing.T, b leaderboard.Board, user string, tokens int) {
	t.Helper()
	require.NoError(t, b.Submit(context.Background(), leaderboard.Score{UserID: streak.UserID(user), Tokens: tokens}))
}

func recorded(user string) shared.Event {
	return shared.NewActivityRecordedEvent(user, "2024-09-03", 1, 2, at)
}

func TestOnActivityRecorded_NotifiesOncePerMilestone(t *testing.T) {
	board := memory.NewLeaderboard()
	notifier := &recordingNotifier{}
	h := NewOnActivityRecordedHandler(board, notifier, nil, DefaultMilestoneConfig())

	submit(t, board, "alice", 100)
	submit(t, board, "bob", 50)
	submit(t, board, "carol", 10)

	require.NoError(t, h.Handle(recorded("carol")))
	require.NoError(t, h.Handle(recorded("carol")))

	got := notifier.all()
	require.Len(t, got, 1)
	assert.Equal(t, streak.UserID("carol"), got[0].user)
	assert.Equal(t, session.NoticeSuccess, got[0].kind)
	assert.Equal(t, "You've entered the top 3 of the leaderboard!", got[0].message)

	submit(t, board, "carol", 500)
	require.NoError(t, h.Handle(recorded("carol")))

	got = notifier.all()
	require.Len(t, got, 2)
	assert.Equal(t, "You're #1 on the leaderboard!", got[1].message)
}

func TestOnActivityRecorded_ResetForgetsMilestones(t *testing.T) {
	board := memory.NewLeaderboard()
	notifier := &recordingNotifier{}
	h := NewOnActivityRecordedHandler(board, notifier, nil, DefaultMilestoneConfig())

	submit(t, board, "alice", 10)
	require.NoError(t, h.Handle(recorded("alice")))
	require.NoError(t, h.HandleReset(shared.NewStreakResetEvent("alice", 10, at)))
	require.NoError(t, h.Handle(recorded("alice")))

	assert.Len(t, notifier.all(), 2)
}

func TestOnActivityRecorded_UnrankedOrOutsideTop(t *testing.T) {
	board := memory.NewLeaderboard()
	notifier := &recordingNotifier{}
	h := NewOnActivityRecordedHandler(board, notifier, nil, MilestoneConfig{Milestones: []int{1}})

	require.NoError(t, h.Handle(recorded("ghost")))

	submit(t, board, "alice", 100)
	submit(t, board, "bob", 50)
	require.NoError(t, h.Handle(recorded("bob")))

	// Events of another type are ignored.
	require.NoError(t, h.Handle(shared.NewFreezeArmedEvent("bob", 10, at)))

	assert.Empty(t, notifier.all())
}

func TestOnActivityRecorded_BoardError(t *testing.T) {
	h := NewOnActivityRecordedHandler(failingBoard{}, &recordingNotifier{}, nil, DefaultMilestoneConfig())

	err := h.Handle(recorded("alice"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

type fakeSubscriber struct {
	byType map[shared.EventType]int
	all    int
}

func (s *fakeSubscriber) Subscribe(t shared.EventType, _ shared.EventHandler) error {
	if s.byType == nil {
		s.byType = make(map[shared.EventType]int)
	}
	s.byType[t]++
	return nil
}

func (s *fakeSubscriber) SubscribeAll(shared.EventHandler) error {
	s.all++
	return nil
}

func TestSubscribe(t *testing.T) {
	bus := &fakeSubscriber{}

	require.NoError(t, NewOnActivityRecordedHandler(memory.NewLeaderboard(), &recordingNotifier{}, nil, DefaultMilestoneConfig()).Subscribe(bus))
	require.NoError(t, NewEventLogger(nil).Subscribe(bus))

	assert.Equal(t, 1, bus.byType[shared.EventActivityRecorded])
	assert.Equal(t, 1, bus.byType[shared.EventStreakReset])
	assert.Equal(t, 1, bus.all)
}

func TestEventLogger_Handle(t *testing.T) {
	assert.NoError(t, NewEventLogger(nil).Handle(shared.NewTierUnlockedEvent("alice", "Silver", 60, at)))
}
