package session

import (
	"time"

	"github.com/google/uuid"
)

// NoticeKind is the tone of a user-visible notice.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeInfo    NoticeKind = "info"
	NoticeWarning NoticeKind = "warning"
	NoticeError   NoticeKind = "error"
)

// Notice is a short message surfaced to the learner after an action or a rollover.
type Notice struct {
	ID      string     `json:"id"`
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	At      time.Time  `json:"at"`
}

// Notice messages.
const (
	msgFreezeArmed      = "Streak protected! %d LEARNY tokens spent."
	msgInsufficient     = "Not enough LEARNY tokens! A freeze costs %d."
	msgFreezeUsed       = "Freeze protection used! Your streak is safe."
	msgFreezeRemoved    = "Streak protection removed"
	msgStreakBroken     = "Streak ended. Complete a lesson to start a new one."
	msgReset            = "Streak history has been reset"
	msgActivityRecorded = "Lesson completed! Day %s counts towards your streak."
	msgTierUp           = "New tier unlocked: %s"
	msgWalletConnected  = "%s wallet connected"
	msgWalletFailed     = "Failed to connect wallet. Please try again."
	msgWalletRemoved    = "%s wallet disconnected"
)

// noticeQueue is a bounded FIFO of notices. Oldest notices are dropped first.
type noticeQueue struct {
	max   int
	items []Notice
}

func newNoticeQueue(max int) *noticeQueue {
	if max <= 0 {
		max = 20
	}
	return &noticeQueue{max: max}
}

func (q *noticeQueue) push(kind NoticeKind, message string, at time.Time) Notice {
	n := Notice{ID: uuid.NewString(), Kind: kind, Message: message, At: at}
	q.items = append(q.items, n)
	if len(q.items) > q.max {
		q.items = q.items[len(q.items)-q.max:]
	}
	return n
}

func (q *noticeQueue) drain() []Notice {
	out := q.items
	q.items = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}
