package runtime

import (
	"sync"

	"github.com/strata-xr/strata-go/pkg/api"
)

// InstanceEvent is one queued occurrence an application polls for.
// Exactly one of the pointer fields is set.
type InstanceEvent struct {
	SessionStateChanged       *SessionStateChangedEvent
	InstanceLossPending       *InstanceLossPendingEvent
	InteractionProfileChanged *InteractionProfileChangedEvent
	ReferenceSpaceChanged     *ReferenceSpaceChangedEvent
}

// SessionStateChangedEvent announces one rung of a session's lifecycle.
type SessionStateChangedEvent struct {
	Session *Session
	State   api.SessionState
	Time    api.Time
}

// InstanceLossPendingEvent announces instance teardown at a deadline.
type InstanceLossPendingEvent struct {
	LossTime api.Time
}

// InteractionProfileChangedEvent announces that the effective profile of
// at least one top level user path changed.
type InteractionProfileChangedEvent struct {
	Session *Session
}

// ReferenceSpaceChangedEvent announces a pending recenter of a reference
// space.
type ReferenceSpaceChangedEvent struct {
	Session    *Session
	Type       api.ReferenceSpaceType
	ChangeTime api.Time
	PoseValid  bool
}

// eventQueue is the instance wide FIFO the poll entry point drains.
type eventQueue struct {
	mu     sync.Mutex
	events []InstanceEvent
}

// Push appends one event.
func (q *eventQueue) Push(ev InstanceEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, ev)
}

// Poll removes and returns the oldest event. The second return is false
// when the queue is empty.
func (q *eventQueue) Poll() (InstanceEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return InstanceEvent{}, false
	}
	ev := q.events[0]
	q.events = q.events[1:]
	return ev, true
}

// RemoveSession drops every queued event referring to sess. Called on
// session destruction so stale handles never reach the application.
func (q *eventQueue) RemoveSession(sess *Session) {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.events[:0]
	for _, ev := range q.events {
		if eventSession(ev) == sess {
			continue
		}
		kept = append(kept, ev)
	}
	q.events = kept
}

func eventSession(ev InstanceEvent) *Session {
	switch {
	case ev.SessionStateChanged != nil:
		return ev.SessionStateChanged.Session
	case ev.InteractionProfileChanged != nil:
		return ev.InteractionProfileChanged.Session
	case ev.ReferenceSpaceChanged != nil:
		return ev.ReferenceSpaceChanged.Session
	}
	return nil
}

// Len reports queued events, for tests.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
