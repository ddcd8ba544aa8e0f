package realtime

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/liveclass/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(queue int) *Hub {
	return NewHub(queue, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func drain(c *Conn) []domain.Event {
	var events []domain.Event
	for {
		select {
		case e, ok := <-c.Events():
			if !ok {
				return events
			}
			events = append(events, e)
		default:
			return events
		}
	}
}

func TestPublishReachesOnlyTheSessionGroup(t *testing.T) {
	hub := newTestHub(8)
	s1, s2 := uuid.New(), uuid.New()

	a := hub.Register(s1, "a", "A", nil)
	b := hub.Register(s1, "b", "B", nil)
	other := hub.Register(s2, "c", "C", nil)

	joined := drain(a)
	require.Len(t, joined, 1, "a sees b connect")
	assert.Equal(t, domain.EventUserJoined, joined[0].Type)
	assert.Equal(t, "b", joined[0].TargetID)
	drain(b)

	hub.Publish(s1, domain.Event{Type: domain.EventMuteAll, ActorID: "a"})

	for _, c := range []*Conn{a, b} {
		events := drain(c)
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventMuteAll, events[0].Type)
		assert.Equal(t, s1.String(), events[0].SessionID)
		assert.False(t, events[0].Timestamp.IsZero())
	}
	assert.Empty(t, drain(other))
}

func TestUnregisterNotifiesGroupOnly(t *testing.T) {
	hub := newTestHub(8)
	s := uuid.New()

	a := hub.Register(s, "a", "A", nil)
	b := hub.Register(s, "b", "B", nil)
	drain(a)

	hub.Unregister(b)

	events := drain(a)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventUserLeft, events[0].Type)
	assert.Equal(t, "disconnected", events[0].Payload["reason"])
	assert.Equal(t, 1, hub.GroupSize(s))

	_, open := <-b.Events()
	assert.False(t, open, "queue of a dropped connection is closed")
	assert.False(t, b.Enqueue(domain.Event{Type: domain.EventMuteAll}))

	hub.Unregister(b)
	assert.Empty(t, drain(a), "second unregister is silent")
}

func TestFullQueueDropsEvents(t *testing.T) {
	hub := newTestHub(2)
	s := uuid.New()
	c := hub.Register(s, "a", "A", nil)

	for i := 0; i < 5; i++ {
		hub.Publish(s, domain.Event{Type: domain.EventParticipantUpdated, TargetID: "a"})
	}

	assert.Len(t, drain(c), 2)
}

func TestReplyTargetsOneConnection(t *testing.T) {
	hub := newTestHub(4)
	s := uuid.New()
	a := hub.Register(s, "a", "A", nil)
	b := hub.Register(s, "b", "B", nil)
	drain(a)

	hub.Reply(b, domain.Event{Type: domain.EventError, Payload: map[string]any{"error": "only the teacher can perform this action"}})

	assert.Empty(t, drain(a))
	events := drain(b)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventError, events[0].Type)
}
