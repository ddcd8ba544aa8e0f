package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/liveclass/internal/domain"
)

// Conn is one client's realtime connection to a session group.
type Conn struct {
	ID        string
	SessionID uuid.UUID
	UserID    string
	UserName  string
	Socket    *websocket.Conn

	mu     sync.Mutex
	closed bool
	events chan domain.Event
}

func newConn(sessionID uuid.UUID, userID, userName string, socket *websocket.Conn, queueSize int) *Conn {
	return &Conn{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		UserID:    userID,
		UserName:  userName,
		Socket:    socket,
		events:    make(chan domain.Event, queueSize),
	}
}

// Enqueue hands an event to the connection without blocking. It reports
// false when the queue is full or the connection is gone; the event is lost.
func (c *Conn) Enqueue(event domain.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.events <- event:
		return true
	default:
		return false
	}
}

// Events exposes the outgoing queue. It is closed when the connection is
// unregistered.
func (c *Conn) Events() <-chan domain.Event {
	return c.events
}

func (c *Conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.events)
}

// WritePump is the only writer to the socket. It returns when the queue is
// closed or a write fails.
func (c *Conn) WritePump(writeTimeout time.Duration) {
	for event := range c.events {
		if c.Socket == nil {
			continue
		}
		if writeTimeout > 0 {
			_ = c.Socket.SetWriteDeadline(time.Now().Add(writeTimeout))
		}
		if err := c.Socket.WriteJSON(event); err != nil {
			return
		}
	}
}
