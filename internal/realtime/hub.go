// Package realtime fans state-change notifications out to the clients
// attending a session. Delivery is best effort: nothing is acknowledged,
// retried or ordered across connections, and a slow client loses events
// instead of slowing the session down.
package realtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/liveclass/internal/domain"
)

const DefaultQueueSize = 16

type Hub struct {
	mu        sync.RWMutex
	groups    map[uuid.UUID]map[string]*Conn
	queueSize int
	log       *slog.Logger
}

func NewHub(queueSize int, log *slog.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		groups:    make(map[uuid.UUID]map[string]*Conn),
		queueSize: queueSize,
		log:       log.With(slog.String("component", "realtime_hub")),
	}
}

// Register adds a connection to the session group and tells the rest of the
// group the user is connected.
func (h *Hub) Register(sessionID uuid.UUID, userID, userName string, socket *websocket.Conn) *Conn {
	conn := newConn(sessionID, userID, userName, socket, h.queueSize)

	h.mu.Lock()
	group, ok := h.groups[sessionID]
	if !ok {
		group = make(map[string]*Conn)
		h.groups[sessionID] = group
	}
	group[conn.ID] = conn
	h.mu.Unlock()

	h.log.Debug("connection registered",
		slog.String("session_id", sessionID.String()),
		slog.String("user_id", userID),
		slog.String("conn_id", conn.ID),
	)

	h.publish(sessionID, domain.Event{
		Type:      domain.EventUserJoined,
		SessionID: sessionID.String(),
		ActorID:   userID,
		TargetID:  userID,
		Payload:   map[string]any{"reason": "connected", "user_name": userName},
		Timestamp: time.Now().UTC(),
	}, conn.ID)

	return conn
}

// Unregister removes a dropped connection and tells the group the user left.
// It does not end the user's participation in the session.
func (h *Hub) Unregister(conn *Conn) {
	h.mu.Lock()
	group, ok := h.groups[conn.SessionID]
	if ok {
		delete(group, conn.ID)
		if len(group) == 0 {
			delete(h.groups, conn.SessionID)
		}
	}
	h.mu.Unlock()

	conn.close()
	if !ok {
		return
	}

	h.log.Debug("connection unregistered",
		slog.String("session_id", conn.SessionID.String()),
		slog.String("user_id", conn.UserID),
		slog.String("conn_id", conn.ID),
	)

	h.publish(conn.SessionID, domain.Event{
		Type:      domain.EventUserLeft,
		SessionID: conn.SessionID.String(),
		ActorID:   conn.UserID,
		TargetID:  conn.UserID,
		Payload:   map[string]any{"reason": "disconnected"},
		Timestamp: time.Now().UTC(),
	}, "")
}

// Publish fans event out to every connection of the session.
func (h *Hub) Publish(sessionID uuid.UUID, event domain.Event) {
	if event.SessionID == "" {
		event.SessionID = sessionID.String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	h.publish(sessionID, event, "")
}

// Reply sends event to a single connection.
func (h *Hub) Reply(conn *Conn, event domain.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if !conn.Enqueue(event) {
		h.log.Debug("dropping reply", slog.String("conn_id", conn.ID), slog.String("type", string(event.Type)))
	}
}

// GroupSize returns the number of live connections for a session.
func (h *Hub) GroupSize(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[sessionID])
}

func (h *Hub) publish(sessionID uuid.UUID, event domain.Event, exclude string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, conn := range h.groups[sessionID] {
		if id == exclude {
			continue
		}
		if !conn.Enqueue(event) {
			h.log.Debug("dropping broadcast event", slog.String("conn_id", id), slog.String("type", string(event.Type)))
		}
	}
}
