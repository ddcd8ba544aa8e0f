package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const MaxChatMessageLength = 4000

type MessageType string

const (
	MessageText              MessageType = "text"
	MessageSystem            MessageType = "system"
	MessagePermissionRequest MessageType = "permission_request"
	MessagePermissionGranted MessageType = "permission_granted"
	MessagePermissionRevoked MessageType = "permission_revoked"
)

// ChatMetadata names the participant a system entry is about.
type ChatMetadata struct {
	TargetID string
	Action   string
}

type ChatMessage struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	UserID    string
	UserName  string
	Message   string
	Type      MessageType
	Metadata  *ChatMetadata
	Timestamp time.Time
}

// NewChatMessage validates text and builds a user-authored message.
func NewChatMessage(sessionID uuid.UUID, author *Participant, text string, now time.Time) (*ChatMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(trimmed) > MaxChatMessageLength {
		return nil, ErrMessageTooLong
	}

	msg := &ChatMessage{
		ID:        uuid.New(),
		SessionID: sessionID,
		Message:   trimmed,
		Type:      MessageText,
		Timestamp: now,
	}
	if author != nil {
		msg.UserID = author.UserID
		msg.UserName = author.UserName
	}
	return msg, nil
}

// NewSystemMessage builds an audit entry attributed to the acting user.
func NewSystemMessage(sessionID uuid.UUID, actorID, actorName string, typ MessageType, text string, meta *ChatMetadata, now time.Time) *ChatMessage {
	return &ChatMessage{
		ID:        uuid.New(),
		SessionID: sessionID,
		UserID:    actorID,
		UserName:  actorName,
		Message:   text,
		Type:      typ,
		Metadata:  meta,
		Timestamp: now,
	}
}

func (m *ChatMessage) Clone() *ChatMessage {
	c := *m
	if m.Metadata != nil {
		meta := *m.Metadata
		c.Metadata = &meta
	}
	return &c
}
