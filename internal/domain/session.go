package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const channelLength = 16

type Role string

const (
	RoleHost     Role = "host"
	RoleAudience Role = "audience"
)

func (r Role) Valid() bool {
	return r == RoleHost || r == RoleAudience
}

// Settings is the policy applied to every participant of a session.
type Settings struct {
	AllowSelfUnmute     bool
	AutoMuteNewStudents bool
}

// Session is one live class. Participants, Chat and Requests keep insertion
// order.
type Session struct {
	ID          uuid.UUID
	ClassID     string
	TeacherID   string
	TeacherName string
	Title       string
	ChannelID   string
	IsActive    bool
	StartTime   time.Time
	EndTime     *time.Time
	Settings    Settings

	Participants []*Participant
	Chat         []*ChatMessage
	Requests     []*PermissionRequest
}

// NewSession constructs an active session whose only participant is the
// starting teacher as host.
func NewSession(classID string, teacher Identity, title string, settings Settings, now time.Time) *Session {
	s := &Session{
		ID:          uuid.New(),
		ClassID:     classID,
		TeacherID:   teacher.UserID,
		TeacherName: teacher.Name,
		Title:       title,
		ChannelID:   generateChannel(),
		IsActive:    true,
		StartTime:   now,
		Settings:    settings,
	}
	s.Participants = []*Participant{NewHost(teacher.UserID, teacher.Name, now)}
	return s
}

func (s *Session) IsTeacher(userID string) bool {
	return userID != "" && s.TeacherID == userID
}

func (s *Session) EnsureActive() error {
	if !s.IsActive {
		return ErrSessionEnded
	}
	return nil
}

func (s *Session) Participant(userID string) *Participant {
	for _, p := range s.Participants {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func (s *Session) PendingRequests() []*PermissionRequest {
	pending := make([]*PermissionRequest, 0)
	for _, r := range s.Requests {
		if r.Status == RequestPending {
			pending = append(pending, r)
		}
	}
	return pending
}

// Header returns a copy of s without its participant, chat and request lists.
func (s *Session) Header() *Session {
	h := *s
	h.Participants = nil
	h.Chat = nil
	h.Requests = nil
	if s.EndTime != nil {
		end := *s.EndTime
		h.EndTime = &end
	}
	return &h
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	c := s.Header()
	c.Participants = make([]*Participant, 0, len(s.Participants))
	for _, p := range s.Participants {
		c.Participants = append(c.Participants, p.Clone())
	}
	c.Chat = make([]*ChatMessage, 0, len(s.Chat))
	for _, m := range s.Chat {
		c.Chat = append(c.Chat, m.Clone())
	}
	c.Requests = make([]*PermissionRequest, 0, len(s.Requests))
	for _, r := range s.Requests {
		c.Requests = append(c.Requests, r.Clone())
	}
	return c
}

// RegenerateChannel assigns a fresh transport channel id after a collision.
func (s *Session) RegenerateChannel() {
	s.ChannelID = generateChannel()
}

func generateChannel() string {
	channel := strings.ReplaceAll(uuid.New().String(), "-", "")
	if len(channel) <= channelLength {
		return "class-" + channel
	}
	return "class-" + channel[:channelLength]
}
