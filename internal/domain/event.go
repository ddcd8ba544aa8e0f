package domain

import "time"

type EventType string

const (
	EventUserJoined         EventType = "user-joined"
	EventUserLeft           EventType = "user-left"
	EventMuteStudent        EventType = "mute-student"
	EventUnmuteStudent      EventType = "unmute-student"
	EventMuteAll            EventType = "mute-all"
	EventUnmuteAll          EventType = "unmute-all"
	EventParticipantUpdated EventType = "participant-updated"
	EventChatMessage        EventType = "chat-message"
	EventSettingsUpdated    EventType = "settings-updated"
	EventSessionEnded       EventType = "session-ended"
	EventError              EventType = "error"
)

// Event is one realtime notification. It carries no authority: receivers
// treat it as a hint and rely on polling for the actual state.
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	ActorID   string         `json:"actor_id,omitempty"`
	TargetID  string         `json:"target_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// IsTargeted reports whether the event applies only to TargetID.
func (e Event) IsTargeted() bool {
	switch e.Type {
	case EventMuteStudent, EventUnmuteStudent, EventParticipantUpdated:
		return true
	}
	return false
}

type CommandType string

const (
	CommandMuteStudent     CommandType = "mute-student"
	CommandUnmuteStudent   CommandType = "unmute-student"
	CommandMuteAll         CommandType = "mute-all"
	CommandUnmuteAll       CommandType = "unmute-all"
	CommandSelfMute        CommandType = "self-mute"
	CommandSelfUnmute      CommandType = "self-unmute"
	CommandRequestSpeaking CommandType = "request-speaking"
	CommandRaiseHand       CommandType = "raise-hand"
	CommandLowerHand       CommandType = "lower-hand"
	CommandChat            CommandType = "chat"
	CommandLeave           CommandType = "leave"
)

// Command is an action a client sends over its realtime connection.
type Command struct {
	Type     CommandType `json:"type"`
	TargetID string      `json:"target_id,omitempty"`
	Message  string      `json:"message,omitempty"`
}
