package service

import (
	"github.com/google/uuid"
	"github.com/immxrtalbeast/liveclass/internal/domain"
)

// publish hands event to the publisher. Delivery is best effort and never
// affects the outcome of the operation that produced it.
func (s *SessionService) publish(sessionID uuid.UUID, event domain.Event) {
	if s.events == nil {
		return
	}
	event.SessionID = sessionID.String()
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	s.events.Publish(sessionID, event)
}

func (s *SessionService) publishParticipant(sessionID uuid.UUID, actorID string, change *domain.Change) {
	if change.Participant != nil {
		s.publish(sessionID, domain.Event{
			Type:     domain.EventParticipantUpdated,
			ActorID:  actorID,
			TargetID: change.Participant.UserID,
			Payload:  map[string]any{"participant": participantPayload(change.Participant)},
		})
	}
	s.publishChat(sessionID, change.Chat)
}

func (s *SessionService) publishChat(sessionID uuid.UUID, chat []*domain.ChatMessage) {
	for _, msg := range chat {
		s.publish(sessionID, domain.Event{
			Type:      domain.EventChatMessage,
			ActorID:   msg.UserID,
			Payload:   map[string]any{"message": chatPayload(msg)},
			Timestamp: msg.Timestamp,
		})
	}
}

func participantPayload(p *domain.Participant) map[string]any {
	return map[string]any{
		"user_id":                 p.UserID,
		"user_name":               p.UserName,
		"role":                    string(p.Role),
		"is_muted":                p.IsMuted,
		"has_speaking_permission": p.HasSpeakingPermission,
		"permission_requested":    p.PermissionRequested,
		"is_hand_raised":          p.IsHandRaised,
		"video_on":                p.VideoOn,
		"is_screen_sharing":       p.IsScreenSharing,
	}
}

func chatPayload(m *domain.ChatMessage) map[string]any {
	payload := map[string]any{
		"id":        m.ID.String(),
		"user_id":   m.UserID,
		"user_name": m.UserName,
		"message":   m.Message,
		"type":      string(m.Type),
		"timestamp": m.Timestamp,
	}
	if m.Metadata != nil {
		payload["metadata"] = map[string]any{
			"target_id": m.Metadata.TargetID,
			"action":    m.Metadata.Action,
		}
	}
	return payload
}

func settingsPayload(st domain.Settings) map[string]any {
	return map[string]any{
		"allow_self_unmute":      st.AllowSelfUnmute,
		"auto_mute_new_students": st.AutoMuteNewStudents,
	}
}
