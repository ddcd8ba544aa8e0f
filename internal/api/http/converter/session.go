package converter

import (
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/liveclass/internal/domain"
)

type SessionResponse struct {
	ID              uuid.UUID                   `json:"id"`
	ClassID         string                      `json:"class_id"`
	TeacherID       string                      `json:"teacher_id"`
	TeacherName     string                      `json:"teacher_name"`
	Title           string                      `json:"title"`
	ChannelID       string                      `json:"channel_id"`
	IsActive        bool                        `json:"is_active"`
	StartTime       time.Time                   `json:"start_time"`
	EndTime         *time.Time                  `json:"end_time,omitempty"`
	Settings        SettingsResponse            `json:"settings"`
	Participants    []ParticipantResponse       `json:"participants"`
	Chat            []ChatMessageResponse       `json:"chat"`
	PendingRequests []PermissionRequestResponse `json:"pending_requests"`
}

type SettingsResponse struct {
	AllowSelfUnmute     bool `json:"allow_self_unmute"`
	AutoMuteNewStudents bool `json:"auto_mute_new_students"`
}

type ParticipantResponse struct {
	UserID                string      `json:"user_id"`
	UserName              string      `json:"user_name"`
	Role                  domain.Role `json:"role"`
	IsMuted               bool        `json:"is_muted"`
	HasSpeakingPermission bool        `json:"has_speaking_permission"`
	PermissionRequested   bool        `json:"permission_requested"`
	IsHandRaised          bool        `json:"is_hand_raised"`
	VideoOn               bool        `json:"video_on"`
	IsScreenSharing       bool        `json:"is_screen_sharing"`
	JoinedAt              time.Time   `json:"joined_at"`
	LastJoinTime          *time.Time  `json:"last_join_time,omitempty"`
	LeftAt                *time.Time  `json:"left_at,omitempty"`
	TotalTimeSpentSeconds int64       `json:"total_time_spent_seconds"`
}

type ChatMessageResponse struct {
	ID        uuid.UUID          `json:"id"`
	UserID    string             `json:"user_id"`
	UserName  string             `json:"user_name"`
	Message   string             `json:"message"`
	Type      domain.MessageType `json:"type"`
	TargetID  string             `json:"target_id,omitempty"`
	Action    string             `json:"action,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

type PermissionRequestResponse struct {
	ID          uuid.UUID            `json:"id"`
	StudentID   string               `json:"student_id"`
	StudentName string               `json:"student_name"`
	RequestedAt time.Time            `json:"requested_at"`
	Status      domain.RequestStatus `json:"status"`
}

type CredentialResponse struct {
	Token     string           `json:"token"`
	ChannelID string           `json:"channel_id"`
	Tier      domain.MediaTier `json:"tier"`
	ExpiresAt time.Time        `json:"expires_at"`
}

func SessionToApi(s *domain.Session) *SessionResponse {
	participants := make([]ParticipantResponse, 0, len(s.Participants))
	for _, p := range s.Participants {
		participants = append(participants, ParticipantToApi(p))
	}

	chat := make([]ChatMessageResponse, 0, len(s.Chat))
	for _, m := range s.Chat {
		chat = append(chat, ChatMessageToApi(m))
	}

	pending := s.PendingRequests()
	requests := make([]PermissionRequestResponse, 0, len(pending))
	for _, r := range pending {
		requests = append(requests, PermissionRequestResponse{
			ID:          r.ID,
			StudentID:   r.StudentID,
			StudentName: r.StudentName,
			RequestedAt: r.RequestedAt,
			Status:      r.Status,
		})
	}

	return &SessionResponse{
		ID:              s.ID,
		ClassID:         s.ClassID,
		TeacherID:       s.TeacherID,
		TeacherName:     s.TeacherName,
		Title:           s.Title,
		ChannelID:       s.ChannelID,
		IsActive:        s.IsActive,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		Settings:        SettingsToApi(s.Settings),
		Participants:    participants,
		Chat:            chat,
		PendingRequests: requests,
	}
}

func SettingsToApi(st domain.Settings) SettingsResponse {
	return SettingsResponse{
		AllowSelfUnmute:     st.AllowSelfUnmute,
		AutoMuteNewStudents: st.AutoMuteNewStudents,
	}
}

func ParticipantToApi(p *domain.Participant) ParticipantResponse {
	return ParticipantResponse{
		UserID:                p.UserID,
		UserName:              p.UserName,
		Role:                  p.Role,
		IsMuted:               p.IsMuted,
		HasSpeakingPermission: p.HasSpeakingPermission,
		PermissionRequested:   p.PermissionRequested,
		IsHandRaised:          p.IsHandRaised,
		VideoOn:               p.VideoOn,
		IsScreenSharing:       p.IsScreenSharing,
		JoinedAt:              p.JoinedAt,
		LastJoinTime:          p.LastJoinTime,
		LeftAt:                p.LeftAt,
		TotalTimeSpentSeconds: int64(p.TotalTimeSpent / time.Second),
	}
}

func ParticipantsToApi(ps []*domain.Participant) []ParticipantResponse {
	out := make([]ParticipantResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, ParticipantToApi(p))
	}
	return out
}

func ChatMessageToApi(m *domain.ChatMessage) ChatMessageResponse {
	res := ChatMessageResponse{
		ID:        m.ID,
		UserID:    m.UserID,
		UserName:  m.UserName,
		Message:   m.Message,
		Type:      m.Type,
		Timestamp: m.Timestamp,
	}
	if m.Metadata != nil {
		res.TargetID = m.Metadata.TargetID
		res.Action = m.Metadata.Action
	}
	return res
}

func CredentialToApi(c *domain.JoinCredential) *CredentialResponse {
	if c == nil {
		return nil
	}
	return &CredentialResponse{
		Token:     c.Token,
		ChannelID: c.ChannelID,
		Tier:      c.Tier,
		ExpiresAt: c.ExpiresAt,
	}
}
