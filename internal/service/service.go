package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/liveclass/internal/domain"
)

// SessionInteractor is the Session Store and Permission State Machine as
// seen by transports.
type SessionInteractor interface {
	StartSession(ctx context.Context, classID string, teacher domain.Identity, title string, settings *domain.Settings) (*domain.Session, error)
	GetSessionView(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error)
	GetActiveSession(ctx context.Context, classID string) (*domain.Session, error)
	ListActiveSessions(ctx context.Context) ([]*domain.Session, error)
	JoinSession(ctx context.Context, sessionID uuid.UUID, who domain.Identity, role domain.Role) (*domain.Participant, *domain.JoinCredential, error)
	LeaveSession(ctx context.Context, sessionID uuid.UUID, userID string) error
	EndSession(ctx context.Context, sessionID uuid.UUID, callerID string) (*domain.Session, error)
	AppendChat(ctx context.Context, sessionID uuid.UUID, userID, text string) (*domain.ChatMessage, error)
	UpdateSettings(ctx context.Context, sessionID uuid.UUID, teacherID string, settings domain.Settings) (*domain.Session, error)
	UpdateMediaState(ctx context.Context, sessionID uuid.UUID, userID string, videoOn, screenSharing *bool) (*domain.Participant, error)
	IssueCredential(ctx context.Context, sessionID uuid.UUID, userID string) (*domain.JoinCredential, error)
}

// PermissionInteractor exposes the speaking-permission transitions.
type PermissionInteractor interface {
	RequestSpeaking(ctx context.Context, sessionID uuid.UUID, studentID string) (*domain.Participant, error)
	RaiseHand(ctx context.Context, sessionID uuid.UUID, studentID string, action domain.HandAction) (*domain.Participant, error)
	GrantSpeaking(ctx context.Context, sessionID uuid.UUID, teacherID, studentID string) (*domain.Participant, error)
	RevokeSpeaking(ctx context.Context, sessionID uuid.UUID, teacherID, studentID string) (*domain.Participant, error)
	SelfMute(ctx context.Context, sessionID uuid.UUID, userID string) (*domain.Participant, error)
	SelfUnmute(ctx context.Context, sessionID uuid.UUID, userID string) (*domain.Participant, error)
	MuteParticipant(ctx context.Context, sessionID uuid.UUID, teacherID, studentID string, mute bool) (*domain.Participant, error)
	MuteAll(ctx context.Context, sessionID uuid.UUID, teacherID string) ([]*domain.Participant, error)
	UnmuteAll(ctx context.Context, sessionID uuid.UUID, teacherID string) ([]*domain.Participant, error)
}

// EventPublisher carries notifications to the clients of a session. It is
// called only after a mutation has been persisted.
type EventPublisher interface {
	Publish(sessionID uuid.UUID, event domain.Event)
}

// CredentialIssuer signs media-transport join credentials.
type CredentialIssuer interface {
	Issue(channelID, userID string, tier domain.MediaTier) (*domain.JoinCredential, error)
}
