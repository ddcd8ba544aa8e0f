package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/liveclass/internal/domain"
)

func (s *SessionService) RequestSpeaking(ctx context.Context, sessionID uuid.UUID, studentID string) (*domain.Participant, error) {
	const op = "service.permission.request"

	change, err := s.applyParticipant(ctx, op, sessionID, studentID, studentID, domain.RequestSpeaking(s.now()))
	if err != nil {
		return nil, err
	}

	s.publishParticipant(sessionID, studentID, change)
	return change.Participant, nil
}

func (s *SessionService) RaiseHand(ctx context.Context, sessionID uuid.UUID, studentID string, action domain.HandAction) (*domain.Participant, error) {
	const op = "service.permission.hand"

	change, err := s.applyParticipant(ctx, op, sessionID, studentID, studentID, domain.RaiseHand(action, s.now()))
	if err != nil {
		return nil, err
	}

	s.publishParticipant(sessionID, studentID, change)
	return change.Participant, nil
}

func (s *SessionService) GrantSpeaking(ctx context.Context, sessionID uuid.UUID, teacherID, studentID string) (*domain.Participant, error) {
	const op = "service.permission.grant"

	change, err := s.applyParticipant(ctx, op, sessionID, teacherID, studentID, domain.GrantSpeaking(teacherID, s.now()))
	if err != nil {
		return nil, err
	}

	s.publishParticipant(sessionID, teacherID, change)
	return change.Participant, nil
}

func (s *SessionService) RevokeSpeaking(ctx context.Context, sessionID uuid.UUID, teacherID, studentID string) (*domain.Participant, error) {
	const op = "service.permission.revoke"

	change, err := s.applyParticipant(ctx, op, sessionID, teacherID, studentID, domain.RevokeSpeaking(teacherID, s.now()))
	if err != nil {
		return nil, err
	}

	s.publishParticipant(sessionID, teacherID, change)
	return change.Participant, nil
}

func (s *SessionService) SelfMute(ctx context.Context, sessionID uuid.UUID, userID string) (*domain.Participant, error) {
	const op = "service.permission.self_mute"

	change, err := s.applyParticipant(ctx, op, sessionID, userID, userID, domain.SelfMute())
	if err != nil {
		return nil, err
	}

	s.publishParticipant(sessionID, userID, change)
	return change.Participant, nil
}

func (s *SessionService) SelfUnmute(ctx context.Context, sessionID uuid.UUID, userID string) (*domain.Participant, error) {
	const op = "service.permission.self_unmute"

	change, err := s.applyParticipant(ctx, op, sessionID, userID, userID, domain.SelfUnmute())
	if err != nil {
		return nil, err
	}

	s.publishParticipant(sessionID, userID, change)
	return change.Participant, nil
}

// MuteParticipant is the teacher's per-student mute toggle. It announces the
// result with a targeted mute-student or unmute-student event.
func (s *SessionService) MuteParticipant(ctx context.Context, sessionID uuid.UUID, teacherID, studentID string, mute bool) (*domain.Participant, error) {
	const op = "service.permission.mute"

	change, err := s.applyParticipant(ctx, op, sessionID, teacherID, studentID, domain.MuteParticipant(teacherID, mute, s.now()))
	if err != nil {
		return nil, err
	}

	typ := domain.EventMuteStudent
	if !mute {
		typ = domain.EventUnmuteStudent
	}
	s.publish(sessionID, domain.Event{
		Type:     typ,
		ActorID:  teacherID,
		TargetID: studentID,
		Payload:  map[string]any{"participant": participantPayload(change.Participant)},
	})
	s.publishChat(sessionID, change.Chat)
	return change.Participant, nil
}

// MuteAll and UnmuteAll are not serialized against concurrent self-unmutes:
// whichever commits last decides a student's mute flag.
func (s *SessionService) MuteAll(ctx context.Context, sessionID uuid.UUID, teacherID string) ([]*domain.Participant, error) {
	const op = "service.permission.mute_all"
	return s.bulkMute(ctx, op, sessionID, teacherID, domain.MuteAll(teacherID, s.now()), domain.EventMuteAll)
}

func (s *SessionService) UnmuteAll(ctx context.Context, sessionID uuid.UUID, teacherID string) ([]*domain.Participant, error) {
	const op = "service.permission.unmute_all"
	return s.bulkMute(ctx, op, sessionID, teacherID, domain.UnmuteAll(teacherID, s.now()), domain.EventUnmuteAll)
}

func (s *SessionService) bulkMute(ctx context.Context, op string, sessionID uuid.UUID, teacherID string, t domain.SessionTransition, typ domain.EventType) ([]*domain.Participant, error) {
	_, change, err := s.applySession(ctx, op, sessionID, teacherID, t)
	if err != nil {
		return nil, err
	}

	affected := make([]string, 0, len(change.Participants))
	for _, p := range change.Participants {
		affected = append(affected, p.UserID)
	}
	s.publish(sessionID, domain.Event{
		Type:    typ,
		ActorID: teacherID,
		Payload: map[string]any{"user_ids": affected},
	})
	s.publishChat(sessionID, change.Chat)
	return change.Participants, nil
}
