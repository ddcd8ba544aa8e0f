package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/liveclass/internal/domain"
	"github.com/immxrtalbeast/liveclass/internal/repository"
	"github.com/immxrtalbeast/liveclass/lib/logger/sl"
)

const maxChannelAttempts = 5

type SessionService struct {
	sessions repository.SessionRepository
	events   EventPublisher
	media    CredentialIssuer
	defaults domain.Settings
	log      *slog.Logger
	now      func() time.Time
}

type Option func(*SessionService)

// WithClock replaces the wall clock used to stamp transitions.
func WithClock(now func() time.Time) Option {
	return func(s *SessionService) {
		s.now = now
	}
}

func NewSessionService(
	sessions repository.SessionRepository,
	events EventPublisher,
	media CredentialIssuer,
	defaults domain.Settings,
	log *slog.Logger,
	opts ...Option,
) *SessionService {
	if log == nil {
		log = slog.Default()
	}
	s := &SessionService{
		sessions: sessions,
		events:   events,
		media:    media,
		defaults: defaults,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	_ SessionInteractor    = (*SessionService)(nil)
	_ PermissionInteractor = (*SessionService)(nil)
)

func (s *SessionService) StartSession(ctx context.Context, classID string, teacher domain.Identity, title string, settings *domain.Settings) (*domain.Session, error) {
	const op = "service.session.start"
	log := s.log.With(
		slog.String("op", op),
		slog.String("class_id", classID),
		slog.String("teacher_id", teacher.UserID),
	)

	if strings.TrimSpace(classID) == "" || teacher.UserID == "" {
		return nil, s.fail(log, op, uuid.Nil, teacher.UserID, domain.ErrMissingIdentifier)
	}

	policy := s.defaults
	if settings != nil {
		policy = *settings
	}

	for attempt := 0; attempt < maxChannelAttempts; attempt++ {
		session := domain.NewSession(classID, teacher, title, policy, s.now())
		err := s.sessions.Create(ctx, session)
		if errors.Is(err, repository.ErrChannelTaken) {
			log.Warn("transport channel collision, regenerating", slog.String("channel_id", session.ChannelID))
			continue
		}
		if err != nil {
			return nil, s.fail(log, op, uuid.Nil, teacher.UserID, err)
		}

		log.Info("session started",
			slog.String("session_id", session.ID.String()),
			slog.String("channel_id", session.ChannelID),
		)
		return session, nil
	}

	return nil, s.fail(log, op, uuid.Nil, teacher.UserID, repository.ErrChannelTaken)
}

func (s *SessionService) GetSessionView(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	const op = "service.session.view"

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, s.fail(s.log.With(slog.String("op", op)), op, sessionID, "", err)
	}
	return session, nil
}

func (s *SessionService) GetActiveSession(ctx context.Context, classID string) (*domain.Session, error) {
	const op = "service.session.active"

	session, err := s.sessions.GetActiveByClass(ctx, classID)
	if err != nil {
		return nil, s.fail(s.log.With(slog.String("op", op), slog.String("class_id", classID)), op, uuid.Nil, "", err)
	}
	return session, nil
}

func (s *SessionService) ListActiveSessions(ctx context.Context) ([]*domain.Session, error) {
	return s.sessions.ListActive(ctx)
}

func (s *SessionService) JoinSession(ctx context.Context, sessionID uuid.UUID, who domain.Identity, role domain.Role) (*domain.Participant, *domain.JoinCredential, error) {
	const op = "service.session.join"

	var channelID string
	t := observeSession(domain.Join(who, role, s.now()), func(session *domain.Session) {
		channelID = session.ChannelID
	})

	change, err := s.applyParticipant(ctx, op, sessionID, who.UserID, who.UserID, t)
	if err != nil {
		return nil, nil, err
	}
	p := change.Participant

	var cred *domain.JoinCredential
	if s.media != nil {
		cred, err = s.media.Issue(channelID, p.UserID, domain.TierFor(p))
		if err != nil {
			return nil, nil, s.fail(s.log.With(slog.String("op", op)), op, sessionID, who.UserID, err)
		}
	}

	reason := "joined"
	if !change.Created {
		reason = "rejoined"
	}
	s.publish(sessionID, domain.Event{
		Type:     domain.EventUserJoined,
		ActorID:  p.UserID,
		TargetID: p.UserID,
		Payload:  map[string]any{"reason": reason, "participant": participantPayload(p)},
	})
	s.publishChat(sessionID, change.Chat)

	return p, cred, nil
}

func (s *SessionService) LeaveSession(ctx context.Context, sessionID uuid.UUID, userID string) error {
	const op = "service.session.leave"

	change, err := s.applyParticipant(ctx, op, sessionID, userID, userID, domain.Leave(s.now()))
	if err != nil {
		return err
	}
	if change.Participant == nil {
		return nil
	}

	s.publish(sessionID, domain.Event{
		Type:     domain.EventUserLeft,
		ActorID:  userID,
		TargetID: userID,
		Payload:  map[string]any{"reason": "left", "participant": participantPayload(change.Participant)},
	})
	s.publishChat(sessionID, change.Chat)
	return nil
}

func (s *SessionService) EndSession(ctx context.Context, sessionID uuid.UUID, callerID string) (*domain.Session, error) {
	const op = "service.session.end"

	session, change, err := s.applySession(ctx, op, sessionID, callerID, domain.End(callerID, s.now()))
	if err != nil {
		return nil, err
	}

	s.publishChat(sessionID, change.Chat)
	s.publish(sessionID, domain.Event{
		Type:    domain.EventSessionEnded,
		ActorID: callerID,
		Payload: map[string]any{"end_time": session.EndTime},
	})
	return session, nil
}

func (s *SessionService) AppendChat(ctx context.Context, sessionID uuid.UUID, userID, text string) (*domain.ChatMessage, error) {
	const op = "service.session.chat"

	if strings.TrimSpace(text) == "" {
		return nil, s.fail(s.log.With(slog.String("op", op)), op, sessionID, userID, domain.ErrEmptyMessage)
	}

	change, err := s.applyParticipant(ctx, op, sessionID, userID, userID, domain.PostChat(text, s.now()))
	if err != nil {
		return nil, err
	}

	s.publishChat(sessionID, change.Chat)
	return change.Chat[0], nil
}

func (s *SessionService) UpdateSettings(ctx context.Context, sessionID uuid.UUID, teacherID string, settings domain.Settings) (*domain.Session, error) {
	const op = "service.session.settings"

	session, change, err := s.applySession(ctx, op, sessionID, teacherID, domain.UpdateSettings(teacherID, settings, s.now()))
	if err != nil {
		return nil, err
	}

	s.publishChat(sessionID, change.Chat)
	s.publish(sessionID, domain.Event{
		Type:    domain.EventSettingsUpdated,
		ActorID: teacherID,
		Payload: map[string]any{"settings": settingsPayload(session.Settings)},
	})
	return session, nil
}

func (s *SessionService) UpdateMediaState(ctx context.Context, sessionID uuid.UUID, userID string, videoOn, screenSharing *bool) (*domain.Participant, error) {
	const op = "service.session.media"

	change, err := s.applyParticipant(ctx, op, sessionID, userID, userID, domain.UpdateMedia(videoOn, screenSharing))
	if err != nil {
		return nil, err
	}

	s.publishParticipant(sessionID, userID, change)
	return change.Participant, nil
}

// IssueCredential re-signs a media credential reflecting the participant's
// current speaking permission.
func (s *SessionService) IssueCredential(ctx context.Context, sessionID uuid.UUID, userID string) (*domain.JoinCredential, error) {
	const op = "service.session.credential"
	log := s.log.With(slog.String("op", op))

	if s.media == nil {
		return nil, s.fail(log, op, sessionID, userID, errors.New("media credentials are not configured"))
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, s.fail(log, op, sessionID, userID, err)
	}
	if err := session.EnsureActive(); err != nil {
		return nil, s.fail(log, op, sessionID, userID, err)
	}
	p := session.Participant(userID)
	if p == nil {
		return nil, s.fail(log, op, sessionID, userID, domain.ErrParticipantNotFound)
	}

	cred, err := s.media.Issue(session.ChannelID, userID, domain.TierFor(p))
	if err != nil {
		return nil, s.fail(log, op, sessionID, userID, err)
	}
	return cred, nil
}

func (s *SessionService) applyParticipant(ctx context.Context, op string, sessionID uuid.UUID, actorID, targetID string, t domain.Transition) (*domain.Change, error) {
	log := s.log.With(
		slog.String("op", op),
		slog.String("session_id", sessionID.String()),
		slog.String("actor_id", actorID),
		slog.String("target_id", targetID),
	)

	if actorID == "" || targetID == "" {
		return nil, s.fail(log, op, sessionID, targetID, domain.ErrMissingIdentifier)
	}

	change, err := s.sessions.Apply(ctx, sessionID, targetID, t)
	if err != nil {
		return nil, s.fail(log, op, sessionID, targetID, err)
	}

	log.Info("transition applied", slog.String("transition", t.Name))
	return change, nil
}

// applySession runs t and returns the committed session together with the
// change it produced.
func (s *SessionService) applySession(ctx context.Context, op string, sessionID uuid.UUID, actorID string, t domain.SessionTransition) (*domain.Session, *domain.SessionChange, error) {
	log := s.log.With(
		slog.String("op", op),
		slog.String("session_id", sessionID.String()),
		slog.String("actor_id", actorID),
	)

	if actorID == "" {
		return nil, nil, s.fail(log, op, sessionID, actorID, domain.ErrMissingIdentifier)
	}

	var change *domain.SessionChange
	apply := t.Apply
	t.Apply = func(session *domain.Session) (*domain.SessionChange, error) {
		c, err := apply(session)
		change = c
		return c, err
	}

	session, err := s.sessions.ApplySession(ctx, sessionID, t)
	if err != nil {
		return nil, nil, s.fail(log, op, sessionID, actorID, err)
	}

	log.Info("session transition applied", slog.String("transition", t.Name))
	return session, change, nil
}

// fail logs err and wraps it with the operation context. Classified errors
// are caller mistakes and logged at info; anything else is an outage.
func (s *SessionService) fail(log *slog.Logger, op string, sessionID uuid.UUID, userID string, err error) error {
	if domain.Kind(err) == nil {
		log.Error("operation failed", sl.Err(err))
	} else {
		log.Info("operation rejected", sl.Err(err))
	}

	opErr := &domain.OpError{Op: op, UserID: userID, Err: err}
	if sessionID != uuid.Nil {
		opErr.SessionID = sessionID.String()
	}
	return opErr
}

// observeSession lets the caller see the session header the transition ran
// against.
func observeSession(t domain.Transition, fn func(*domain.Session)) domain.Transition {
	apply := t.Apply
	t.Apply = func(session *domain.Session, p *domain.Participant) (*domain.Change, error) {
		fn(session)
		return apply(session, p)
	}
	return t
}
