package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/liveclass/internal/domain"
)

type InMemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*domain.Session
	channels map[string]uuid.UUID
	active   map[string]uuid.UUID // class id -> active session id
}

func NewInMemorySessionRepository() *InMemorySessionRepository {
	return &InMemorySessionRepository{
		sessions: make(map[uuid.UUID]*domain.Session),
		channels: make(map[string]uuid.UUID),
		active:   make(map[string]uuid.UUID),
	}
}

var _ SessionRepository = (*InMemorySessionRepository)(nil)

func (r *InMemorySessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.active[session.ClassID]; ok && session.IsActive {
		return domain.ErrActiveSessionExists
	}
	if _, ok := r.channels[session.ChannelID]; ok {
		return ErrChannelTaken
	}

	r.sessions[session.ID] = session.Clone()
	r.channels[session.ChannelID] = session.ID
	if session.IsActive {
		r.active[session.ClassID] = session.ID
	}
	return nil
}

func (r *InMemorySessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (r *InMemorySessionRepository) GetActiveByClass(ctx context.Context, classID string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.active[classID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return r.sessions[id].Clone(), nil
}

func (r *InMemorySessionRepository) ListActive(ctx context.Context) ([]*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Session, 0, len(r.active))
	for _, id := range r.active {
		result = append(result, r.sessions[id].Header())
	}
	return result, nil
}

func (r *InMemorySessionRepository) Apply(ctx context.Context, sessionID uuid.UUID, userID string, t domain.Transition) (*domain.Change, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	header := session.Header()
	if t.Authorize != nil {
		if err := t.Authorize(header); err != nil {
			return nil, err
		}
	}

	var current *domain.Participant
	index := -1
	for i, p := range session.Participants {
		if p.UserID == userID {
			current, index = p.Clone(), i
			break
		}
	}

	change, err := t.Apply(header, current)
	if err != nil {
		return nil, err
	}

	if p := change.Participant; p != nil {
		if index >= 0 {
			session.Participants[index] = p.Clone()
		} else {
			session.Participants = append(session.Participants, p.Clone())
			change.Created = true
		}
	}
	if change.Opened != nil {
		session.Requests = append(session.Requests, change.Opened.Clone())
	}
	if change.Resolved != nil {
		for _, req := range session.Requests {
			req.Resolve(change.Resolved)
		}
	}
	for _, msg := range change.Chat {
		session.Chat = append(session.Chat, msg.Clone())
	}

	return change, nil
}

func (r *InMemorySessionRepository) ApplySession(ctx context.Context, sessionID uuid.UUID, t domain.SessionTransition) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if t.Authorize != nil {
		if err := t.Authorize(stored.Header()); err != nil {
			return nil, err
		}
	}

	working := stored.Header()
	working.Participants = make([]*domain.Participant, 0, len(stored.Participants))
	for _, p := range stored.Participants {
		working.Participants = append(working.Participants, p.Clone())
	}

	change, err := t.Apply(working)
	if err != nil {
		return nil, err
	}

	stored.IsActive = working.IsActive
	stored.EndTime = working.EndTime
	stored.Settings = working.Settings
	for _, p := range change.Participants {
		for i, existing := range stored.Participants {
			if existing.UserID == p.UserID {
				stored.Participants[i] = p.Clone()
			}
		}
	}
	for _, msg := range change.Chat {
		stored.Chat = append(stored.Chat, msg.Clone())
	}
	if !stored.IsActive && r.active[stored.ClassID] == stored.ID {
		delete(r.active, stored.ClassID)
	}

	result := stored.Header()
	result.Participants = make([]*domain.Participant, 0, len(stored.Participants))
	for _, p := range stored.Participants {
		result.Participants = append(result.Participants, p.Clone())
	}
	return result, nil
}
