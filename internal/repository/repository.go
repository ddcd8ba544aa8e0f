package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/liveclass/internal/domain"
)

// ErrChannelTaken is returned by Create when the generated transport channel
// id collides with an existing session.
var ErrChannelTaken = errors.New("transport channel already taken")

// SessionRepository persists sessions. Apply and ApplySession are the only
// mutation paths after Create, and each runs atomically.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	GetActiveByClass(ctx context.Context, classID string) (*domain.Session, error)
	ListActive(ctx context.Context) ([]*domain.Session, error)

	// Apply runs a participant-scoped transition against one participant row.
	Apply(ctx context.Context, sessionID uuid.UUID, userID string, t domain.Transition) (*domain.Change, error)
	// ApplySession runs a session-wide transition and returns the updated
	// session with its participants.
	ApplySession(ctx context.Context, sessionID uuid.UUID, t domain.SessionTransition) (*domain.Session, error)
}
