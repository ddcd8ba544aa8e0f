package client

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/liveclass/lib/logger/sl"
)

const (
	DefaultPollInterval = 3 * time.Second
	DefaultMaxNotFound  = 3
)

// Poller periodically pulls the session view and reconciles State with it.
// It is the correctness backstop for missed realtime events.
type Poller struct {
	sessionID   uuid.UUID
	fetcher     Fetcher
	state       *State
	interval    time.Duration
	maxNotFound int
	log         *slog.Logger

	inFlight atomic.Bool
	notFound atomic.Int32
}

func NewPoller(sessionID uuid.UUID, fetcher Fetcher, state *State, interval time.Duration, maxNotFound int, log *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxNotFound <= 0 {
		maxNotFound = DefaultMaxNotFound
	}
	if log == nil {
		log = slog.Default()
	}
	return &Poller{
		sessionID:   sessionID,
		fetcher:     fetcher,
		state:       state,
		interval:    interval,
		maxNotFound: maxNotFound,
		log:         log.With(slog.String("component", "poller"), slog.String("session_id", sessionID.String())),
	}
}

// Run polls until the session ends, the session has been missing for
// maxNotFound consecutive polls, or ctx is done. It returns nil when the
// session ended, ErrSessionGone when it disappeared, and ctx.Err() otherwise.
// A tick that fires while the previous poll is still running is skipped.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	done := make(chan error, 1)
	p.tick(ctx, done)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-done:
			return err
		case <-ticker.C:
			p.tick(ctx, done)
		}
	}
}

func (p *Poller) tick(ctx context.Context, done chan<- error) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.log.Debug("previous poll still in flight, skipping tick")
		return
	}

	go func() {
		stop, err := p.PollOnce(ctx)
		if stop {
			// inFlight stays set so no later tick polls again.
			select {
			case done <- err:
			default:
			}
			return
		}
		p.inFlight.Store(false)
	}()
}

// PollOnce performs one reconciliation. stop reports whether polling should
// end; err is ErrSessionGone when it ends because the session is missing.
func (p *Poller) PollOnce(ctx context.Context) (stop bool, err error) {
	view, err := p.fetcher.FetchSession(ctx, p.sessionID)
	if err != nil {
		if ctx.Err() != nil {
			return false, nil
		}
		if errors.Is(err, ErrSessionGone) {
			misses := int(p.notFound.Add(1))
			p.log.Warn("session not found", slog.Int("consecutive", misses))
			if misses >= p.maxNotFound {
				p.state.MarkEnded()
				return true, ErrSessionGone
			}
			return false, nil
		}
		p.notFound.Store(0)
		p.log.Warn("poll failed, skipping tick", sl.Err(err))
		return false, nil
	}
	p.notFound.Store(0)

	if !view.IsActive {
		p.state.MarkEnded()
		p.log.Info("session ended, polling stopped")
		return true, nil
	}

	diff := p.state.Reconcile(view)
	if diff.Muted {
		p.log.Info("mute state corrected from server", slog.Bool("muted", p.state.Snapshot().Muted))
	}
	return false, nil
}
