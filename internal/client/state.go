package client

import (
	"log/slog"
	"sync"

	"github.com/immxrtalbeast/liveclass/internal/api/http/converter"
	"github.com/immxrtalbeast/liveclass/internal/domain"
	"github.com/immxrtalbeast/liveclass/lib/logger/sl"
)

// State is what one attending client believes about a session. Realtime
// events nudge it; every poll overwrites it with the server's view.
type State struct {
	mu     sync.Mutex
	userID string
	audio  AudioPublisher
	log    *slog.Logger

	active       bool
	participants []converter.ParticipantResponse
	chat         []converter.ChatMessageResponse
	settings     converter.SettingsResponse

	role          domain.Role
	muted         bool
	hasPermission bool
	handRaised    bool
}

// Snapshot is a copy of the local state for display.
type Snapshot struct {
	Active                bool
	Participants          []converter.ParticipantResponse
	Chat                  []converter.ChatMessageResponse
	Settings              converter.SettingsResponse
	Muted                 bool
	HasSpeakingPermission bool
	HandRaised            bool
}

// Diff reports which of the local user's flags a reconciliation changed.
type Diff struct {
	Muted      bool
	Permission bool
	Hand       bool
}

// NewState starts muted and active until the first poll says otherwise.
// audio may be nil for clients that do not publish media.
func NewState(userID string, audio AudioPublisher, log *slog.Logger) *State {
	if log == nil {
		log = slog.Default()
	}
	return &State{
		userID: userID,
		audio:  audio,
		log:    log.With(slog.String("component", "client_state"), slog.String("user_id", userID)),
		active: true,
		muted:  true,
	}
}

// Reconcile replaces the participant list and chat with view and converges
// the local user's flags on the authoritative ones. A failure to apply the
// mute state to the audio publisher keeps the old belief so the next poll
// tries again.
func (s *State) Reconcile(view *converter.SessionResponse) Diff {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = view.IsActive
	s.participants = append([]converter.ParticipantResponse(nil), view.Participants...)
	s.chat = append([]converter.ChatMessageResponse(nil), view.Chat...)
	s.settings = view.Settings

	var diff Diff
	for _, p := range view.Participants {
		if p.UserID != s.userID {
			continue
		}
		s.role = p.Role
		if s.setMuted(p.IsMuted) {
			diff.Muted = true
		}
		if p.HasSpeakingPermission != s.hasPermission {
			s.hasPermission = p.HasSpeakingPermission
			diff.Permission = true
		}
		if p.IsHandRaised != s.handRaised {
			s.handRaised = p.IsHandRaised
			diff.Hand = true
		}
		break
	}

	if diff != (Diff{}) {
		s.log.Info("local state reconciled",
			slog.Bool("muted", s.muted),
			slog.Bool("has_speaking_permission", s.hasPermission),
			slog.Bool("hand_raised", s.handRaised),
		)
	}
	return diff
}

// ApplyEvent interprets a realtime hint. Targeted events apply only to
// their target; bulk mute events only to audience members. It reports
// whether the local state changed.
func (s *State) ApplyEvent(event domain.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.IsTargeted() && event.TargetID != s.userID {
		return false
	}

	switch event.Type {
	case domain.EventMuteStudent:
		return s.setMuted(true)
	case domain.EventUnmuteStudent:
		return s.setMuted(false)
	case domain.EventMuteAll:
		if s.role != domain.RoleAudience {
			return false
		}
		return s.setMuted(true)
	case domain.EventUnmuteAll:
		if s.role != domain.RoleAudience || !s.hasPermission {
			return false
		}
		return s.setMuted(false)
	case domain.EventParticipantUpdated:
		return s.applyParticipantPayload(event.Payload)
	case domain.EventSessionEnded:
		changed := s.active
		s.active = false
		return changed
	}
	return false
}

func (s *State) applyParticipantPayload(payload map[string]any) bool {
	p, ok := payload["participant"].(map[string]any)
	if !ok {
		return false
	}

	changed := false
	if v, ok := p["has_speaking_permission"].(bool); ok && v != s.hasPermission {
		s.hasPermission = v
		changed = true
	}
	if v, ok := p["is_hand_raised"].(bool); ok && v != s.handRaised {
		s.handRaised = v
		changed = true
	}
	if v, ok := p["is_muted"].(bool); ok && s.setMuted(v) {
		changed = true
	}
	return changed
}

// setMuted applies muted to the audio publisher first and records it only
// on success. Callers hold s.mu.
func (s *State) setMuted(muted bool) bool {
	if muted == s.muted {
		return false
	}
	if s.audio != nil {
		if err := s.audio.SetAudioEnabled(!muted); err != nil {
			s.log.Warn("failed to apply mute state to audio", slog.Bool("muted", muted), sl.Err(err))
			return false
		}
	}
	s.muted = muted
	return true
}

func (s *State) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *State) MarkEnded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Active:                s.active,
		Participants:          append([]converter.ParticipantResponse(nil), s.participants...),
		Chat:                  append([]converter.ChatMessageResponse(nil), s.chat...),
		Settings:              s.settings,
		Muted:                 s.muted,
		HasSpeakingPermission: s.hasPermission,
		HandRaised:            s.handRaised,
	}
}
