package domain

import "time"

// Change is the outcome of a transition applied to one participant.
type Change struct {
	Participant *Participant // nil when the participant itself is untouched
	Created     bool
	Opened      *PermissionRequest
	Resolved    *Resolution
	Chat        []*ChatMessage
}

// Transition is a participant-scoped state change. Authorize runs against the
// session header. Apply receives a private copy of the target participant,
// nil when the user is not a participant, and returns what must be persisted.
type Transition struct {
	Name      string
	Authorize func(s *Session) error
	Apply     func(s *Session, p *Participant) (*Change, error)
}

// SessionChange is the outcome of a session-wide transition.
type SessionChange struct {
	Participants []*Participant
	Chat         []*ChatMessage
}

// SessionTransition mutates the session header and any of its participants.
// Apply receives a copy of the session with its participants loaded.
type SessionTransition struct {
	Name      string
	Authorize func(s *Session) error
	Apply     func(s *Session) (*SessionChange, error)
}

type HandAction string

const (
	HandRaise HandAction = "raise"
	HandLower HandAction = "lower"
)

func ParseHandAction(action string) (HandAction, error) {
	switch HandAction(action) {
	case HandRaise, HandLower:
		return HandAction(action), nil
	}
	return "", ErrInvalidHandAction
}

func requireActive(s *Session) error {
	return s.EnsureActive()
}

func requireTeacher(actorID string) func(*Session) error {
	return func(s *Session) error {
		if err := s.EnsureActive(); err != nil {
			return err
		}
		if !s.IsTeacher(actorID) {
			return ErrNotTeacher
		}
		return nil
	}
}

func note(s *Session, actorID, actorName string, typ MessageType, text, targetID, action string, now time.Time) *ChatMessage {
	var meta *ChatMetadata
	if targetID != "" || action != "" {
		meta = &ChatMetadata{TargetID: targetID, Action: action}
	}
	return NewSystemMessage(s.ID, actorID, actorName, typ, text, meta, now)
}

func teacherNote(s *Session, teacherID string, typ MessageType, text, targetID, action string, now time.Time) *ChatMessage {
	name := s.TeacherName
	if name == "" {
		name = "Teacher"
	}
	return note(s, teacherID, name, typ, text, targetID, action, now)
}

// Join adds the user to the session or refreshes an existing membership.
// Only the session's teacher joins as host; anyone else asking for the host
// role is refused. The role of an existing participant never changes.
func Join(who Identity, role Role, now time.Time) Transition {
	return Transition{
		Name:      "join",
		Authorize: requireActive,
		Apply: func(s *Session, p *Participant) (*Change, error) {
			if p != nil {
				p.Rejoin(now)
				return &Change{
					Participant: p,
					Chat:        []*ChatMessage{note(s, p.UserID, p.UserName, MessageSystem, p.UserName+" rejoined the class", p.UserID, "rejoin", now)},
				}, nil
			}

			if role != "" && !role.Valid() {
				return nil, ErrInvalidRole
			}
			joinAs := RoleAudience
			if s.IsTeacher(who.UserID) {
				joinAs = RoleHost
			} else if role == RoleHost {
				return nil, ErrNotTeacher
			}

			var joined *Participant
			if joinAs == RoleHost {
				joined = NewHost(who.UserID, who.DisplayName(), now)
			} else {
				joined = NewAudience(who.UserID, who.DisplayName(), s.Settings.AutoMuteNewStudents, now)
			}
			return &Change{
				Participant: joined,
				Created:     true,
				Chat:        []*ChatMessage{note(s, joined.UserID, joined.UserName, MessageSystem, joined.UserName+" joined the class", joined.UserID, "join", now)},
			}, nil
		},
	}
}

// Leave closes the participant's attendance window. Leaving twice is a no-op.
func Leave(now time.Time) Transition {
	return Transition{
		Name:      "leave",
		Authorize: requireActive,
		Apply: func(s *Session, p *Participant) (*Change, error) {
			if p == nil {
				return nil, ErrParticipantNotFound
			}
			if !p.Leave(now) {
				return &Change{}, nil
			}
			return &Change{
				Participant: p,
				Chat:        []*ChatMessage{note(s, p.UserID, p.UserName, MessageSystem, p.UserName+" left the class", p.UserID, "leave", now)},
			}, nil
		},
	}
}

// PostChat appends a text message authored by the participant.
func PostChat(text string, now time.Time) Transition {
	return Transition{
		Name:      "chat",
		Authorize: requireActive,
		Apply: func(s *Session, p *Participant) (*Change, error) {
			if p == nil {
				return nil, ErrParticipantNotFound
			}
			msg, err := NewChatMessage(s.ID, p, text, now)
			if err != nil {
				return nil, err
			}
			return &Change{Chat: []*ChatMessage{msg}}, nil
		},
	}
}

// UpdateMedia records the informational camera and screen-share flags. Nil
// fields are left unchanged.
func UpdateMedia(videoOn, screenSharing *bool) Transition {
	return Transition{
		Name:      "media",
		Authorize: requireActive,
		Apply: func(s *Session, p *Participant) (*Change, error) {
			if p == nil {
				return nil, ErrParticipantNotFound
			}
			if videoOn != nil {
				p.VideoOn = *videoOn
			}
			if screenSharing != nil {
				p.IsScreenSharing = *screenSharing
			}
			return &Change{Participant: p}, nil
		},
	}
}

func openRequest(s *Session, p *Participant, c *Change, now time.Time) {
	p.PermissionRequested = true
	c.Opened = NewPermissionRequest(p.UserID, p.UserName, now)
	c.Chat = append(c.Chat, note(s, p.UserID, p.UserName, MessagePermissionRequest, p.UserName+" requested permission to speak", p.UserID, "request", now))
}

// RequestSpeaking opens a pending speaking request for an audience member.
func RequestSpeaking(now time.Time) Transition {
	return Transition{
		Name:      "request_speaking",
		Authorize: requireActive,
		Apply: func(s *Session, p *Participant) (*Change, error) {
			if p == nil {
				return nil, ErrParticipantNotFound
			}
			if p.IsHost() {
				return nil, ErrHostCannotRequest
			}
			if p.HasSpeakingPermission {
				return nil, ErrAlreadyPermitted
			}
			if p.PermissionRequested {
				return nil, ErrRequestPending
			}
			c := &Change{Participant: p}
			openRequest(s, p, c, now)
			return c, nil
		},
	}
}

// RaiseHand sets the hand flag. Raising a hand without permission also opens
// a speaking request unless one is already pending.
func RaiseHand(action HandAction, now time.Time) Transition {
	return Transition{
		Name:      "raise_hand",
		Authorize: requireActive,
		Apply: func(s *Session, p *Participant) (*Change, error) {
			if p == nil {
				return nil, ErrParticipantNotFound
			}
			c := &Change{Participant: p}
			switch action {
			case HandRaise:
				p.IsHandRaised = true
				c.Chat = append(c.Chat, note(s, p.UserID, p.UserName, MessageSystem, p.UserName+" raised their hand", p.UserID, "raise_hand", now))
				if !p.IsHost() && !p.HasSpeakingPermission && !p.PermissionRequested {
					openRequest(s, p, c, now)
				}
			case HandLower:
				p.IsHandRaised = false
				c.Chat = append(c.Chat, note(s, p.UserID, p.UserName, MessageSystem, p.UserName+" lowered their hand", p.UserID, "lower_hand", now))
			default:
				return nil, ErrInvalidHandAction
			}
			return c, nil
		},
	}
}

// GrantSpeaking gives the participant standing permission and unmutes them.
func GrantSpeaking(teacherID string, now time.Time) Transition {
	return Transition{
		Name:      "grant_speaking",
		Authorize: requireTeacher(teacherID),
		Apply: func(s *Session, p *Participant) (*Change, error) {
			if p == nil {
				return nil, ErrParticipantNotFound
			}
			p.HasSpeakingPermission = true
			p.IsMuted = false
			p.PermissionRequested = false
			return &Change{
				Participant: p,
				Resolved:    &Resolution{StudentID: p.UserID, Status: RequestApproved, HandledAt: now, HandledBy: teacherID},
				Chat:        []*ChatMessage{teacherNote(s, teacherID, MessagePermissionGranted, "Permission to speak granted to "+p.UserName, p.UserID, "grant", now)},
			}, nil
		},
	}
}

// RevokeSpeaking withdraws the participant's permission and mutes them.
func RevokeSpeaking(teacherID string, now time.Time) Transition {
	return Transition{
		Name:      "revoke_speaking",
		Authorize: requireTeacher(teacherID),
		Apply: func(s *Session, p *Participant) (*Change, error) {
			if p == nil {
				return nil, ErrParticipantNotFound
			}
			if p.IsHost() {
				return nil, ErrRevokeHost
			}
			p.HasSpeakingPermission = false
			p.IsMuted = true
			p.PermissionRequested = false
			return &Change{
				Participant: p,
				Resolved:    &Resolution{StudentID: p.UserID, Status: RequestRejected, HandledAt: now, HandledBy: teacherID},
				Chat:        []*ChatMessage{teacherNote(s, teacherID, MessagePermissionRevoked, "Permission to speak revoked from "+p.UserName, p.UserID, "revoke", now)},
			}, nil
		},
	}
}

// SelfMute is always allowed.
func SelfMute() Transition {
	return Transition{
		Name:      "self_mute",
		Authorize: requireActive,
		Apply: func(s *Session, p *Participant) (*Change, error) {
			if p == nil {
				return nil, ErrParticipantNotFound
			}
			p.IsMuted = true
			return &Change{Participant: p}, nil
		},
	}
}

// SelfUnmute requires standing permission and, for students, the session's
// allowSelfUnmute policy.
func SelfUnmute() Transition {
	return Transition{
		Name:      "self_unmute",
		Authorize: requireActive,
		Apply: func(s *Session, p *Participant) (*Change, error) {
			if p == nil {
				return nil, ErrParticipantNotFound
			}
			if !p.HasSpeakingPermission {
				return nil, ErrNoSpeakingPermission
			}
			if !p.IsHost() && !s.Settings.AllowSelfUnmute {
				return nil, ErrSelfUnmuteDisabled
			}
			p.IsMuted = false
			return &Change{Participant: p}, nil
		},
	}
}

// MuteParticipant sets the mute flag only. Speaking permission is untouched,
// so a muted student with permission may unmute again on their own.
func MuteParticipant(teacherID string, mute bool, now time.Time) Transition {
	return Transition{
		Name:      "mute_participant",
		Authorize: requireTeacher(teacherID),
		Apply: func(s *Session, p *Participant) (*Change, error) {
			if p == nil {
				return nil, ErrParticipantNotFound
			}
			if !mute && !p.HasSpeakingPermission {
				return nil, ErrUnmuteWithoutPermission
			}
			p.IsMuted = mute
			text, action := p.UserName+" was muted by the teacher", "mute"
			if !mute {
				text, action = p.UserName+" was unmuted by the teacher", "unmute"
			}
			return &Change{
				Participant: p,
				Chat:        []*ChatMessage{teacherNote(s, teacherID, MessageSystem, text, p.UserID, action, now)},
			}, nil
		},
	}
}

// MuteAll mutes every audience participant.
func MuteAll(teacherID string, now time.Time) SessionTransition {
	return SessionTransition{
		Name:      "mute_all",
		Authorize: requireTeacher(teacherID),
		Apply: func(s *Session) (*SessionChange, error) {
			c := &SessionChange{}
			for _, p := range s.Participants {
				if p.IsHost() {
					continue
				}
				p.IsMuted = true
				c.Participants = append(c.Participants, p)
			}
			c.Chat = append(c.Chat, teacherNote(s, teacherID, MessageSystem, "All students were muted", "", "mute_all", now))
			return c, nil
		},
	}
}

// UnmuteAll unmutes audience participants that already hold permission. It
// never grants permission.
func UnmuteAll(teacherID string, now time.Time) SessionTransition {
	return SessionTransition{
		Name:      "unmute_all",
		Authorize: requireTeacher(teacherID),
		Apply: func(s *Session) (*SessionChange, error) {
			c := &SessionChange{}
			for _, p := range s.Participants {
				if p.IsHost() || !p.HasSpeakingPermission {
					continue
				}
				p.IsMuted = false
				c.Participants = append(c.Participants, p)
			}
			c.Chat = append(c.Chat, teacherNote(s, teacherID, MessageSystem, "Students with speaking permission were unmuted", "", "unmute_all", now))
			return c, nil
		},
	}
}

// UpdateSettings replaces the session policy.
func UpdateSettings(teacherID string, settings Settings, now time.Time) SessionTransition {
	return SessionTransition{
		Name:      "update_settings",
		Authorize: requireTeacher(teacherID),
		Apply: func(s *Session) (*SessionChange, error) {
			s.Settings = settings
			return &SessionChange{
				Chat: []*ChatMessage{teacherNote(s, teacherID, MessageSystem, "Session settings were updated", "", "settings", now)},
			}, nil
		},
	}
}

// End deactivates the session and closes the attendance window of everyone
// still present. Ownership is checked before the session state, so only the
// teacher learns that the session has already ended.
func End(callerID string, now time.Time) SessionTransition {
	return SessionTransition{
		Name:      "end",
		Authorize: func(s *Session) error {
			if !s.IsTeacher(callerID) {
				return ErrNotTeacher
			}
			return s.EnsureActive()
		},
		Apply: func(s *Session) (*SessionChange, error) {
			s.IsActive = false
			s.EndTime = timePtr(now)
			c := &SessionChange{}
			for _, p := range s.Participants {
				if p.Leave(now) {
					c.Participants = append(c.Participants, p)
				}
			}
			c.Chat = append(c.Chat, teacherNote(s, callerID, MessageSystem, "The class has ended", "", "end", now))
			return c, nil
		},
	}
}
