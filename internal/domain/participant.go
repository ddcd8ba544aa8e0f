package domain

import "time"

// Participant is one user's membership in a session.
type Participant struct {
	UserID   string
	UserName string
	Role     Role

	IsMuted               bool
	HasSpeakingPermission bool
	PermissionRequested   bool
	IsHandRaised          bool
	VideoOn               bool
	IsScreenSharing       bool

	JoinedAt       time.Time
	LastJoinTime   *time.Time
	LeftAt         *time.Time
	TotalTimeSpent time.Duration
}

func NewHost(userID, userName string, now time.Time) *Participant {
	return &Participant{
		UserID:                userID,
		UserName:              userName,
		Role:                  RoleHost,
		HasSpeakingPermission: true,
		JoinedAt:              now,
		LastJoinTime:          timePtr(now),
	}
}

func NewAudience(userID, userName string, muted bool, now time.Time) *Participant {
	return &Participant{
		UserID:       userID,
		UserName:     userName,
		Role:         RoleAudience,
		IsMuted:      muted,
		JoinedAt:     now,
		LastJoinTime: timePtr(now),
	}
}

func (p *Participant) IsHost() bool {
	return p.Role == RoleHost
}

// CanPublish reports whether the media transport should carry this
// participant's audio.
func (p *Participant) CanPublish() bool {
	return p.HasSpeakingPermission && !p.IsMuted
}

// IsAttending reports whether the participant joined and has not left since.
func (p *Participant) IsAttending() bool {
	return p.LastJoinTime != nil
}

// Rejoin refreshes the attendance window. Time from a window that was never
// closed by a leave is credited before the new window starts.
func (p *Participant) Rejoin(now time.Time) {
	if p.LastJoinTime != nil && now.After(*p.LastJoinTime) {
		p.TotalTimeSpent += now.Sub(*p.LastJoinTime)
	}
	p.LastJoinTime = timePtr(now)
	p.LeftAt = nil
}

// Leave closes the attendance window. It reports false when the participant
// had already left.
func (p *Participant) Leave(now time.Time) bool {
	if p.LastJoinTime == nil {
		return false
	}
	if now.After(*p.LastJoinTime) {
		p.TotalTimeSpent += now.Sub(*p.LastJoinTime)
	}
	p.LastJoinTime = nil
	p.LeftAt = timePtr(now)
	return true
}

func (p *Participant) Clone() *Participant {
	c := *p
	if p.LastJoinTime != nil {
		c.LastJoinTime = timePtr(*p.LastJoinTime)
	}
	if p.LeftAt != nil {
		c.LeftAt = timePtr(*p.LeftAt)
	}
	return &c
}

func timePtr(t time.Time) *time.Time {
	return &t
}
