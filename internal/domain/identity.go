package domain

// Identity is the already-authenticated caller handed over by the gateway.
type Identity struct {
	UserID string
	Name   string
	Role   string // "teacher", "student" or "admin"
}

// ParticipantRole maps the platform role onto the session role. It only
// decides who may start a session; membership roles come from the session's
// teacher.
func (i Identity) ParticipantRole() Role {
	switch i.Role {
	case "teacher", "admin":
		return RoleHost
	default:
		return RoleAudience
	}
}

func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.UserID
}

type MediaTier string

const (
	TierPublisher  MediaTier = "publisher"
	TierSubscriber MediaTier = "subscriber"
)

// TierFor is the media-transport tier a participant is entitled to.
func TierFor(p *Participant) MediaTier {
	if p.IsHost() || p.HasSpeakingPermission {
		return TierPublisher
	}
	return TierSubscriber
}
