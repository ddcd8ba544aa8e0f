package domain

import "time"

// JoinCredential lets a participant connect to the media transport channel
// of a session.
type JoinCredential struct {
	Token     string
	ChannelID string
	UserID    string
	Tier      MediaTier
	ExpiresAt time.Time
}
