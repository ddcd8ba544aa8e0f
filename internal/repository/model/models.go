package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Session struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ClassID     string          `gorm:"size:64;not null;index;uniqueIndex:idx_sessions_active_class,where:is_active"`
	TeacherID   string          `gorm:"size:64;not null;index"`
	TeacherName string          `gorm:"size:255"`
	Title       string          `gorm:"size:255"`
	ChannelID   string          `gorm:"size:64;uniqueIndex;not null"`
	IsActive    bool            `gorm:"not null;index"`
	StartTime   time.Time       `gorm:"not null"`
	EndTime     *time.Time      `gorm:"index"`
	Settings    SessionSettings `gorm:"embedded;embeddedPrefix:settings_"`

	Participants       []Participant       `gorm:"constraint:OnDelete:CASCADE"`
	ChatMessages       []ChatMessage       `gorm:"constraint:OnDelete:CASCADE"`
	PermissionRequests []PermissionRequest `gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type SessionSettings struct {
	AllowSelfUnmute     bool `gorm:"not null"`
	AutoMuteNewStudents bool `gorm:"not null"`
}

type Participant struct {
	Seq       uint64    `gorm:"primaryKey"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_participants_session_user"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_participants_session_user"`
	UserName  string    `gorm:"size:255;not null"`
	Role      string    `gorm:"size:16;not null"`

	IsMuted               bool `gorm:"not null"`
	HasSpeakingPermission bool `gorm:"not null"`
	PermissionRequested   bool `gorm:"not null"`
	IsHandRaised          bool `gorm:"not null"`
	VideoOn               bool `gorm:"not null"`
	IsScreenSharing       bool `gorm:"not null"`

	JoinedAt         time.Time `gorm:"not null"`
	LastJoinTime     *time.Time
	LeftAt           *time.Time
	TotalTimeSpentMs int64 `gorm:"not null"`

	UpdatedAt time.Time
}

type PermissionRequest struct {
	Seq         uint64    `gorm:"primaryKey"`
	ID          uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	SessionID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_requests_pending_student,where:status = 'pending'"`
	StudentID   string    `gorm:"size:64;not null;uniqueIndex:idx_requests_pending_student,where:status = 'pending'"`
	StudentName string    `gorm:"size:255"`
	Status      string    `gorm:"size:16;not null;index"`
	RequestedAt time.Time `gorm:"not null"`
	HandledAt   *time.Time
	HandledBy   string `gorm:"size:64"`
}

type ChatMessage struct {
	Seq         uint64    `gorm:"primaryKey"`
	ID          uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	SessionID   uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID      string    `gorm:"size:64;not null"`
	UserName    string    `gorm:"size:255"`
	Message     string    `gorm:"type:text;not null"`
	MessageType string    `gorm:"size:32;not null"`
	Metadata    datatypes.JSONMap
	Timestamp   time.Time `gorm:"not null"`
}
