package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/liveclass/internal/domain"
	"github.com/immxrtalbeast/liveclass/internal/repository/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresSessionRepository stores sessions through gorm. Participant-scoped
// transitions share-lock the session row and exclusively lock only the target
// participant row, so concurrent actions on different participants never wait
// on each other. Session-wide transitions take the session row exclusively.
type PostgresSessionRepository struct {
	db *gorm.DB
}

func NewPostgresSessionRepository(db *gorm.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

var _ SessionRepository = (*PostgresSessionRepository)(nil)

// Models lists the tables owned by the session store, in migration order.
func Models() []any {
	return []any{&model.Session{}, &model.Participant{}, &model.PermissionRequest{}, &model.ChatMessage{}}
}

func orderBySeq(db *gorm.DB) *gorm.DB {
	return db.Order("seq")
}

func (r *PostgresSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if session == nil {
		return errors.New("session is nil")
	}

	sessionModel := toModelSession(session)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := tx.Model(&model.Session{}).
			Where("class_id = ? AND is_active = ?", session.ClassID, true).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return domain.ErrActiveSessionExists
		}
		return tx.Create(sessionModel).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent start for the same class trips the partial unique index
		if _, activeErr := r.GetActiveByClass(ctx, session.ClassID); activeErr == nil {
			return domain.ErrActiveSessionExists
		}
		return ErrChannelTaken
	}
	return err
}

func (r *PostgresSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var session model.Session
	err := r.db.WithContext(ctx).
		Preload("Participants", orderBySeq).
		Preload("ChatMessages", orderBySeq).
		Preload("PermissionRequests", orderBySeq).
		First(&session, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	return toDomainSession(&session), nil
}

func (r *PostgresSessionRepository) GetActiveByClass(ctx context.Context, classID string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var session model.Session
	err := r.db.WithContext(ctx).
		Preload("Participants", orderBySeq).
		Preload("ChatMessages", orderBySeq).
		Preload("PermissionRequests", orderBySeq).
		Where("class_id = ? AND is_active = ?", classID, true).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	return toDomainSession(&session), nil
}

func (r *PostgresSessionRepository) ListActive(ctx context.Context) ([]*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sessions []model.Session
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("start_time").Find(&sessions).Error; err != nil {
		return nil, err
	}

	result := make([]*domain.Session, 0, len(sessions))
	for i := range sessions {
		result = append(result, toDomainSession(&sessions[i]))
	}
	return result, nil
}

func (r *PostgresSessionRepository) Apply(ctx context.Context, sessionID uuid.UUID, userID string, t domain.Transition) (*domain.Change, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	change, err := r.apply(ctx, sessionID, userID, t)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost an insert race (double join, double request); rerun against
		// the row the other writer created
		change, err = r.apply(ctx, sessionID, userID, t)
	}
	return change, err
}

func (r *PostgresSessionRepository) apply(ctx context.Context, sessionID uuid.UUID, userID string, t domain.Transition) (*domain.Change, error) {
	var change *domain.Change

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := lockSession(tx, sessionID, "SHARE")
		if err != nil {
			return err
		}
		if t.Authorize != nil {
			if err := t.Authorize(session); err != nil {
				return err
			}
		}

		var current *domain.Participant
		var row model.Participant
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("session_id = ? AND user_id = ?", sessionID, userID).
			First(&row).Error
		switch {
		case err == nil:
			current = toDomainParticipant(&row)
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}

		c, err := t.Apply(session, current)
		if err != nil {
			return err
		}

		if c.Participant != nil {
			if current == nil {
				c.Created = true
				if err := tx.Create(toModelParticipant(sessionID, c.Participant)).Error; err != nil {
					return err
				}
			} else if err := updateParticipant(tx, sessionID, c.Participant); err != nil {
				return err
			}
		}
		if c.Opened != nil {
			if err := tx.Create(toModelRequest(sessionID, c.Opened)).Error; err != nil {
				return err
			}
		}
		if c.Resolved != nil {
			if err := resolveRequest(tx, sessionID, c.Resolved); err != nil {
				return err
			}
		}
		if err := appendChat(tx, c.Chat); err != nil {
			return err
		}

		change = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}

func (r *PostgresSessionRepository) ApplySession(ctx context.Context, sessionID uuid.UUID, t domain.SessionTransition) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result *domain.Session

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := lockSession(tx, sessionID, "UPDATE")
		if err != nil {
			return err
		}
		if t.Authorize != nil {
			if err := t.Authorize(session.Header()); err != nil {
				return err
			}
		}

		var rows []model.Participant
		if err := tx.Where("session_id = ?", sessionID).Order("seq").Find(&rows).Error; err != nil {
			return err
		}
		session.Participants = make([]*domain.Participant, 0, len(rows))
		for i := range rows {
			session.Participants = append(session.Participants, toDomainParticipant(&rows[i]))
		}

		c, err := t.Apply(session)
		if err != nil {
			return err
		}

		res := tx.Model(&model.Session{}).Where("id = ?", sessionID).Updates(map[string]any{
			"is_active":                       session.IsActive,
			"end_time":                        nullableTime(session.EndTime),
			"settings_allow_self_unmute":      session.Settings.AllowSelfUnmute,
			"settings_auto_mute_new_students": session.Settings.AutoMuteNewStudents,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrSessionNotFound
		}

		for _, p := range c.Participants {
			if err := updateParticipant(tx, sessionID, p); err != nil {
				return err
			}
		}
		if err := appendChat(tx, c.Chat); err != nil {
			return err
		}

		result = session
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func lockSession(tx *gorm.DB, id uuid.UUID, strength string) (*domain.Session, error) {
	var session model.Session
	err := tx.Clauses(clause.Locking{Strength: strength}).First(&session, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return toDomainSession(&session), nil
}

func updateParticipant(tx *gorm.DB, sessionID uuid.UUID, p *domain.Participant) error {
	res := tx.Model(&model.Participant{}).
		Where("session_id = ? AND user_id = ?", sessionID, p.UserID).
		Updates(map[string]any{
			"user_name":               p.UserName,
			"is_muted":                p.IsMuted,
			"has_speaking_permission": p.HasSpeakingPermission,
			"permission_requested":    p.PermissionRequested,
			"is_hand_raised":          p.IsHandRaised,
			"video_on":                p.VideoOn,
			"is_screen_sharing":       p.IsScreenSharing,
			"last_join_time":          nullableTime(p.LastJoinTime),
			"left_at":                 nullableTime(p.LeftAt),
			"total_time_spent_ms":     p.TotalTimeSpent.Milliseconds(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrParticipantNotFound
	}
	return nil
}

func resolveRequest(tx *gorm.DB, sessionID uuid.UUID, res *domain.Resolution) error {
	return tx.Model(&model.PermissionRequest{}).
		Where("session_id = ? AND student_id = ? AND status = ?", sessionID, res.StudentID, string(domain.RequestPending)).
		Updates(map[string]any{
			"status":     string(res.Status),
			"handled_at": res.HandledAt.UTC(),
			"handled_by": res.HandledBy,
		}).Error
}

func appendChat(tx *gorm.DB, messages []*domain.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}
	rows := make([]model.ChatMessage, 0, len(messages))
	for _, m := range messages {
		rows = append(rows, *toModelChat(m))
	}
	return tx.Create(&rows).Error
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return gorm.Expr("NULL")
	}
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func toModelSession(s *domain.Session) *model.Session {
	participants := make([]model.Participant, 0, len(s.Participants))
	for _, p := range s.Participants {
		participants = append(participants, *toModelParticipant(s.ID, p))
	}

	return &model.Session{
		ID:          s.ID,
		ClassID:     s.ClassID,
		TeacherID:   s.TeacherID,
		TeacherName: s.TeacherName,
		Title:       s.Title,
		ChannelID:   s.ChannelID,
		IsActive:    s.IsActive,
		StartTime:   s.StartTime.UTC(),
		EndTime:     utcPtr(s.EndTime),
		Settings: model.SessionSettings{
			AllowSelfUnmute:     s.Settings.AllowSelfUnmute,
			AutoMuteNewStudents: s.Settings.AutoMuteNewStudents,
		},
		Participants: participants,
	}
}

func toDomainSession(s *model.Session) *domain.Session {
	session := &domain.Session{
		ID:          s.ID,
		ClassID:     s.ClassID,
		TeacherID:   s.TeacherID,
		TeacherName: s.TeacherName,
		Title:       s.Title,
		ChannelID:   s.ChannelID,
		IsActive:    s.IsActive,
		StartTime:   s.StartTime.UTC(),
		EndTime:     utcPtr(s.EndTime),
		Settings: domain.Settings{
			AllowSelfUnmute:     s.Settings.AllowSelfUnmute,
			AutoMuteNewStudents: s.Settings.AutoMuteNewStudents,
		},
		Participants: make([]*domain.Participant, 0, len(s.Participants)),
		Chat:         make([]*domain.ChatMessage, 0, len(s.ChatMessages)),
		Requests:     make([]*domain.PermissionRequest, 0, len(s.PermissionRequests)),
	}
	for i := range s.Participants {
		session.Participants = append(session.Participants, toDomainParticipant(&s.Participants[i]))
	}
	for i := range s.ChatMessages {
		session.Chat = append(session.Chat, toDomainChat(&s.ChatMessages[i]))
	}
	for i := range s.PermissionRequests {
		session.Requests = append(session.Requests, toDomainRequest(&s.PermissionRequests[i]))
	}
	return session
}

func toModelParticipant(sessionID uuid.UUID, p *domain.Participant) *model.Participant {
	return &model.Participant{
		SessionID:             sessionID,
		UserID:                p.UserID,
		UserName:              p.UserName,
		Role:                  string(p.Role),
		IsMuted:               p.IsMuted,
		HasSpeakingPermission: p.HasSpeakingPermission,
		PermissionRequested:   p.PermissionRequested,
		IsHandRaised:          p.IsHandRaised,
		VideoOn:               p.VideoOn,
		IsScreenSharing:       p.IsScreenSharing,
		JoinedAt:              p.JoinedAt.UTC(),
		LastJoinTime:          utcPtr(p.LastJoinTime),
		LeftAt:                utcPtr(p.LeftAt),
		TotalTimeSpentMs:      p.TotalTimeSpent.Milliseconds(),
	}
}

func toDomainParticipant(p *model.Participant) *domain.Participant {
	return &domain.Participant{
		UserID:                p.UserID,
		UserName:              p.UserName,
		Role:                  domain.Role(p.Role),
		IsMuted:               p.IsMuted,
		HasSpeakingPermission: p.HasSpeakingPermission,
		PermissionRequested:   p.PermissionRequested,
		IsHandRaised:          p.IsHandRaised,
		VideoOn:               p.VideoOn,
		IsScreenSharing:       p.IsScreenSharing,
		JoinedAt:              p.JoinedAt.UTC(),
		LastJoinTime:          utcPtr(p.LastJoinTime),
		LeftAt:                utcPtr(p.LeftAt),
		TotalTimeSpent:        time.Duration(p.TotalTimeSpentMs) * time.Millisecond,
	}
}

func toModelRequest(sessionID uuid.UUID, r *domain.PermissionRequest) *model.PermissionRequest {
	return &model.PermissionRequest{
		ID:          r.ID,
		SessionID:   sessionID,
		StudentID:   r.StudentID,
		StudentName: r.StudentName,
		Status:      string(r.Status),
		RequestedAt: r.RequestedAt.UTC(),
		HandledAt:   utcPtr(r.HandledAt),
		HandledBy:   r.HandledBy,
	}
}

func toDomainRequest(r *model.PermissionRequest) *domain.PermissionRequest {
	return &domain.PermissionRequest{
		ID:          r.ID,
		StudentID:   r.StudentID,
		StudentName: r.StudentName,
		RequestedAt: r.RequestedAt.UTC(),
		Status:      domain.RequestStatus(r.Status),
		HandledAt:   utcPtr(r.HandledAt),
		HandledBy:   r.HandledBy,
	}
}

func toModelChat(m *domain.ChatMessage) *model.ChatMessage {
	var meta datatypes.JSONMap
	if m.Metadata != nil {
		meta = datatypes.JSONMap{
			"target_id": m.Metadata.TargetID,
			"action":    m.Metadata.Action,
		}
	}
	return &model.ChatMessage{
		ID:          m.ID,
		SessionID:   m.SessionID,
		UserID:      m.UserID,
		UserName:    m.UserName,
		Message:     m.Message,
		MessageType: string(m.Type),
		Metadata:    meta,
		Timestamp:   m.Timestamp.UTC(),
	}
}

func toDomainChat(m *model.ChatMessage) *domain.ChatMessage {
	msg := &domain.ChatMessage{
		ID:        m.ID,
		SessionID: m.SessionID,
		UserID:    m.UserID,
		UserName:  m.UserName,
		Message:   m.Message,
		Type:      domain.MessageType(m.MessageType),
		Timestamp: m.Timestamp.UTC(),
	}
	if len(m.Metadata) > 0 {
		target, _ := m.Metadata["target_id"].(string)
		action, _ := m.Metadata["action"].(string)
		msg.Metadata = &domain.ChatMetadata{TargetID: target, Action: action}
	}
	return msg
}
