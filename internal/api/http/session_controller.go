package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/liveclass/internal/api/http/converter"
	"github.com/immxrtalbeast/liveclass/internal/domain"
	"github.com/immxrtalbeast/liveclass/internal/service"
)

type SessionController struct {
	sessions service.SessionInteractor
	log      *slog.Logger
}

func NewSessionController(sessions service.SessionInteractor, log *slog.Logger) *SessionController {
	return &SessionController{
		sessions: sessions,
		log:      log,
	}
}

type settingsRequest struct {
	AllowSelfUnmute     *bool `json:"allow_self_unmute" binding:"required"`
	AutoMuteNewStudents *bool `json:"auto_mute_new_students" binding:"required"`
}

func (r *settingsRequest) toDomain() domain.Settings {
	return domain.Settings{
		AllowSelfUnmute:     *r.AllowSelfUnmute,
		AutoMuteNewStudents: *r.AutoMuteNewStudents,
	}
}

func (c *SessionController) StartSession(ctx *gin.Context) {
	type StartSessionRequest struct {
		ClassID  string           `json:"class_id" binding:"required"`
		Title    string           `json:"title"`
		Settings *settingsRequest `json:"settings"`
	}
	var req StartSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	who := identityFrom(ctx)
	if who.ParticipantRole() != domain.RoleHost {
		writeError(ctx, c.log, domain.ErrNotTeacher)
		return
	}

	var settings *domain.Settings
	if req.Settings != nil {
		if req.Settings.AllowSelfUnmute == nil || req.Settings.AutoMuteNewStudents == nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": "settings require both flags"})
			return
		}
		st := req.Settings.toDomain()
		settings = &st
	}

	session, err := c.sessions.StartSession(ctx.Request.Context(), req.ClassID, who, req.Title, settings)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"session": converter.SessionToApi(session)})
}

func (c *SessionController) ListActive(ctx *gin.Context) {
	sessions, err := c.sessions.ListActiveSessions(ctx.Request.Context())
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}

	res := make([]*converter.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		res = append(res, converter.SessionToApi(s))
	}
	ctx.JSON(http.StatusOK, gin.H{"sessions": res})
}

func (c *SessionController) GetSession(ctx *gin.Context) {
	sessionID, ok := sessionIDParam(ctx)
	if !ok {
		return
	}

	session, err := c.sessions.GetSessionView(ctx.Request.Context(), sessionID)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"session": converter.SessionToApi(session)})
}

func (c *SessionController) GetActiveForClass(ctx *gin.Context) {
	session, err := c.sessions.GetActiveSession(ctx.Request.Context(), ctx.Param("classID"))
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"session": converter.SessionToApi(session)})
}

func (c *SessionController) JoinSession(ctx *gin.Context) {
	sessionID, ok := sessionIDParam(ctx)
	if !ok {
		return
	}

	type JoinSessionRequest struct {
		Role string `json:"role"`
	}
	var req JoinSessionRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}

	who := identityFrom(ctx)
	participant, cred, err := c.sessions.JoinSession(ctx.Request.Context(), sessionID, who, domain.Role(req.Role))
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"participant": converter.ParticipantToApi(participant),
		"credential":  converter.CredentialToApi(cred),
	})
}

func (c *SessionController) LeaveSession(ctx *gin.Context) {
	sessionID, ok := sessionIDParam(ctx)
	if !ok {
		return
	}

	if err := c.sessions.LeaveSession(ctx.Request.Context(), sessionID, identityFrom(ctx).UserID); err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *SessionController) EndSession(ctx *gin.Context) {
	sessionID, ok := sessionIDParam(ctx)
	if !ok {
		return
	}

	session, err := c.sessions.EndSession(ctx.Request.Context(), sessionID, identityFrom(ctx).UserID)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"session_id": session.ID, "is_active": session.IsActive, "end_time": session.EndTime})
}

func (c *SessionController) AppendChat(ctx *gin.Context) {
	sessionID, ok := sessionIDParam(ctx)
	if !ok {
		return
	}

	type ChatRequest struct {
		Message string `json:"message" binding:"required"`
	}
	var req ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	msg, err := c.sessions.AppendChat(ctx.Request.Context(), sessionID, identityFrom(ctx).UserID, req.Message)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"message": converter.ChatMessageToApi(msg)})
}

func (c *SessionController) UpdateSettings(ctx *gin.Context) {
	sessionID, ok := sessionIDParam(ctx)
	if !ok {
		return
	}

	var req settingsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	session, err := c.sessions.UpdateSettings(ctx.Request.Context(), sessionID, identityFrom(ctx).UserID, req.toDomain())
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"settings": converter.SettingsToApi(session.Settings)})
}

func (c *SessionController) UpdateMediaState(ctx *gin.Context) {
	sessionID, ok := sessionIDParam(ctx)
	if !ok {
		return
	}

	type MediaStateRequest struct {
		VideoOn       *bool `json:"video_on"`
		ScreenSharing *bool `json:"screen_sharing"`
	}
	var req MediaStateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	p, err := c.sessions.UpdateMediaState(ctx.Request.Context(), sessionID, identityFrom(ctx).UserID, req.VideoOn, req.ScreenSharing)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"participant": converter.ParticipantToApi(p)})
}

func (c *SessionController) IssueCredential(ctx *gin.Context) {
	sessionID, ok := sessionIDParam(ctx)
	if !ok {
		return
	}

	cred, err := c.sessions.IssueCredential(ctx.Request.Context(), sessionID, identityFrom(ctx).UserID)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"credential": converter.CredentialToApi(cred)})
}
