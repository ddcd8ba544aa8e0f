package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/liveclass/internal/api/http/converter"
	"github.com/immxrtalbeast/liveclass/internal/domain"
	"github.com/immxrtalbeast/liveclass/internal/service"
)

type PermissionController struct {
	permissions service.PermissionInteractor
	log         *slog.Logger
}

func NewPermissionController(permissions service.PermissionInteractor, log *slog.Logger) *PermissionController {
	return &PermissionController{
		permissions: permissions,
		log:         log,
	}
}

func (c *PermissionController) RequestSpeaking(ctx *gin.Context) {
	sessionID, ok := sessionIDParam(ctx)
	if !ok {
		return
	}

	p, err := c.permissions.RequestSpeaking(ctx.Request.Context(), sessionID, identityFrom(ctx).UserID)
	c.respondParticipant(ctx, p, err)
}

func (c *PermissionController) RaiseHand(ctx *gin.Context) {
	sessionID, ok := sessionIDParam(ctx)
	if !ok {
		return
	}

	type RaiseHandRequest struct {
		Action string `json:"action" binding:"required"`
	}
	var req RaiseHandRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	action, err := domain.ParseHandAction(req.Action)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}

	p, err := c.permissions.RaiseHand(ctx.Request.Context(), sessionID, identityFrom(ctx).UserID, action)
	c.respondParticipant(ctx, p, err)
}

func (c *PermissionController) GrantSpeaking(ctx *gin.Context) {
	sessionID, ok := sessionIDParam(ctx)
	if !ok {
		return
	}

	p, err := c.permissions.GrantSpeaking(ctx.Request.Context(), sessionID, identityFrom(ctx).UserID, ctx.Param("userID"))
	c.respondParticipant(ctx, p, err)
}

func (c *PermissionController) RevokeSpeaking(ctx *gin.Context) {
	sessionID, ok := sessionIDParam(ctx)
	if !ok {
		return
	}

	p, err := c.permissions.RevokeSpeaking(ctx.Request.Context(), sessionID, identityFrom(ctx).UserID, ctx.Param("userID"))
	c.respondParticipant(ctx, p, err)
}

func (c *PermissionController) MuteParticipant(ctx *gin.Context) {
	sessionID, ok := sessionIDParam(ctx)
	if !ok {
		return
	}

	type MuteRequest struct {
		Mute *bool `json:"mute" binding:"required"`
	}
	var req MuteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	p, err := c.permissions.MuteParticipant(ctx.Request.Context(), sessionID, identityFrom(ctx).UserID, ctx.Param("userID"), *req.Mute)
	c.respondParticipant(ctx, p, err)
}

func (c *PermissionController) SelfMute(ctx *gin.Context) {
	sessionID, ok := sessionIDParam(ctx)
	if !ok {
		return
	}

	p, err := c.permissions.SelfMute(ctx.Request.Context(), sessionID, identityFrom(ctx).UserID)
	c.respondParticipant(ctx, p, err)
}

func (c *PermissionController) SelfUnmute(ctx *gin.Context) {
	sessionID, ok := sessionIDParam(ctx)
	if !ok {
		return
	}

	p, err := c.permissions.SelfUnmute(ctx.Request.Context(), sessionID, identityFrom(ctx).UserID)
	c.respondParticipant(ctx, p, err)
}

func (c *PermissionController) MuteAll(ctx *gin.Context) {
	sessionID, ok := sessionIDParam(ctx)
	if !ok {
		return
	}

	ps, err := c.permissions.MuteAll(ctx.Request.Context(), sessionID, identityFrom(ctx).UserID)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"participants": converter.ParticipantsToApi(ps)})
}

func (c *PermissionController) UnmuteAll(ctx *gin.Context) {
	sessionID, ok := sessionIDParam(ctx)
	if !ok {
		return
	}

	ps, err := c.permissions.UnmuteAll(ctx.Request.Context(), sessionID, identityFrom(ctx).UserID)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"participants": converter.ParticipantsToApi(ps)})
}

func (c *PermissionController) respondParticipant(ctx *gin.Context, p *domain.Participant, err error) {
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"participant": converter.ParticipantToApi(p)})
}
