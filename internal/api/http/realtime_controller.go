package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/liveclass/internal/domain"
	"github.com/immxrtalbeast/liveclass/internal/realtime"
	"github.com/immxrtalbeast/liveclass/internal/service"
	"github.com/immxrtalbeast/liveclass/lib/logger/sl"
)

type RealtimeController struct {
	sessions     service.SessionInteractor
	permissions  service.PermissionInteractor
	hub          *realtime.Hub
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	log          *slog.Logger
}

func NewRealtimeController(
	sessions service.SessionInteractor,
	permissions service.PermissionInteractor,
	hub *realtime.Hub,
	writeTimeout time.Duration,
	log *slog.Logger,
) *RealtimeController {
	return &RealtimeController{
		sessions:    sessions,
		permissions: permissions,
		hub:         hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		writeTimeout: writeTimeout,
		log:          log,
	}
}

// Connect attaches a participant's socket to the session's broadcast group
// and executes the commands it sends.
func (c *RealtimeController) Connect(ctx *gin.Context) {
	const op = "api.realtime.connect"

	sessionID, ok := sessionIDParam(ctx)
	if !ok {
		return
	}
	who := identityFrom(ctx)

	session, err := c.sessions.GetSessionView(ctx.Request.Context(), sessionID)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	if err := session.EnsureActive(); err != nil {
		writeError(ctx, c.log, err)
		return
	}
	p := session.Participant(who.UserID)
	if p == nil {
		writeError(ctx, c.log, domain.ErrParticipantNotFound)
		return
	}

	socket, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.log.Warn("failed to upgrade connection", slog.String("op", op), sl.Err(err))
		return
	}

	log := c.log.With(
		slog.String("op", op),
		slog.String("session_id", sessionID.String()),
		slog.String("user_id", who.UserID),
	)

	conn := c.hub.Register(sessionID, p.UserID, p.UserName, socket)
	go conn.WritePump(c.writeTimeout)
	log.Info("realtime connection opened", slog.String("conn_id", conn.ID))

	for {
		var cmd domain.Command
		if err := socket.ReadJSON(&cmd); err != nil {
			log.Info("realtime connection closed", slog.String("conn_id", conn.ID))
			c.hub.Unregister(conn)
			_ = socket.Close()
			return
		}

		if err := c.execute(context.Background(), sessionID, who.UserID, cmd); err != nil {
			c.hub.Reply(conn, errorEvent(sessionID, who.UserID, cmd, err))
		}
	}
}

func (c *RealtimeController) execute(ctx context.Context, sessionID uuid.UUID, userID string, cmd domain.Command) error {
	var err error
	switch cmd.Type {
	case domain.CommandMuteStudent:
		_, err = c.permissions.MuteParticipant(ctx, sessionID, userID, cmd.TargetID, true)
	case domain.CommandUnmuteStudent:
		_, err = c.permissions.MuteParticipant(ctx, sessionID, userID, cmd.TargetID, false)
	case domain.CommandMuteAll:
		_, err = c.permissions.MuteAll(ctx, sessionID, userID)
	case domain.CommandUnmuteAll:
		_, err = c.permissions.UnmuteAll(ctx, sessionID, userID)
	case domain.CommandSelfMute:
		_, err = c.permissions.SelfMute(ctx, sessionID, userID)
	case domain.CommandSelfUnmute:
		_, err = c.permissions.SelfUnmute(ctx, sessionID, userID)
	case domain.CommandRequestSpeaking:
		_, err = c.permissions.RequestSpeaking(ctx, sessionID, userID)
	case domain.CommandRaiseHand:
		_, err = c.permissions.RaiseHand(ctx, sessionID, userID, domain.HandRaise)
	case domain.CommandLowerHand:
		_, err = c.permissions.RaiseHand(ctx, sessionID, userID, domain.HandLower)
	case domain.CommandChat:
		_, err = c.sessions.AppendChat(ctx, sessionID, userID, cmd.Message)
	case domain.CommandLeave:
		err = c.sessions.LeaveSession(ctx, sessionID, userID)
	default:
		err = domain.ErrUnknownCommand
	}
	return err
}

// errorEvent is sent to the actor only. Failed commands are never broadcast.
func errorEvent(sessionID uuid.UUID, userID string, cmd domain.Command, err error) domain.Event {
	_, kind := errorStatus(err)
	message := domain.Message(err)
	if kind == "internal" {
		message = "internal error"
	}
	return domain.Event{
		Type:      domain.EventError,
		SessionID: sessionID.String(),
		ActorID:   userID,
		TargetID:  cmd.TargetID,
		Payload: map[string]any{
			"command": string(cmd.Type),
			"kind":    kind,
			"message": message,
		},
	}
}
