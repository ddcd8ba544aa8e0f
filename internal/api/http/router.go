package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(
	allowedOrigins []string,
	sessionController *SessionController,
	permissionController *PermissionController,
	realtimeController *RealtimeController,
) *gin.Engine {
	router := gin.Default()
	config := cors.DefaultConfig()
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = allowedOrigins
		config.AllowCredentials = true
	}
	config.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"Origin",
		"Accept",
		HeaderUserID,
		HeaderUserName,
		HeaderUserRole,
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	router.Use(cors.New(config))
	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(IdentityMiddleware())

	if sessionController != nil {
		api.GET("/classes/:classID/session", sessionController.GetActiveForClass)

		sessions := api.Group("/sessions")
		sessions.POST("", sessionController.StartSession)
		sessions.GET("", sessionController.ListActive)
		sessions.GET("/:sessionID", sessionController.GetSession)
		sessions.POST("/:sessionID/join", sessionController.JoinSession)
		sessions.POST("/:sessionID/leave", sessionController.LeaveSession)
		sessions.POST("/:sessionID/end", sessionController.EndSession)
		sessions.POST("/:sessionID/chat", sessionController.AppendChat)
		sessions.PUT("/:sessionID/settings", sessionController.UpdateSettings)
		sessions.PATCH("/:sessionID/media", sessionController.UpdateMediaState)
		sessions.POST("/:sessionID/credentials", sessionController.IssueCredential)
	}

	if permissionController != nil {
		sessions := api.Group("/sessions/:sessionID")
		sessions.POST("/speaking/request", permissionController.RequestSpeaking)
		sessions.POST("/hand", permissionController.RaiseHand)
		sessions.POST("/self-mute", permissionController.SelfMute)
		sessions.POST("/self-unmute", permissionController.SelfUnmute)
		sessions.POST("/mute-all", permissionController.MuteAll)
		sessions.POST("/unmute-all", permissionController.UnmuteAll)
		sessions.POST("/participants/:userID/grant", permissionController.GrantSpeaking)
		sessions.POST("/participants/:userID/revoke", permissionController.RevokeSpeaking)
		sessions.POST("/participants/:userID/mute", permissionController.MuteParticipant)
	}

	if realtimeController != nil {
		api.GET("/sessions/:sessionID/ws", realtimeController.Connect)
	}

	return router
}
