package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/liveclass/internal/domain"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
	HeaderUserRole = "X-User-Role"

	identityKey = "identity"
)

// IdentityMiddleware trusts the identity forwarded by the auth gateway.
// Browsers cannot set headers on a websocket handshake, so the query string
// is accepted as a fallback.
func IdentityMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		who := domain.Identity{
			UserID: ctx.GetHeader(HeaderUserID),
			Name:   ctx.GetHeader(HeaderUserName),
			Role:   ctx.GetHeader(HeaderUserRole),
		}
		if who.UserID == "" {
			who.UserID = ctx.Query("user_id")
			who.Name = ctx.Query("user_name")
			who.Role = ctx.Query("role")
		}
		if who.UserID == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
			return
		}
		ctx.Set(identityKey, who)
		ctx.Next()
	}
}

func identityFrom(ctx *gin.Context) domain.Identity {
	who, _ := ctx.MustGet(identityKey).(domain.Identity)
	return who
}
