package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/immxrtalbeast/liveclass/internal/domain"
	"github.com/immxrtalbeast/liveclass/lib/logger/sl"
)

func errorStatus(err error) (int, string) {
	switch domain.Kind(err) {
	case domain.ErrNotFound:
		return http.StatusNotFound, "not_found"
	case domain.ErrInvalid:
		return http.StatusConflict, "invalid"
	case domain.ErrForbidden:
		return http.StatusForbidden, "forbidden"
	case domain.ErrInvalidInput:
		return http.StatusBadRequest, "invalid_input"
	case domain.ErrConflict:
		return http.StatusConflict, "conflict"
	}
	return http.StatusInternalServerError, "internal"
}

// writeError renders a service error. Unclassified errors are not exposed.
func writeError(ctx *gin.Context, log *slog.Logger, err error) {
	status, kind := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", slog.String("path", ctx.FullPath()), sl.Err(err))
		ctx.JSON(status, gin.H{"error": "internal error", "kind": kind})
		return
	}
	ctx.JSON(status, gin.H{"error": domain.Message(err), "kind": kind})
}

func sessionIDParam(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("sessionID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id", "kind": "invalid_input"})
		return uuid.Nil, false
	}
	return id, true
}
