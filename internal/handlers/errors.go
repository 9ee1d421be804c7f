package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/together-dev/together/internal/apperrors"
)

// respondError maps a service error to an HTTP response by its kind. The
// "code" field lets clients tell a full mission apart from other conflicts.
func respondError(ctx *gin.Context, err error) {
	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound:
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "not_found"})
	case apperrors.KindAlreadyExists:
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "already_exists"})
	case apperrors.KindInvalidState:
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "invalid_state"})
	case apperrors.KindCapacityExceeded:
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "capacity_exceeded"})
	case apperrors.KindPermissionDenied:
		ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "permission_denied"})
	case apperrors.KindValidation:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
	default:
		log.Printf("Unexpected error: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
