package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"studiobooking/internal/domain"
	"studiobooking/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StudioLookup is the slice of the directory ownership checks need.
type StudioLookup interface {
	GetStudio(ctx context.Context, id int64) (*domain.Studio, error)
	GetRoom(ctx context.Context, id int64) (*domain.Room, error)
}

// OwnershipChecker provides middleware to verify resource ownership.
type OwnershipChecker struct {
	dir StudioLookup
}

func NewOwnershipChecker(dir StudioLookup) *OwnershipChecker {
	return &OwnershipChecker{dir: dir}
}

// CheckStudioOwnership verifies the user owns the studio in URL param "id".
func (oc *OwnershipChecker) CheckStudioOwnership() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt64(ContextUserID)
		if userID == 0 {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		studioID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || studioID <= 0 {
			response.Abort(c, http.StatusBadRequest, "INVALID_ID", "Invalid studio ID")
			return
		}

		studio, err := oc.dir.GetStudio(c.Request.Context(), studioID)
		if err != nil {
			abortLookup(c, err, "Studio not found")
			return
		}
		if studio.OwnerID != userID {
			response.Abort(c, http.StatusForbidden, "FORBIDDEN", "You don't own this studio")
			return
		}

		c.Next()
	}
}

// CheckRoomOwnership verifies the user owns the studio of the room in URL
// param "id".
func (oc *OwnershipChecker) CheckRoomOwnership() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt64(ContextUserID)
		if userID == 0 {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		roomID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || roomID <= 0 {
			response.Abort(c, http.StatusBadRequest, "INVALID_ID", "Invalid room ID")
			return
		}

		room, err := oc.dir.GetRoom(c.Request.Context(), roomID)
		if err != nil {
			abortLookup(c, err, "Room not found")
			return
		}
		studio, err := oc.dir.GetStudio(c.Request.Context(), room.StudioID)
		if err != nil {
			abortLookup(c, err, "Studio not found")
			return
		}
		if studio.OwnerID != userID {
			response.Abort(c, http.StatusForbidden, "FORBIDDEN", "You don't own this resource")
			return
		}

		c.Next()
	}
}

func abortLookup(c *gin.Context, err error, notFound string) {
	if errors.Is(err, domain.ErrNotFound) {
		response.Abort(c, http.StatusNotFound, "NOT_FOUND", notFound)
		return
	}
	zap.L().Error("ownership lookup failed", zap.Error(err))
	response.Abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
}
