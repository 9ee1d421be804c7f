package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/together-dev/together/internal/models"
	"github.com/together-dev/together/internal/services"
)

type NotificationSummary struct {
	ID               uint      `json:"id"`
	Type             string    `json:"type"`
	Message          string    `json:"message"`
	RelatedMissionID *uint     `json:"related_mission_id"`
	RelatedUserID    *uint     `json:"related_user_id"`
	IsRead           bool      `json:"is_read"`
	CreatedAt        time.Time `json:"created_at"`
}

type MarkNotificationsReadRequest struct {
	NotificationIDs []uint `json:"notification_ids" binding:"required,min=1"`
}

func notificationSummary(notification models.Notification) NotificationSummary {
	return NotificationSummary{
		ID:               notification.ID,
		Type:             notification.Type,
		Message:          notification.Message,
		RelatedMissionID: notification.RelatedMissionID,
		RelatedUserID:    notification.RelatedUserID,
		IsRead:           notification.IsRead,
		CreatedAt:        notification.CreatedAt,
	}
}

// GetNotifications lists the calling association's notifications, newest
// first. Query params: unread_only, offset, limit.
func GetNotifications(ctx *gin.Context) {
	association, ok := currentAssociation(ctx)

	if !ok {
		return
	}

	unreadOnly := ctx.Query("unread_only") == "true"
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))

	notifications, err := services.ListNotifications(association.ID, unreadOnly, offset, limit)

	if err != nil {
		respondError(ctx, err)
		return
	}

	summaries := make([]NotificationSummary, 0, len(notifications))

	for _, notification := range notifications {
		summaries = append(summaries, notificationSummary(notification))
	}

	ctx.JSON(http.StatusOK, summaries)
}

func GetUnreadNotificationCount(ctx *gin.Context) {
	association, ok := currentAssociation(ctx)

	if !ok {
		return
	}

	count, err := services.UnreadNotificationCount(association.ID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"unread_count": count})
}

func MarkNotificationsRead(ctx *gin.Context) {
	association, ok := currentAssociation(ctx)

	if !ok {
		return
	}

	var req MarkNotificationsReadRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := services.MarkNotificationsRead(association.ID, req.NotificationIDs)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"marked_read": updated})
}
