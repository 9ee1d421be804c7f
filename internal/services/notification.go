package services

import (
	"github.com/together-dev/together/db"
	"github.com/together-dev/together/internal/models"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

// ListNotifications returns an association's notifications, newest first.
func ListNotifications(associationID uint, unreadOnly bool, offset, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}
	if offset < 0 {
		offset = 0
	}

	query := db.DB.Where("association_id = ?", associationID)

	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var notifications []models.Notification

	err := query.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&notifications).Error

	if err != nil {
		return nil, err
	}

	return notifications, nil
}

func UnreadNotificationCount(associationID uint) (int64, error) {
	var count int64

	err := db.DB.Model(&models.Notification{}).
		Where("association_id = ? AND is_read = ?", associationID, false).
		Count(&count).Error

	return count, err
}

// MarkNotificationsRead marks the given notifications as read and returns how
// many rows changed. Only the owning association's notifications are touched.
func MarkNotificationsRead(associationID uint, notificationIDs []uint) (int64, error) {
	if len(notificationIDs) == 0 {
		return 0, nil
	}

	result := db.DB.Model(&models.Notification{}).
		Where("id IN ? AND association_id = ? AND is_read = ?", notificationIDs, associationID, false).
		Update("is_read", true)

	return result.RowsAffected, result.Error
}
