package models

import "gorm.io/gorm"

// Notification types for the association activity feed.
const (
	NotificationVolunteerJoined   = "volunteer_joined"
	NotificationVolunteerLeft     = "volunteer_left"
	NotificationVolunteerWithdrew = "volunteer_withdrew"
	NotificationCapacityReached   = "capacity_reached"
	NotificationMissionDeleted    = "mission_deleted"
)

type Notification struct {
	gorm.Model

	AssociationID    uint   `gorm:"not null;index"`
	Type             string `gorm:"not null"`
	Message          string `gorm:"not null"`
	RelatedMissionID *uint
	RelatedUserID    *uint
	IsRead           bool `gorm:"not null;default:false"`

	// Relationships
	Association Association `gorm:"foreignKey:AssociationID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
