package models

import "time"

// Engagement states. PENDING is the only non-terminal state; APPROVED,
// REJECTED and WITHDRAWN are terminal and never re-entered.
const (
	EngagementPending   = "PENDING"
	EngagementApproved  = "APPROVED"
	EngagementRejected  = "REJECTED"
	EngagementWithdrawn = "WITHDRAWN"
)

// Engagement is one volunteer's application to one mission. The composite
// primary key guarantees at most one engagement per (volunteer, mission) pair.
type Engagement struct {
	VolunteerID uint `gorm:"primaryKey;autoIncrement:false"`
	MissionID   uint `gorm:"primaryKey;autoIncrement:false;index:idx_engagements_mission_state"`

	State           string    `gorm:"not null;default:PENDING;index:idx_engagements_mission_state"`
	Message         string
	RejectionReason *string
	ApplicationDate time.Time `gorm:"not null"`

	// Relationships
	Volunteer Volunteer `gorm:"foreignKey:VolunteerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Mission   Mission   `gorm:"foreignKey:MissionID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
