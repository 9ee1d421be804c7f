package models

import (
	"time"

	"gorm.io/gorm"
)

type Mission struct {
	gorm.Model

	AssociationID uint      `gorm:"not null;index"`
	Name          string    `gorm:"not null"`
	Description   string    `gorm:"not null"`
	Skills        string
	DateStart     time.Time `gorm:"not null"`
	DateEnd       time.Time `gorm:"not null"`
	CapacityMin   int       `gorm:"not null"`
	CapacityMax   int       `gorm:"not null"`

	// MinCapacityNotified is set once, on the approval that first brings the
	// approved count to CapacityMin, so the capacity-reached notification can
	// never fire twice for the same mission.
	MinCapacityNotified bool `gorm:"not null;default:false"`

	// Relationships
	Association Association  `gorm:"foreignKey:AssociationID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Engagements []Engagement `gorm:"foreignKey:MissionID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
