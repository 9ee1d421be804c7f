package models

import "gorm.io/gorm"

type Association struct {
	gorm.Model

	UserID uint   `gorm:"not null;uniqueIndex"`
	Name   string `gorm:"not null"`

	// Relationships
	User          User           `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Missions      []Mission      `gorm:"foreignKey:AssociationID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Notifications []Notification `gorm:"foreignKey:AssociationID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
