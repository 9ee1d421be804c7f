package models

import "gorm.io/gorm"

type Volunteer struct {
	gorm.Model

	UserID    uint   `gorm:"not null;uniqueIndex"`
	FirstName string `gorm:"not null"`
	LastName  string `gorm:"not null"`

	// Relationships
	User        User         `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Engagements []Engagement `gorm:"foreignKey:VolunteerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// FullName is the display name used in notifications and emails.
func (v Volunteer) FullName() string {
	return v.FirstName + " " + v.LastName
}
