package models

import "gorm.io/gorm"

const (
	RoleVolunteer   = "volunteer"
	RoleAssociation = "association"
	RoleAdmin       = "admin"
)

type User struct {
	gorm.Model

	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         string `gorm:"not null"` // "volunteer", "association" or "admin"

	// Relationships
	Volunteer   *Volunteer   `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Association *Association `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
