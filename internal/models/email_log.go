package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
)

// EmailLog records every delivery attempt made by the dispatcher. Emails are
// best-effort, so this table is the only trace a failed delivery leaves.
type EmailLog struct {
	gorm.Model

	Template  string         `gorm:"not null"`
	Recipient string         `gorm:"not null"`
	Context   datatypes.JSON `gorm:"type:jsonb"`
	Status    string         `gorm:"not null"`
	Error     string
}
