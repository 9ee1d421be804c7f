// Package dispatch fans out the side effects of engagement state changes: a
// persisted notification for the association's activity feed and templated
// emails to the affected parties. Every leg is best-effort and independent.
// A failure is logged (and recorded in the email log) but never reaches the
// caller, because the state transition that triggered it has already
// committed.
package dispatch

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/together-dev/together/db"
	"github.com/together-dev/together/internal/models"
	"gorm.io/datatypes"
)

var (
	mailer      Mailer
	frontendURL string

	// Broadcast, when set, pushes a feed refresh to the association's
	// connected websocket clients after a notification row is created.
	Broadcast func(associationID uint)
)

// Init wires the mailer and the frontend URL used in email links. Called once
// at process start; there is no other configuration state in this package.
func Init(m Mailer, frontend string) {
	mailer = m
	frontendURL = frontend
}

// EngagementEvent carries the rows loaded by the admission controller, so
// dispatching never goes back to the database for names or addresses.
type EngagementEvent struct {
	Association  models.Association
	Mission      models.Mission
	Volunteer    models.Volunteer
	CurrentCount int
	Reason       string
}

// VolunteerJoined records a volunteer_joined notification for the association
// and emails both the volunteer (confirmation) and the association.
func VolunteerJoined(event EngagementEvent) {
	volunteerUserID := event.Volunteer.UserID
	missionID := event.Mission.ID

	createNotification(models.Notification{
		AssociationID:    event.Association.ID,
		Type:             models.NotificationVolunteerJoined,
		Message:          fmt.Sprintf("%s a rejoint la mission \"%s\"", event.Volunteer.FullName(), event.Mission.Name),
		RelatedMissionID: &missionID,
		RelatedUserID:    &volunteerUserID,
	})

	sendEmail("application_approved", event.Volunteer.User.Email, map[string]interface{}{
		"volunteer_name": event.Volunteer.FullName(),
		"mission_name":   event.Mission.Name,
		"mission_id":     event.Mission.ID,
		"frontend_url":   frontendURL,
	})

	sendEmail("volunteer_joined", event.Association.User.Email, map[string]interface{}{
		"association_name": event.Association.Name,
		"volunteer_name":   event.Volunteer.FullName(),
		"mission_name":     event.Mission.Name,
		"current_count":    event.CurrentCount,
		"max_capacity":     event.Mission.CapacityMax,
	})
}

// CapacityReached records the one-time capacity_reached notification and
// emails the association. The admission controller guarantees this fires at
// most once per mission.
func CapacityReached(event EngagementEvent) {
	missionID := event.Mission.ID

	createNotification(models.Notification{
		AssociationID: event.Association.ID,
		Type:          models.NotificationCapacityReached,
		Message: fmt.Sprintf(
			"La mission \"%s\" a atteint sa capacité minimale (%d/%d bénévoles)",
			event.Mission.Name, event.CurrentCount, event.Mission.CapacityMin,
		),
		RelatedMissionID: &missionID,
	})

	sendEmail("capacity_reached", event.Association.User.Email, map[string]interface{}{
		"association_name": event.Association.Name,
		"mission_name":     event.Mission.Name,
		"current_count":    event.CurrentCount,
		"max_capacity":     event.Mission.CapacityMax,
	})
}

// ApplicationRejected emails the volunteer. No notification row is written:
// the association made the decision and does not need to be told about it.
func ApplicationRejected(event EngagementEvent) {
	sendEmail("application_rejected", event.Volunteer.User.Email, map[string]interface{}{
		"volunteer_name":   event.Volunteer.FullName(),
		"mission_name":     event.Mission.Name,
		"rejection_reason": event.Reason,
	})
}

// VolunteerWithdrew records a volunteer_withdrew notification for the
// association.
func VolunteerWithdrew(event EngagementEvent) {
	volunteerUserID := event.Volunteer.UserID
	missionID := event.Mission.ID

	createNotification(models.Notification{
		AssociationID:    event.Association.ID,
		Type:             models.NotificationVolunteerWithdrew,
		Message:          fmt.Sprintf("%s a retiré sa candidature pour \"%s\"", event.Volunteer.FullName(), event.Mission.Name),
		RelatedMissionID: &missionID,
		RelatedUserID:    &volunteerUserID,
	})
}

func createNotification(notification models.Notification) {
	if err := db.DB.Create(&notification).Error; err != nil {
		log.Printf("dispatch: failed to persist %s notification for association %d: %v",
			notification.Type, notification.AssociationID, err)
		return
	}

	if Broadcast != nil {
		Broadcast(notification.AssociationID)
	}
}

func sendEmail(templateName, recipient string, context map[string]interface{}) {
	subject, body, err := renderEmail(templateName, context)

	if err != nil {
		log.Printf("dispatch: %v", err)
		logEmail(templateName, recipient, context, models.EmailStatusFailed, err.Error())
		return
	}

	if mailer == nil {
		log.Printf("dispatch: no mailer configured, dropping %s email to %s", templateName, recipient)
		logEmail(templateName, recipient, context, models.EmailStatusFailed, "no mailer configured")
		return
	}

	if err := mailer.Send(recipient, subject, body); err != nil {
		log.Printf("dispatch: failed to send %s email to %s: %v", templateName, recipient, err)
		logEmail(templateName, recipient, context, models.EmailStatusFailed, err.Error())
		return
	}

	logEmail(templateName, recipient, context, models.EmailStatusSent, "")
}

func logEmail(templateName, recipient string, context map[string]interface{}, status, errMsg string) {
	contextJSON, err := json.Marshal(context)

	if err != nil {
		log.Printf("dispatch: failed to marshal email context for %s: %v", templateName, err)
		contextJSON = []byte("{}")
	}

	entry := models.EmailLog{
		Template:  templateName,
		Recipient: recipient,
		Context:   datatypes.JSON(contextJSON),
		Status:    status,
		Error:     errMsg,
	}

	if err := db.DB.Create(&entry).Error; err != nil {
		log.Printf("dispatch: failed to record email log entry for %s: %v", templateName, err)
	}
}
