package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/together-dev/together/db"
	"github.com/together-dev/together/internal/apperrors"
	"github.com/together-dev/together/internal/dispatch"
	"github.com/together-dev/together/internal/models"
	"gorm.io/gorm"
)

// admissionContext holds every row an admission decision touches, loaded up
// front so the decision itself never goes back to the database for a field.
type admissionContext struct {
	engagement  models.Engagement
	mission     models.Mission
	volunteer   models.Volunteer
	association models.Association
}

func loadAdmissionContext(tx *gorm.DB, volunteerID, missionID uint) (*admissionContext, error) {
	var ac admissionContext

	err := tx.Where("volunteer_id = ? AND mission_id = ?", volunteerID, missionID).
		First(&ac.engagement).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Engagement", fmt.Sprintf("volunteer_%d_mission_%d", volunteerID, missionID))
		}
		return nil, err
	}

	if err := tx.First(&ac.mission, missionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Mission", missionID)
		}
		return nil, err
	}

	if err := tx.Preload("User").First(&ac.volunteer, volunteerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Volunteer", volunteerID)
		}
		return nil, err
	}

	err = tx.Preload("User").First(&ac.association, ac.mission.AssociationID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Association", ac.mission.AssociationID)
		}
		return nil, err
	}

	return &ac, nil
}

func invalidStateError(state string) *apperrors.Error {
	return apperrors.InvalidState(fmt.Sprintf("application already %s", strings.ToLower(state)))
}

// ApproveApplication approves a pending application, enforcing the mission's
// capacity bound. On success it notifies the association (volunteer joined,
// plus capacity reached the first time the approved count hits CapacityMin)
// and emails both parties. Notification failures never fail the approval.
//
// Approvals for the same mission are serialized by a process-local mutex held
// across the count-then-write transaction; see lockForMission for the
// multi-process caveat.
func ApproveApplication(associationID, volunteerID, missionID uint) (*models.Engagement, error) {
	mu := lockForMission(missionID)
	mu.Lock()
	defer mu.Unlock()

	var (
		ac            *admissionContext
		previousCount int64
		crossedMin    bool
	)

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var err error

		ac, err = loadAdmissionContext(tx, volunteerID, missionID)

		if err != nil {
			return err
		}

		if ac.mission.AssociationID != associationID {
			return apperrors.PermissionDenied("mission does not belong to the calling association")
		}

		if ac.engagement.State != models.EngagementPending {
			return invalidStateError(ac.engagement.State)
		}

		previousCount, err = ApprovedCount(tx, missionID)

		if err != nil {
			return err
		}

		if previousCount >= int64(ac.mission.CapacityMax) {
			return apperrors.CapacityExceeded(fmt.Sprintf(
				"mission %q is at capacity (%d/%d volunteers)",
				ac.mission.Name, previousCount, ac.mission.CapacityMax,
			))
		}

		err = tx.Model(&models.Engagement{}).
			Where("volunteer_id = ? AND mission_id = ?", volunteerID, missionID).
			Updates(map[string]interface{}{
				"state":            models.EngagementApproved,
				"rejection_reason": nil,
			}).Error

		if err != nil {
			return err
		}

		ac.engagement.State = models.EngagementApproved
		ac.engagement.RejectionReason = nil

		crossedMin = !ac.mission.MinCapacityNotified &&
			previousCount < int64(ac.mission.CapacityMin) &&
			previousCount+1 >= int64(ac.mission.CapacityMin)

		if crossedMin {
			err = tx.Model(&models.Mission{}).
				Where("id = ?", missionID).
				Update("min_capacity_notified", true).Error

			if err != nil {
				return err
			}

			ac.mission.MinCapacityNotified = true
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	event := dispatch.EngagementEvent{
		Association:  ac.association,
		Mission:      ac.mission,
		Volunteer:    ac.volunteer,
		CurrentCount: int(previousCount) + 1,
	}

	dispatch.VolunteerJoined(event)

	if crossedMin {
		dispatch.CapacityReached(event)
	}

	return &ac.engagement, nil
}

// RejectApplication rejects a pending application, storing the reason
// verbatim (it may be nil). The volunteer is emailed; the association is not
// notified since it made the decision.
func RejectApplication(associationID, volunteerID, missionID uint, reason *string) (*models.Engagement, error) {
	var ac *admissionContext

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var err error

		ac, err = loadAdmissionContext(tx, volunteerID, missionID)

		if err != nil {
			return err
		}

		if ac.mission.AssociationID != associationID {
			return apperrors.PermissionDenied("mission does not belong to the calling association")
		}

		if ac.engagement.State != models.EngagementPending {
			return invalidStateError(ac.engagement.State)
		}

		err = tx.Model(&models.Engagement{}).
			Where("volunteer_id = ? AND mission_id = ?", volunteerID, missionID).
			Updates(map[string]interface{}{
				"state":            models.EngagementRejected,
				"rejection_reason": reason,
			}).Error

		if err != nil {
			return err
		}

		ac.engagement.State = models.EngagementRejected
		ac.engagement.RejectionReason = reason

		return nil
	})

	if err != nil {
		return nil, err
	}

	rejectionReason := ""
	if reason != nil {
		rejectionReason = *reason
	}

	dispatch.ApplicationRejected(dispatch.EngagementEvent{
		Association: ac.association,
		Mission:     ac.mission,
		Volunteer:   ac.volunteer,
		Reason:      rejectionReason,
	})

	return &ac.engagement, nil
}

// WithdrawApplication withdraws the volunteer's own pending application and
// notifies the association. Decided applications cannot be withdrawn.
func WithdrawApplication(volunteerID, missionID uint) error {
	var ac *admissionContext

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var err error

		ac, err = loadAdmissionContext(tx, volunteerID, missionID)

		if err != nil {
			return err
		}

		if ac.engagement.State != models.EngagementPending {
			return invalidStateError(ac.engagement.State)
		}

		return tx.Model(&models.Engagement{}).
			Where("volunteer_id = ? AND mission_id = ?", volunteerID, missionID).
			Update("state", models.EngagementWithdrawn).Error
	})

	if err != nil {
		return err
	}

	dispatch.VolunteerWithdrew(dispatch.EngagementEvent{
		Association: ac.association,
		Mission:     ac.mission,
		Volunteer:   ac.volunteer,
	})

	return nil
}

// ApplyToMission creates a PENDING engagement for the volunteer. At most one
// engagement may exist per (volunteer, mission) pair.
func ApplyToMission(volunteerID, missionID uint, message string) (*models.Engagement, error) {
	var volunteer models.Volunteer

	if err := db.DB.First(&volunteer, volunteerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Volunteer", volunteerID)
		}
		return nil, err
	}

	var mission models.Mission

	if err := db.DB.First(&mission, missionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Mission", missionID)
		}
		return nil, err
	}

	var existing models.Engagement

	err := db.DB.Where("volunteer_id = ? AND mission_id = ?", volunteerID, missionID).
		First(&existing).Error

	if err == nil {
		return nil, apperrors.AlreadyExists("Engagement", fmt.Sprintf("volunteer_%d_mission_%d", volunteerID, missionID))
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	engagement := models.Engagement{
		VolunteerID:     volunteerID,
		MissionID:       missionID,
		State:           models.EngagementPending,
		Message:         message,
		ApplicationDate: time.Now().UTC(),
	}

	if err := db.DB.Create(&engagement).Error; err != nil {
		return nil, err
	}

	return &engagement, nil
}

// ListEngagements returns a mission's engagements ordered by application date
// descending, optionally filtered by state. Volunteers are preloaded.
func ListEngagements(missionID uint, stateFilter string) ([]models.Engagement, error) {
	query := db.DB.Preload("Volunteer").
		Where("mission_id = ?", missionID).
		Order("application_date DESC")

	if stateFilter != "" {
		query = query.Where("state = ?", stateFilter)
	}

	var engagements []models.Engagement

	if err := query.Find(&engagements).Error; err != nil {
		return nil, err
	}

	return engagements, nil
}
