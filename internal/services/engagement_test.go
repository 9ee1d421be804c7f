package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/together-dev/together/db"
	"github.com/together-dev/together/internal/apperrors"
	"github.com/together-dev/together/internal/models"
)

func TestApproveApplication(t *testing.T) {
	mailer := setupTestDB(t)

	association := createTestAssociation(t, "restos")
	volunteer := createTestVolunteer(t, "Alice", "Martin")
	mission := createTestMission(t, association, 2, 5)
	applyTestVolunteer(t, volunteer, mission)

	engagement, err := ApproveApplication(association.ID, volunteer.ID, mission.ID)
	require.NoError(t, err)

	assert.Equal(t, models.EngagementApproved, engagement.State)
	assert.Nil(t, engagement.RejectionReason)
	assert.Equal(t, models.EngagementApproved, engagementState(t, volunteer.ID, mission.ID))

	// Association is notified, both parties are emailed
	assert.EqualValues(t, 1, notificationCount(t, association.ID, models.NotificationVolunteerJoined))
	assert.EqualValues(t, 1, emailLogCount(t, "application_approved", models.EmailStatusSent))
	assert.EqualValues(t, 1, emailLogCount(t, "volunteer_joined", models.EmailStatusSent))
	assert.Equal(t, 2, mailer.sentCount())

	// capacity_min is 2, one approval does not cross it
	assert.EqualValues(t, 0, notificationCount(t, association.ID, models.NotificationCapacityReached))
}

func TestApproveMissionFull(t *testing.T) {
	setupTestDB(t)

	association := createTestAssociation(t, "restos")
	first := createTestVolunteer(t, "Alice", "Martin")
	second := createTestVolunteer(t, "Bruno", "Petit")
	mission := createTestMission(t, association, 1, 1)
	applyTestVolunteer(t, first, mission)
	applyTestVolunteer(t, second, mission)

	_, err := ApproveApplication(association.ID, first.ID, mission.ID)
	require.NoError(t, err)

	// min = max = 1: the single approval also crosses the threshold
	assert.EqualValues(t, 1, notificationCount(t, association.ID, models.NotificationVolunteerJoined))
	assert.EqualValues(t, 1, notificationCount(t, association.ID, models.NotificationCapacityReached))

	_, err = ApproveApplication(association.ID, second.ID, mission.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindCapacityExceeded))
	assert.Contains(t, err.Error(), "at capacity")

	// The failed approval changed nothing
	assert.Equal(t, models.EngagementPending, engagementState(t, second.ID, mission.ID))
	assert.Equal(t, models.EngagementApproved, engagementState(t, first.ID, mission.ID))

	capacity, err := GetMissionCapacity(mission.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, capacity.EnrolledCount)

	// No notifications were emitted for the rejected attempt
	assert.EqualValues(t, 1, notificationCount(t, association.ID, models.NotificationVolunteerJoined))
}

func TestApproveAlreadyDecided(t *testing.T) {
	setupTestDB(t)

	association := createTestAssociation(t, "restos")
	volunteer := createTestVolunteer(t, "Alice", "Martin")
	mission := createTestMission(t, association, 0, 5)
	applyTestVolunteer(t, volunteer, mission)

	_, err := ApproveApplication(association.ID, volunteer.ID, mission.ID)
	require.NoError(t, err)

	_, err = ApproveApplication(association.ID, volunteer.ID, mission.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
	assert.Contains(t, err.Error(), "approved")

	// Repeated calls never emit additional notifications
	assert.EqualValues(t, 1, notificationCount(t, association.ID, models.NotificationVolunteerJoined))
}

func TestApproveEngagementNotFound(t *testing.T) {
	setupTestDB(t)

	association := createTestAssociation(t, "restos")
	volunteer := createTestVolunteer(t, "Alice", "Martin")
	mission := createTestMission(t, association, 1, 5)

	_, err := ApproveApplication(association.ID, volunteer.ID, mission.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestApproveWrongAssociation(t *testing.T) {
	setupTestDB(t)

	owner := createTestAssociation(t, "restos")
	other := createTestAssociation(t, "secours")
	volunteer := createTestVolunteer(t, "Alice", "Martin")
	mission := createTestMission(t, owner, 1, 5)
	applyTestVolunteer(t, volunteer, mission)

	_, err := ApproveApplication(other.ID, volunteer.ID, mission.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermissionDenied))
	assert.Equal(t, models.EngagementPending, engagementState(t, volunteer.ID, mission.ID))
}

func TestRejectApplication(t *testing.T) {
	setupTestDB(t)

	association := createTestAssociation(t, "restos")
	volunteer := createTestVolunteer(t, "Alice", "Martin")
	mission := createTestMission(t, association, 1, 5)
	applyTestVolunteer(t, volunteer, mission)

	reason := "expired identification"
	engagement, err := RejectApplication(association.ID, volunteer.ID, mission.ID, &reason)
	require.NoError(t, err)

	assert.Equal(t, models.EngagementRejected, engagement.State)
	require.NotNil(t, engagement.RejectionReason)
	assert.Equal(t, "expired identification", *engagement.RejectionReason)

	var stored models.Engagement
	require.NoError(t, db.DB.Where("volunteer_id = ? AND mission_id = ?", volunteer.ID, mission.ID).First(&stored).Error)
	require.NotNil(t, stored.RejectionReason)
	assert.Equal(t, "expired identification", *stored.RejectionReason)

	// Rejection never affects the enrolled count
	capacity, err := GetMissionCapacity(mission.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, capacity.EnrolledCount)

	// Only the volunteer is informed, no notification row
	assert.EqualValues(t, 1, emailLogCount(t, "application_rejected", models.EmailStatusSent))
	var notifications int64
	require.NoError(t, db.DB.Model(&models.Notification{}).Count(&notifications).Error)
	assert.EqualValues(t, 0, notifications)
}

func TestRejectWithoutReason(t *testing.T) {
	setupTestDB(t)

	association := createTestAssociation(t, "restos")
	volunteer := createTestVolunteer(t, "Alice", "Martin")
	mission := createTestMission(t, association, 1, 5)
	applyTestVolunteer(t, volunteer, mission)

	engagement, err := RejectApplication(association.ID, volunteer.ID, mission.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.EngagementRejected, engagement.State)
	assert.Nil(t, engagement.RejectionReason)
}

func TestRejectAlreadyDecided(t *testing.T) {
	setupTestDB(t)

	association := createTestAssociation(t, "restos")
	volunteer := createTestVolunteer(t, "Alice", "Martin")
	mission := createTestMission(t, association, 1, 5)
	applyTestVolunteer(t, volunteer, mission)

	require.NoError(t, WithdrawApplication(volunteer.ID, mission.ID))

	_, err := RejectApplication(association.ID, volunteer.ID, mission.ID, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
	assert.Contains(t, err.Error(), "withdrawn")
}

func TestWithdrawApplication(t *testing.T) {
	setupTestDB(t)

	association := createTestAssociation(t, "restos")
	volunteer := createTestVolunteer(t, "Alice", "Martin")
	mission := createTestMission(t, association, 1, 5)
	applyTestVolunteer(t, volunteer, mission)

	require.NoError(t, WithdrawApplication(volunteer.ID, mission.ID))
	assert.Equal(t, models.EngagementWithdrawn, engagementState(t, volunteer.ID, mission.ID))
	assert.EqualValues(t, 1, notificationCount(t, association.ID, models.NotificationVolunteerWithdrew))

	// Terminal: a second withdrawal fails and emits nothing new
	err := WithdrawApplication(volunteer.ID, mission.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
	assert.EqualValues(t, 1, notificationCount(t, association.ID, models.NotificationVolunteerWithdrew))
}

func TestWithdrawNoApplication(t *testing.T) {
	setupTestDB(t)

	association := createTestAssociation(t, "restos")
	volunteer := createTestVolunteer(t, "Alice", "Martin")
	mission := createTestMission(t, association, 1, 5)

	err := WithdrawApplication(volunteer.ID, mission.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestWithdrawApprovedApplication(t *testing.T) {
	setupTestDB(t)

	association := createTestAssociation(t, "restos")
	volunteer := createTestVolunteer(t, "Alice", "Martin")
	mission := createTestMission(t, association, 1, 5)
	applyTestVolunteer(t, volunteer, mission)

	_, err := ApproveApplication(association.ID, volunteer.ID, mission.ID)
	require.NoError(t, err)

	err = WithdrawApplication(volunteer.ID, mission.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
	assert.Equal(t, models.EngagementApproved, engagementState(t, volunteer.ID, mission.ID))
}

func TestCapacityReachedFiresExactlyOnce(t *testing.T) {
	setupTestDB(t)

	association := createTestAssociation(t, "restos")
	mission := createTestMission(t, association, 2, 5)

	volunteers := make([]models.Volunteer, 4)
	for i := range volunteers {
		volunteers[i] = createTestVolunteer(t, "Vol", fmt.Sprintf("Number%d", i))
		applyTestVolunteer(t, volunteers[i], mission)
	}

	_, err := ApproveApplication(association.ID, volunteers[0].ID, mission.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, notificationCount(t, association.ID, models.NotificationCapacityReached))

	// Second approval reaches capacity_min = 2
	_, err = ApproveApplication(association.ID, volunteers[1].ID, mission.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, notificationCount(t, association.ID, models.NotificationCapacityReached))
	assert.EqualValues(t, 1, emailLogCount(t, "capacity_reached", models.EmailStatusSent))

	var mission2 models.Mission
	require.NoError(t, db.DB.First(&mission2, mission.ID).Error)
	assert.True(t, mission2.MinCapacityNotified)

	// Further approvals never re-fire the threshold notification
	for _, volunteer := range volunteers[2:] {
		_, err = ApproveApplication(association.ID, volunteer.ID, mission.ID)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, notificationCount(t, association.ID, models.NotificationCapacityReached))
	assert.EqualValues(t, 1, emailLogCount(t, "capacity_reached", models.EmailStatusSent))
}

func TestConcurrentApprovalsRespectCapacity(t *testing.T) {
	setupTestDB(t)

	const (
		capacityMax = 3
		applicants  = 10
	)

	association := createTestAssociation(t, "restos")
	mission := createTestMission(t, association, 1, capacityMax)

	volunteers := make([]models.Volunteer, applicants)
	for i := range volunteers {
		volunteers[i] = createTestVolunteer(t, "Vol", fmt.Sprintf("Number%d", i))
		applyTestVolunteer(t, volunteers[i], mission)
	}

	var wg sync.WaitGroup
	errs := make([]error, applicants)

	for i := range volunteers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ApproveApplication(association.ID, volunteers[i].ID, mission.ID)
		}(i)
	}

	wg.Wait()

	approved, rejected := 0, 0

	for _, err := range errs {
		switch {
		case err == nil:
			approved++
		case apperrors.IsKind(err, apperrors.KindCapacityExceeded):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, capacityMax, approved)
	assert.Equal(t, applicants-capacityMax, rejected)

	count, err := ApprovedCount(db.DB, mission.ID)
	require.NoError(t, err)
	assert.EqualValues(t, capacityMax, count)
}

func TestApproveSucceedsWhenMailerFails(t *testing.T) {
	mailer := setupTestDB(t)
	mailer.err = errors.New("smtp unavailable")

	association := createTestAssociation(t, "restos")
	volunteer := createTestVolunteer(t, "Alice", "Martin")
	mission := createTestMission(t, association, 1, 5)
	applyTestVolunteer(t, volunteer, mission)

	engagement, err := ApproveApplication(association.ID, volunteer.ID, mission.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EngagementApproved, engagement.State)

	// The failure is visible only in the email log, never to the caller
	assert.EqualValues(t, 1, emailLogCount(t, "application_approved", models.EmailStatusFailed))
	assert.EqualValues(t, 1, emailLogCount(t, "volunteer_joined", models.EmailStatusFailed))

	// The notification row is independent of email delivery
	assert.EqualValues(t, 1, notificationCount(t, association.ID, models.NotificationVolunteerJoined))
}

func TestApplyToMission(t *testing.T) {
	setupTestDB(t)

	association := createTestAssociation(t, "restos")
	volunteer := createTestVolunteer(t, "Alice", "Martin")
	mission := createTestMission(t, association, 1, 5)

	engagement, err := ApplyToMission(volunteer.ID, mission.ID, "available on weekends")
	require.NoError(t, err)
	assert.Equal(t, models.EngagementPending, engagement.State)
	assert.Equal(t, "available on weekends", engagement.Message)

	_, err = ApplyToMission(volunteer.ID, mission.ID, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindAlreadyExists))
}

func TestApplyToMissingMission(t *testing.T) {
	setupTestDB(t)

	association := createTestAssociation(t, "restos")
	volunteer := createTestVolunteer(t, "Alice", "Martin")
	_ = createTestMission(t, association, 1, 5)

	_, err := ApplyToMission(volunteer.ID, 9999, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestListEngagements(t *testing.T) {
	setupTestDB(t)

	association := createTestAssociation(t, "restos")
	mission := createTestMission(t, association, 1, 5)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		volunteer := createTestVolunteer(t, "Vol", fmt.Sprintf("Number%d", i))
		engagement := models.Engagement{
			VolunteerID:     volunteer.ID,
			MissionID:       mission.ID,
			State:           models.EngagementPending,
			ApplicationDate: base.AddDate(0, 0, i),
		}
		require.NoError(t, db.DB.Create(&engagement).Error)
	}

	engagements, err := ListEngagements(mission.ID, "")
	require.NoError(t, err)
	require.Len(t, engagements, 3)

	// Newest application first
	for i := 1; i < len(engagements); i++ {
		assert.True(t, !engagements[i-1].ApplicationDate.Before(engagements[i].ApplicationDate))
	}

	// Volunteers are preloaded for display
	assert.NotEmpty(t, engagements[0].Volunteer.FirstName)

	_, err = ApproveApplication(association.ID, engagements[0].VolunteerID, mission.ID)
	require.NoError(t, err)

	pending, err := ListEngagements(mission.ID, models.EngagementPending)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	approved, err := ListEngagements(mission.ID, models.EngagementApproved)
	require.NoError(t, err)
	assert.Len(t, approved, 1)
}
