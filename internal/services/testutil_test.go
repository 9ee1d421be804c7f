package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/together-dev/together/db"
	"github.com/together-dev/together/internal/dispatch"
	"github.com/together-dev/together/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeEmail struct {
	Recipient string
	Subject   string
}

// fakeMailer records deliveries and optionally fails every send.
type fakeMailer struct {
	mu   sync.Mutex
	sent []fakeEmail
	err  error
}

func (m *fakeMailer) Send(recipient, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	m.sent = append(m.sent, fakeEmail{Recipient: recipient, Subject: subject})
	return nil
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// setupTestDB points the global connection at a fresh in-memory database and
// installs a recording mailer. A single connection is enforced so concurrent
// transactions serialize instead of seeing separate in-memory databases.
func setupTestDB(t *testing.T) *fakeMailer {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = gdb.AutoMigrate(
		&models.User{},
		&models.Volunteer{},
		&models.Association{},
		&models.Mission{},
		&models.Engagement{},
		&models.Notification{},
		&models.EmailLog{},
	)
	require.NoError(t, err)

	db.DB = gdb

	mailer := &fakeMailer{}
	dispatch.Init(mailer, "http://localhost:5173")
	dispatch.Broadcast = nil

	return mailer
}

func createTestAssociation(t *testing.T, name string) models.Association {
	t.Helper()

	user := models.User{
		Email:        fmt.Sprintf("%s@example.org", name),
		PasswordHash: "x",
		Role:         models.RoleAssociation,
	}
	require.NoError(t, db.DB.Create(&user).Error)

	association := models.Association{UserID: user.ID, Name: name}
	require.NoError(t, db.DB.Create(&association).Error)

	return association
}

func createTestVolunteer(t *testing.T, firstName, lastName string) models.Volunteer {
	t.Helper()

	user := models.User{
		Email:        fmt.Sprintf("%s.%s@example.org", firstName, lastName),
		PasswordHash: "x",
		Role:         models.RoleVolunteer,
	}
	require.NoError(t, db.DB.Create(&user).Error)

	volunteer := models.Volunteer{UserID: user.ID, FirstName: firstName, LastName: lastName}
	require.NoError(t, db.DB.Create(&volunteer).Error)

	return volunteer
}

func createTestMission(t *testing.T, association models.Association, capacityMin, capacityMax int) models.Mission {
	t.Helper()

	mission := models.Mission{
		AssociationID: association.ID,
		Name:          fmt.Sprintf("Mission %d/%d", capacityMin, capacityMax),
		Description:   "Help distribute food packages",
		DateStart:     time.Now().AddDate(0, 1, 0),
		DateEnd:       time.Now().AddDate(0, 2, 0),
		CapacityMin:   capacityMin,
		CapacityMax:   capacityMax,
	}
	require.NoError(t, db.DB.Create(&mission).Error)

	return mission
}

func applyTestVolunteer(t *testing.T, volunteer models.Volunteer, mission models.Mission) {
	t.Helper()

	_, err := ApplyToMission(volunteer.ID, mission.ID, "")
	require.NoError(t, err)
}

func engagementState(t *testing.T, volunteerID, missionID uint) string {
	t.Helper()

	var engagement models.Engagement
	err := db.DB.Where("volunteer_id = ? AND mission_id = ?", volunteerID, missionID).
		First(&engagement).Error
	require.NoError(t, err)

	return engagement.State
}

func notificationCount(t *testing.T, associationID uint, notificationType string) int64 {
	t.Helper()

	var count int64
	err := db.DB.Model(&models.Notification{}).
		Where("association_id = ? AND type = ?", associationID, notificationType).
		Count(&count).Error
	require.NoError(t, err)

	return count
}

func emailLogCount(t *testing.T, template, status string) int64 {
	t.Helper()

	var count int64
	err := db.DB.Model(&models.EmailLog{}).
		Where("template = ? AND status = ?", template, status).
		Count(&count).Error
	require.NoError(t, err)

	return count
}
