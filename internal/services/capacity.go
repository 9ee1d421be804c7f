package services

import (
	"errors"

	"github.com/together-dev/together/db"
	"github.com/together-dev/together/internal/apperrors"
	"github.com/together-dev/together/internal/models"
	"gorm.io/gorm"
)

// ApprovedCount returns the number of approved engagements for a mission.
// Callers enforcing the capacity bound must pass the transaction that will
// also perform the write, so the count cannot go stale between check and
// commit. The count is never cached.
func ApprovedCount(tx *gorm.DB, missionID uint) (int64, error) {
	var count int64

	err := tx.Model(&models.Engagement{}).
		Where("mission_id = ? AND state = ?", missionID, models.EngagementApproved).
		Count(&count).Error

	return count, err
}

type MissionCapacity struct {
	EnrolledCount  int  `json:"volunteers_enrolled"`
	AvailableSlots int  `json:"available_slots"`
	IsFull         bool `json:"is_full"`
}

func capacityFor(capacityMax, enrolled int) MissionCapacity {
	available := capacityMax - enrolled
	if available < 0 {
		available = 0
	}

	return MissionCapacity{
		EnrolledCount:  enrolled,
		AvailableSlots: available,
		IsFull:         enrolled >= capacityMax,
	}
}

// GetMissionCapacity computes the enrollment figures for one mission.
func GetMissionCapacity(missionID uint) (MissionCapacity, error) {
	var mission models.Mission

	if err := db.DB.First(&mission, missionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MissionCapacity{}, apperrors.NotFound("Mission", missionID)
		}
		return MissionCapacity{}, err
	}

	enrolled, err := ApprovedCount(db.DB, missionID)

	if err != nil {
		return MissionCapacity{}, err
	}

	return capacityFor(mission.CapacityMax, int(enrolled)), nil
}

// GetMissionCapacityBatch computes enrollment figures for a set of missions
// with one grouped count query instead of one query per mission. Missions
// without any approved engagement are included with a zero count. Results are
// identical to calling GetMissionCapacity per mission.
func GetMissionCapacityBatch(missionIDs []uint) (map[uint]MissionCapacity, error) {
	result := make(map[uint]MissionCapacity, len(missionIDs))

	if len(missionIDs) == 0 {
		return result, nil
	}

	var missions []models.Mission

	if err := db.DB.Where("id IN ?", missionIDs).Find(&missions).Error; err != nil {
		return nil, err
	}

	type enrolledRow struct {
		MissionID uint
		Enrolled  int
	}

	var rows []enrolledRow

	err := db.DB.Model(&models.Engagement{}).
		Select("mission_id, COUNT(*) AS enrolled").
		Where("mission_id IN ? AND state = ?", missionIDs, models.EngagementApproved).
		Group("mission_id").
		Scan(&rows).Error

	if err != nil {
		return nil, err
	}

	enrolled := make(map[uint]int, len(rows))

	for _, row := range rows {
		enrolled[row.MissionID] = row.Enrolled
	}

	for _, mission := range missions {
		result[mission.ID] = capacityFor(mission.CapacityMax, enrolled[mission.ID])
	}

	return result, nil
}
