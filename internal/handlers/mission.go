package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/together-dev/together/db"
	"github.com/together-dev/together/internal/models"
	"github.com/together-dev/together/internal/services"
	"github.com/together-dev/together/internal/utils"
	"gorm.io/gorm"
)

type MissionSummary struct {
	ID                 uint      `json:"id"`
	AssociationID      uint      `json:"association_id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Skills             string    `json:"skills"`
	DateStart          time.Time `json:"date_start"`
	DateEnd            time.Time `json:"date_end"`
	CapacityMin        int       `json:"capacity_min"`
	CapacityMax        int       `json:"capacity_max"`
	VolunteersEnrolled int       `json:"volunteers_enrolled"`
	AvailableSlots     int       `json:"available_slots"`
	IsFull             bool      `json:"is_full"`
}

func missionSummary(mission models.Mission, capacity services.MissionCapacity) MissionSummary {
	return MissionSummary{
		ID:                 mission.ID,
		AssociationID:      mission.AssociationID,
		Name:               mission.Name,
		Description:        mission.Description,
		Skills:             mission.Skills,
		DateStart:          mission.DateStart,
		DateEnd:            mission.DateEnd,
		CapacityMin:        mission.CapacityMin,
		CapacityMax:        mission.CapacityMax,
		VolunteersEnrolled: capacity.EnrolledCount,
		AvailableSlots:     capacity.AvailableSlots,
		IsFull:             capacity.IsFull,
	}
}

func GetMission(ctx *gin.Context) {
	missionID, err := utils.GetMissionID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var mission models.Mission

	if err := db.DB.First(&mission, missionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Mission not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve mission"})
		}
		return
	}

	capacity, err := services.GetMissionCapacity(mission.ID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, missionSummary(mission, capacity))
}

// SearchMissions lists missions with their enrollment figures. Capacity for
// the whole page is computed with one grouped query, not one per mission.
// Pass show_full=false to hide missions already at capacity.
func SearchMissions(ctx *gin.Context) {
	query := db.DB.Order("date_start")

	if name := ctx.Query("name"); name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}

	if associationIDStr := ctx.Query("association_id"); associationIDStr != "" {
		query = query.Where("association_id = ?", associationIDStr)
	}

	var missions []models.Mission

	if err := query.Find(&missions).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve missions"})
		return
	}

	missionIDs := make([]uint, 0, len(missions))
	for _, mission := range missions {
		missionIDs = append(missionIDs, mission.ID)
	}

	capacities, err := services.GetMissionCapacityBatch(missionIDs)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute mission capacity"})
		return
	}

	showFull := ctx.DefaultQuery("show_full", "true") != "false"

	summaries := make([]MissionSummary, 0, len(missions))

	for _, mission := range missions {
		capacity := capacities[mission.ID]

		if !showFull && capacity.IsFull {
			continue
		}

		summaries = append(summaries, missionSummary(mission, capacity))
	}

	ctx.JSON(http.StatusOK, summaries)
}

type CreateMissionRequest struct {
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description" binding:"required"`
	Skills      string    `json:"skills"`
	DateStart   time.Time `json:"date_start" binding:"required"`
	DateEnd     time.Time `json:"date_end" binding:"required"`
	CapacityMin int       `json:"capacity_min" binding:"min=0"`
	CapacityMax int       `json:"capacity_max" binding:"required,min=1"`
}

func CreateMission(ctx *gin.Context) {
	association, ok := currentAssociation(ctx)

	if !ok {
		return
	}

	var req CreateMissionRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.CapacityMin > req.CapacityMax {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "capacity_min cannot exceed capacity_max"})
		return
	}

	mission := models.Mission{
		AssociationID: association.ID,
		Name:          req.Name,
		Description:   req.Description,
		Skills:        req.Skills,
		DateStart:     req.DateStart,
		DateEnd:       req.DateEnd,
		CapacityMin:   req.CapacityMin,
		CapacityMax:   req.CapacityMax,
	}

	if err := db.DB.Create(&mission).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create mission"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Mission created successfully", "mission_id": mission.ID})
}
