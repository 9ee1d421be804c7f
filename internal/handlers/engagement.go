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

type RejectEngagementRequest struct {
	Reason *string `json:"reason"`
}

type ApplyRequest struct {
	Message string `json:"message" binding:"max=1000"`
}

type EngagementSummary struct {
	VolunteerID     uint      `json:"volunteer_id"`
	MissionID       uint      `json:"mission_id"`
	VolunteerName   string    `json:"volunteer_name"`
	State           string    `json:"state"`
	Message         string    `json:"message"`
	RejectionReason *string   `json:"rejection_reason"`
	ApplicationDate time.Time `json:"application_date"`
}

func engagementSummary(engagement models.Engagement) EngagementSummary {
	return EngagementSummary{
		VolunteerID:     engagement.VolunteerID,
		MissionID:       engagement.MissionID,
		VolunteerName:   engagement.Volunteer.FullName(),
		State:           engagement.State,
		Message:         engagement.Message,
		RejectionReason: engagement.RejectionReason,
		ApplicationDate: engagement.ApplicationDate,
	}
}

// ApproveEngagement approves a volunteer's pending application to one of the
// calling association's missions.
func ApproveEngagement(ctx *gin.Context) {
	association, ok := currentAssociation(ctx)

	if !ok {
		return
	}

	missionID, volunteerID, err := utils.GetMissionVolunteerID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	engagement, err := services.ApproveApplication(association.ID, volunteerID, missionID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, EngagementSummary{
		VolunteerID:     engagement.VolunteerID,
		MissionID:       engagement.MissionID,
		State:           engagement.State,
		Message:         engagement.Message,
		RejectionReason: engagement.RejectionReason,
		ApplicationDate: engagement.ApplicationDate,
	})
}

func RejectEngagement(ctx *gin.Context) {
	association, ok := currentAssociation(ctx)

	if !ok {
		return
	}

	missionID, volunteerID, err := utils.GetMissionVolunteerID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Body is optional: rejection without a reason is allowed.
	var req RejectEngagementRequest

	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	engagement, err := services.RejectApplication(association.ID, volunteerID, missionID, req.Reason)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, EngagementSummary{
		VolunteerID:     engagement.VolunteerID,
		MissionID:       engagement.MissionID,
		State:           engagement.State,
		Message:         engagement.Message,
		RejectionReason: engagement.RejectionReason,
		ApplicationDate: engagement.ApplicationDate,
	})
}

// ListMissionEngagements lists applications for one of the calling
// association's missions, newest first, optionally filtered by state.
func ListMissionEngagements(ctx *gin.Context) {
	association, ok := currentAssociation(ctx)

	if !ok {
		return
	}

	missionID, err := utils.GetMissionID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var mission models.Mission

	if err := db.DB.Where("id = ? AND association_id = ?", missionID, association.ID).First(&mission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Mission not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve mission"})
		}
		return
	}

	engagements, err := services.ListEngagements(missionID, ctx.Query("status"))

	if err != nil {
		respondError(ctx, err)
		return
	}

	summaries := make([]EngagementSummary, 0, len(engagements))

	for _, engagement := range engagements {
		summaries = append(summaries, engagementSummary(engagement))
	}

	ctx.JSON(http.StatusOK, summaries)
}

// ApplyToMission creates a pending application for the calling volunteer.
func ApplyToMission(ctx *gin.Context) {
	volunteer, ok := currentVolunteer(ctx)

	if !ok {
		return
	}

	missionID, err := utils.GetMissionID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req ApplyRequest

	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if _, err := services.ApplyToMission(volunteer.ID, missionID, req.Message); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Application submitted"})
}

// WithdrawApplication withdraws the calling volunteer's pending application.
func WithdrawApplication(ctx *gin.Context) {
	volunteer, ok := currentVolunteer(ctx)

	if !ok {
		return
	}

	missionID, err := utils.GetMissionID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := services.WithdrawApplication(volunteer.ID, missionID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
