package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/together-dev/together/db"
	"github.com/together-dev/together/internal/models"
	"github.com/together-dev/together/internal/utils"
	"gorm.io/gorm"
)

// currentVolunteer resolves the calling user's volunteer profile. Responds
// with the appropriate status and returns false when it cannot.
func currentVolunteer(ctx *gin.Context) (models.Volunteer, bool) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return models.Volunteer{}, false
	}

	var volunteer models.Volunteer

	if err := db.DB.Where("user_id = ?", userID).First(&volunteer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Volunteer profile not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve volunteer profile"})
		}
		return models.Volunteer{}, false
	}

	return volunteer, true
}

// currentAssociation resolves the calling user's association profile.
func currentAssociation(ctx *gin.Context) (models.Association, bool) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return models.Association{}, false
	}

	var association models.Association

	if err := db.DB.Where("user_id = ?", userID).First(&association).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Association profile not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve association profile"})
		}
		return models.Association{}, false
	}

	return association, true
}
