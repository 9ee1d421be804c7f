package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

func GetMissionID(ctx *gin.Context) (uint, error) {
	missionIDStr := ctx.Param("mission_id")

	if missionIDStr == "" {
		return 0, errors.New("Mission ID not found")
	}

	missionID, err := strconv.ParseUint(missionIDStr, 10, 32)

	if err != nil {
		return 0, errors.New("Invalid Mission ID")
	}

	return uint(missionID), nil
}

func GetVolunteerID(ctx *gin.Context) (uint, error) {
	volunteerIDStr := ctx.Param("volunteer_id")

	if volunteerIDStr == "" {
		return 0, errors.New("Volunteer ID not found")
	}

	volunteerID, err := strconv.ParseUint(volunteerIDStr, 10, 32)

	if err != nil {
		return 0, errors.New("Invalid Volunteer ID")
	}

	return uint(volunteerID), nil
}

func GetMissionVolunteerID(ctx *gin.Context) (uint, uint, error) {
	missionID, err := GetMissionID(ctx)

	if err != nil {
		return 0, 0, err
	}

	volunteerID, err := GetVolunteerID(ctx)

	if err != nil {
		return 0, 0, err
	}

	return missionID, volunteerID, nil
}
