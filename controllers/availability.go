package controllers

import (
	"net/http"
	"strings"

	"salonbot-backend/services"
	"salonbot-backend/utils"

	"github.com/gin-gonic/gin"
)

type AvailabilityController struct {
	Availability *services.Availability
}

func (ac *AvailabilityController) GetDates(c *gin.Context) {
	dates, err := ac.Availability.OfferedDates(c.Request.Context())
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"dates": dates})
}

// GetTimes answers 409 when the date is offered but every exact time is held.
func (ac *AvailabilityController) GetTimes(c *gin.Context) {
	input := strings.TrimSpace(c.Query("date"))
	if input == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "date query parameter is required")
		return
	}

	ctx := c.Request.Context()
	date, err := ac.Availability.CheckDate(ctx, input)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	times, err := ac.Availability.OfferedTimes(ctx, date)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "times": times})
}
