package controllers

import (
	"net/http"

	"salonbot-backend/services"
	"salonbot-backend/utils"

	"github.com/gin-gonic/gin"
)

// ReminderController lets the master trigger tomorrow's reminders by hand.
// Reminders is nil when SMS delivery is not configured.
type ReminderController struct {
	Reminders *services.ReminderService
}

func (rc *ReminderController) RunReminders(c *gin.Context) {
	if rc.Reminders == nil {
		utils.RespondWithError(c, http.StatusServiceUnavailable, "SMS reminders are not configured")
		return
	}
	sent, err := rc.Reminders.SendDailyReminders(c.Request.Context())
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": sent})
}
