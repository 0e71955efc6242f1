package controllers

import (
	"net/http"
	"sort"
	"time"

	"salonbot-backend/config"
	"salonbot-backend/models"
	"salonbot-backend/services"

	"github.com/gin-gonic/gin"
)

// SalonProfile is the read-only view of how the salon takes bookings.
type SalonProfile struct {
	Timezone       string           `json:"timezone"`
	WindowDays     int              `json:"windowDays"`
	DailyCapacity  int              `json:"dailyCapacity"`
	ClosedWeekdays []string         `json:"closedWeekdays"`
	SlotTimes      []string         `json:"slotTimes"`
	Services       []models.Service `json:"services"`
}

type ProfileController struct {
	Availability *services.Availability
	Catalog      *services.Catalog
}

func (pc *ProfileController) GetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, newSalonProfile(pc.Availability.Rules(), pc.Catalog.List()))
}

func newSalonProfile(rules config.BookingRules, catalog []models.Service) SalonProfile {
	closed := make([]time.Weekday, 0, len(rules.ClosedWeekdays))
	for day, isClosed := range rules.ClosedWeekdays {
		if isClosed {
			closed = append(closed, day)
		}
	}
	sort.Slice(closed, func(i, j int) bool { return closed[i] < closed[j] })

	names := make([]string, 0, len(closed))
	for _, day := range closed {
		names = append(names, day.String())
	}
	return SalonProfile{
		Timezone:       rules.Location.String(),
		WindowDays:     rules.WindowDays,
		DailyCapacity:  rules.DailyCapacity,
		ClosedWeekdays: names,
		SlotTimes:      rules.SlotTimes,
		Services:       catalog,
	}
}
