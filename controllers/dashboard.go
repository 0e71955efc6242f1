package controllers

import (
	"net/http"
	"strings"

	"salonbot-backend/models"
	"salonbot-backend/services"
	"salonbot-backend/utils"

	"github.com/gin-gonic/gin"
)

const upcomingPreview = 5

type DashboardOverview struct {
	Date           string               `json:"date"`
	TodayBookings  int                  `json:"todayBookings"`
	TodayCancelled int                  `json:"todayCancelled"`
	TodayRevenue   int                  `json:"todayRevenue"`
	UpcomingTotal  int                  `json:"upcomingTotal"`
	TotalCustomers int                  `json:"totalCustomers"`
	NextUp         []models.Reservation `json:"nextUp"`
}

// DashboardController serves the master's day view.
type DashboardController struct {
	Operators *services.OperatorService
}

func (dc *DashboardController) GetDashboardOverview(c *gin.Context) {
	ctx := c.Request.Context()

	today, err := dc.Operators.TodaySchedule(ctx)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	upcoming, err := dc.Operators.UpcomingActive(ctx)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	customers, err := dc.Operators.Customers(ctx)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}

	overview := DashboardOverview{
		Date:           today.Date,
		UpcomingTotal:  len(upcoming),
		TotalCustomers: len(customers),
		NextUp:         upcoming,
	}
	if len(upcoming) > upcomingPreview {
		overview.NextUp = upcoming[:upcomingPreview]
	}
	for _, r := range today.Reservations {
		if r.IsActive() {
			overview.TodayBookings++
			overview.TodayRevenue += r.Price
		} else {
			overview.TodayCancelled++
		}
	}

	c.JSON(http.StatusOK, overview)
}

func (dc *DashboardController) GetTodaySchedule(c *gin.Context) {
	day, err := dc.Operators.TodaySchedule(c.Request.Context())
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

func (dc *DashboardController) GetSchedule(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "date query parameter is required")
		return
	}
	day, err := dc.Operators.Schedule(c.Request.Context(), date)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}
