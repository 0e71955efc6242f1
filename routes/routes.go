package routes

import (
	"net/http"
	"time"

	"salonbot-backend/config"
	"salonbot-backend/controllers"
	"salonbot-backend/services"
	"salonbot-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Dependencies are the services the operator API is built on. Reminders may
// be nil.
type Dependencies struct {
	Catalog      *services.Catalog
	Availability *services.Availability
	Operators    *services.OperatorService
	Reminders    *services.ReminderService

	JWTSecret      string
	JWTExpiry      time.Duration
	AllowedOrigins []string
}

func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if len(deps.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     deps.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.Use(config.PerformanceLogger(utils.GetLogger()))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authController := &controllers.AuthController{
		Operators: deps.Operators,
		Secret:    deps.JWTSecret,
		TTL:       deps.JWTExpiry,
	}
	auth := r.Group("/auth")
	{
		auth.POST("/login", authController.Login)
		auth.GET("/me", utils.AuthMiddleware(deps.JWTSecret), authController.Me)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware(deps.JWTSecret))
	{
		serviceController := &controllers.ServiceController{Catalog: deps.Catalog}
		api.GET("/services", serviceController.GetServices)
		api.GET("/services/:key", serviceController.GetService)

		availabilityController := &controllers.AvailabilityController{Availability: deps.Availability}
		availability := api.Group("/availability")
		{
			availability.GET("/dates", availabilityController.GetDates)
			availability.GET("/times", availabilityController.GetTimes)
		}

		dashboardController := &controllers.DashboardController{Operators: deps.Operators}
		api.GET("/dashboard", dashboardController.GetDashboardOverview)
		api.GET("/schedule/today", dashboardController.GetTodaySchedule)
		api.GET("/schedule", dashboardController.GetSchedule)

		reservationController := &controllers.ReservationController{Operators: deps.Operators}
		reservations := api.Group("/reservations")
		{
			reservations.GET("", reservationController.GetReservations)
			reservations.GET("/active", reservationController.GetActiveReservations)
			reservations.GET("/:id", reservationController.GetReservation)
			reservations.POST("/:id/cancel", reservationController.CancelReservation)
		}

		customerController := &controllers.CustomerController{Operators: deps.Operators}
		customers := api.Group("/customers")
		{
			customers.GET("", customerController.GetCustomers)
			customers.GET("/:phone", customerController.GetCustomer)
		}

		reportController := &controllers.ReportController{Operators: deps.Operators}
		api.GET("/reports", reportController.GetReportAnalytics)

		profileController := &controllers.ProfileController{Availability: deps.Availability, Catalog: deps.Catalog}
		api.GET("/profile", profileController.GetProfile)

		reminderController := &controllers.ReminderController{Reminders: deps.Reminders}
		api.POST("/reminders/run", reminderController.RunReminders)
	}

	return r
}
