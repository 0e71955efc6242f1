// controllers/report.go
package controllers

import (
	"net/http"
	"sort"
	"time"

	"salonbot-backend/models"
	"salonbot-backend/services"
	"salonbot-backend/utils"

	"github.com/gin-gonic/gin"
)

const topLimit = 5

// ReportController summarizes bookings over a date range.
type ReportController struct {
	Operators *services.OperatorService
}

type ReportSummary struct {
	From         string            `json:"from"`
	To           string            `json:"to"`
	Bookings     int               `json:"bookings"`
	Revenue      int               `json:"revenue"`
	AvgCheck     float64           `json:"avgCheck"`
	TopServices  []ServiceSummary  `json:"topServices"`
	TopCustomers []CustomerSummary `json:"topCustomers"`
}

type ServiceSummary struct {
	Name    string `json:"name"`
	Count   int    `json:"count"`
	Revenue int    `json:"revenue"`
}

type CustomerSummary struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Visits int    `json:"visits"`
	Spent  int    `json:"spent"`
}

// GetReportAnalytics covers active reservations dated within [from, to].
// Both bounds default to the current month.
func (rc *ReportController) GetReportAnalytics(c *gin.Context) {
	loc := rc.Operators.Location()
	now := time.Now().In(loc)
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 1, -1)

	var err error
	if v := c.Query("from"); v != "" {
		if from, err = utils.ParseDate(v, loc); err != nil {
			respondWithServiceError(c, err)
			return
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = utils.ParseDate(v, loc); err != nil {
			respondWithServiceError(c, err)
			return
		}
	}
	if to.Before(from) {
		utils.RespondWithError(c, http.StatusBadRequest, "from must not be after to")
		return
	}

	ctx := c.Request.Context()
	active, err := rc.Operators.AllActive(ctx)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	customers, err := rc.Operators.Customers(ctx)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, buildReport(active, customers, utils.FormatDate(from), utils.FormatDate(to)))
}

func buildReport(active []models.Reservation, customers []models.Customer, from, to string) ReportSummary {
	report := ReportSummary{From: from, To: to, TopServices: []ServiceSummary{}, TopCustomers: []CustomerSummary{}}

	byService := make(map[string]*ServiceSummary)
	for _, r := range active {
		if r.Date < from || r.Date > to {
			continue
		}
		report.Bookings++
		report.Revenue += r.Price
		s, ok := byService[r.ServiceName]
		if !ok {
			s = &ServiceSummary{Name: r.ServiceName}
			byService[r.ServiceName] = s
		}
		s.Count++
		s.Revenue += r.Price
	}
	if report.Bookings > 0 {
		report.AvgCheck = float64(report.Revenue) / float64(report.Bookings)
	}

	for _, s := range byService {
		report.TopServices = append(report.TopServices, *s)
	}
	sort.Slice(report.TopServices, func(i, j int) bool {
		a, b := report.TopServices[i], report.TopServices[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})
	if len(report.TopServices) > topLimit {
		report.TopServices = report.TopServices[:topLimit]
	}

	// customers arrive sorted by visits
	for _, cust := range customers {
		if len(report.TopCustomers) == topLimit {
			break
		}
		report.TopCustomers = append(report.TopCustomers, CustomerSummary{
			Name:   cust.Name,
			Phone:  cust.Phone,
			Visits: cust.TotalVisits,
			Spent:  cust.TotalSpent,
		})
	}
	return report
}
