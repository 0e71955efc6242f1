package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"salonbot-backend/services"
	"salonbot-backend/utils"

	"github.com/gin-gonic/gin"
)

type ReservationController struct {
	Operators *services.OperatorService
}

// GetActiveReservations lists every active reservation, past dates included.
func (rc *ReservationController) GetActiveReservations(c *gin.Context) {
	list, err := rc.Operators.AllActive(c.Request.Context())
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetReservations lists a client's reservations, newest first.
func (rc *ReservationController) GetReservations(c *gin.Context) {
	phone := strings.TrimSpace(c.Query("phone"))
	if phone == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "phone query parameter is required")
		return
	}
	list, err := rc.Operators.ClientReservations(c.Request.Context(), phone)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (rc *ReservationController) GetReservation(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	res, err := rc.Operators.Reservation(c.Request.Context(), id)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (rc *ReservationController) CancelReservation(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}

	res, changed, err := rc.Operators.CancelReservation(c.Request.Context(), id)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reservation": res,
		"changed":     changed,
	})
}

func reservationID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid reservation ID")
		return 0, false
	}
	return uint(id), true
}
