package controllers

import (
	"errors"
	"net/http"

	"salonbot-backend/repository"
	"salonbot-backend/services"
	"salonbot-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondWithServiceError maps domain errors onto HTTP statuses.
func respondWithServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrInvalidPhoneFormat):
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
	case errors.Is(err, utils.ErrInvalidDate):
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD or DD.MM.YYYY")
	case errors.Is(err, services.ErrDateNotOffered):
		utils.RespondWithError(c, http.StatusBadRequest, "Date is not open for booking")
	case errors.Is(err, services.ErrNoSlotsAvailable):
		utils.RespondWithError(c, http.StatusConflict, "No slots available on this date")
	case errors.Is(err, services.ErrUnknownService):
		utils.RespondWithError(c, http.StatusNotFound, "Service not found")
	case errors.Is(err, repository.ErrNotFound):
		utils.RespondWithError(c, http.StatusNotFound, "Not found")
	default:
		utils.GetLogger().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}
