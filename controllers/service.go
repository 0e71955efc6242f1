package controllers

import (
	"net/http"

	"salonbot-backend/services"

	"github.com/gin-gonic/gin"
)

type ServiceController struct {
	Catalog *services.Catalog
}

// GetServices lists the catalog in presentation order.
func (sc *ServiceController) GetServices(c *gin.Context) {
	c.JSON(http.StatusOK, sc.Catalog.List())
}

func (sc *ServiceController) GetService(c *gin.Context) {
	service, err := sc.Catalog.Get(c.Param("key"))
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, service)
}
