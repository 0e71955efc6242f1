package controllers

import (
	"net/http"

	"salonbot-backend/services"

	"github.com/gin-gonic/gin"
)

type CustomerController struct {
	Operators *services.OperatorService
}

// GetCustomers returns the client directory, most frequent visitors first.
func (cc *CustomerController) GetCustomers(c *gin.Context) {
	customers, err := cc.Operators.Customers(c.Request.Context())
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func (cc *CustomerController) GetCustomer(c *gin.Context) {
	customer, err := cc.Operators.Customer(c.Request.Context(), c.Param("phone"))
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}
