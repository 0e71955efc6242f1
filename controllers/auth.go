package controllers

import (
	"net/http"
	"time"

	"salonbot-backend/services"
	"salonbot-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LoginInput struct {
	Phone string `json:"phone" binding:"required"`
}

// AuthController issues operator tokens. The operator proves identity with
// the shared secret phone number.
type AuthController struct {
	Operators *services.OperatorService
	Secret    string
	TTL       time.Duration
}

func (ac *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	if !ac.Operators.VerifySecret(input.Phone) {
		utils.GetLogger().Warn("operator login rejected", zap.String("ip", c.ClientIP()))
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := utils.GenerateToken(utils.OperatorRole, utils.OperatorRole, ac.Secret, ac.TTL)
	if err != nil {
		utils.GetLogger().Error("failed to generate token", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.SetCookie("token", token, int(ac.TTL.Seconds()), "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresAt": time.Now().Add(ac.TTL).UTC(),
	})
}

func (ac *AuthController) Me(c *gin.Context) {
	subject, _ := c.Get("operator")
	c.JSON(http.StatusOK, gin.H{"role": utils.OperatorRole, "subject": subject})
}
