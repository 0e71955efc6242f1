package utils

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondWithError aborts the request with a JSON error body.
func RespondWithError(c *gin.Context, status int, message string) {
	if status >= 500 {
		GetLogger().Warn(message, zap.String("path", c.Request.URL.Path), zap.Int("status", status))
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
}
