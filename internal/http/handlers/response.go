// Package handlers contains the Gin HTTP handlers for the chat API.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/eokafor/go-pharmacy-backend/internal/http/middleware"
)

// ErrorResponse is the uniform JSON error envelope.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// fail aborts the request with the standard error envelope.
func fail(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.GetString("requestID"),
		Code:      code,
		Message:   message,
	})
}

// logError records a handler-level failure on the request logger.
func logError(c *gin.Context, err error, msg string) {
	middleware.LoggerFrom(c).Error().Err(err).Msg(msg)
}
