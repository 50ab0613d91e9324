package respond

import (
	"github.com/gin-gonic/gin"

	"invoice-dashboard/internal/shared/telemetry"
)

// ErrorResponse is the error envelope shared by every endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Error logs the failure and aborts the request with an error envelope.
// message is omitted from the body when empty.
func Error(c *gin.Context, status int, errMsg, message string) {
	telemetry.Error("http.error", map[string]any{
		"status":     status,
		"error":      errMsg,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	})

	c.AbortWithStatusJSON(status, ErrorResponse{Error: errMsg, Message: message})
}
