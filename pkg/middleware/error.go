package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pickupwatch/pkg/logger"
)

// ErrorHandler logs the last error attached with c.Error, once per request,
// and turns it into a JSON body when the handler did not write one. Client
// errors log at warn level.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()
		log := logger.Error
		if s := c.Writer.Status(); c.Writer.Written() && s >= http.StatusBadRequest && s < http.StatusInternalServerError {
			log = logger.Warn
		}
		log("request error",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Int("status", c.Writer.Status()),
			zap.Error(err.Err),
			zap.String("request_id", c.GetString(RequestIDKey)))

		if c.Writer.Written() {
			return
		}
		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{
			"error":      true,
			"message":    err.Error(),
			"request_id": c.GetString(RequestIDKey),
		})
	}
}

// Recovery handles panics and recovers gracefully
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.Stack("stack"))

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":      true,
			"message":    "Internal Server Error",
			"request_id": c.GetString(RequestIDKey),
		})
	})
}
