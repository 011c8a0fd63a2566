package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"pickupwatch/pkg/middleware"
)

var (
	// ErrServiceUnavailable is returned when a route needs a component the
	// process was started without.
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrCheckInProgress    = errors.New("check already in progress")
	ErrCheckThrottled     = errors.New("check throttled")
)

// APIError represents a custom API error structure
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Err     error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("API Error (Code: %d, Message: %s): %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("API Error (Code: %d, Message: %s)", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func NewAPIError(code int, message string, err error) *APIError {
	apiErr := &APIError{Code: code, Message: message, Err: err}
	if err != nil {
		apiErr.Details = err.Error()
	}
	return apiErr
}

// respondError writes the error body and attaches err to the context.
// middleware.ErrorHandler does the logging.
func respondError(c *gin.Context, apiErr *APIError) {
	_ = c.Error(apiErr)
	c.JSON(apiErr.Code, gin.H{
		"error":      true,
		"message":    apiErr.Message,
		"details":    apiErr.Details,
		"request_id": c.GetString(middleware.RequestIDKey),
	})
}
