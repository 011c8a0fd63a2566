package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pickupwatch/pkg/logger"
	"pickupwatch/pkg/middleware"
	"pickupwatch/pkg/tasks"
)

// GetScheduledJobs lists the watch jobs with their next run times.
// @Summary List scheduled jobs
// @Tags Scheduler
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/jobs [get]
func (h *HandlerService) GetScheduledJobs(c *gin.Context) {
	jobs := h.scheduledJobs()
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// TriggerCheck runs one availability check on demand and returns its
// outcome. A second request while one is running gets 409.
// @Summary Run a check now
// @Description Runs one availability check outside the schedule and notifies on a find
// @Tags Checks
// @Produce json
// @Success 200 {object} tasks.Outcome
// @Failure 409 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/check [post]
func (h *HandlerService) TriggerCheck(c *gin.Context) {
	if h.runner == nil {
		respondError(c, NewAPIError(http.StatusServiceUnavailable, "manual checks are disabled", ErrServiceUnavailable))
		return
	}
	if !h.checking.CompareAndSwap(false, true) {
		respondError(c, NewAPIError(http.StatusConflict, "a manual check is already running", ErrCheckInProgress))
		return
	}
	defer h.checking.Store(false)

	if !h.limiter.Allow() {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(h.every.Seconds()))))
		respondError(c, NewAPIError(http.StatusTooManyRequests, "manual checks are throttled", ErrCheckThrottled))
		return
	}

	logger.Info("Manual check requested", zap.String("request_id", c.GetString(middleware.RequestIDKey)))

	outcome, err := h.runner.Run(c.Request.Context())
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, tasks.ErrCheckFailed) {
			code = http.StatusBadGateway
		}
		apiErr := NewAPIError(code, "check failed", err)
		_ = c.Error(apiErr)
		c.JSON(code, gin.H{
			"error":   true,
			"message": apiErr.Message,
			"details": apiErr.Details,
			"outcome": outcome,
		})
		return
	}
	c.JSON(http.StatusOK, outcome)
}
