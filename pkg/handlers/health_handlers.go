package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pickupwatch/pkg/apple"
)

// HealthCheck reports liveness. It never calls the pickup endpoint.
// @Summary Health check
// @Tags Health Check
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *HandlerService) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"uptime":    time.Since(h.started).Round(time.Second).String(),
	})
}

// GetStatus returns the watched selection, run counters, the last outcome
// and the job schedule.
// @Summary Watch status
// @Description Returns the watched selection, run counters, the last outcome and the job schedule
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /status [get]
func (h *HandlerService) GetStatus(c *gin.Context) {
	snap := h.status.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"service":   "pickupwatch",
		"selection": h.selection,
		"runs":      snap.Runs,
		"found":     snap.Found,
		"failures":  snap.Failures,
		"running":   snap.Running,
		"since":     snap.Since,
		"last":      snap.Last,
		"jobs":      h.scheduledJobs(),
	})
}

// GetHistory returns the most recent outcomes, newest last.
// @Summary Recent check outcomes
// @Tags Checks
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/history [get]
func (h *HandlerService) GetHistory(c *gin.Context) {
	snap := h.status.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"history": snap.History,
		"count":   len(snap.History),
	})
}

// GetAppConfig returns the configuration with credentials masked.
// @Summary Get configuration
// @Description Returns the loaded configuration with credentials and phone numbers masked
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/config [get]
func (h *HandlerService) GetAppConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.sanitizeConfig())
}

// GetCatalog lists every known part code and carrier.
// @Summary List known part codes and carriers
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/catalog [get]
func (h *HandlerService) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"parts":    apple.Catalog(),
		"carriers": apple.Carriers(),
	})
}
