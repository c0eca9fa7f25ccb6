package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sectionscope/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// BrowserStats reports the shared browser's session usage.
type BrowserStats interface {
	Stats() models.BrowserStats
}

// Health returns a handler for GET /healthz.
//
// It never touches the pipeline. Status degrades when more than 80% of
// browser sessions are in use. browser may be nil when rendering is
// disabled.
func Health(browser BrowserStats, storeName string, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		var stats models.BrowserStats
		if browser != nil {
			stats = browser.Stats()
		}

		status := "healthy"
		if stats.MaxSessions > 0 && stats.ActiveSessions > int(float64(stats.MaxSessions)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       status,
			Uptime:       time.Since(startTime).Round(time.Second).String(),
			BrowserStats: stats,
			Store:        storeName,
			Version:      Version,
		})
	}
}
