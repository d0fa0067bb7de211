package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// Root handles the basic liveness check.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "tabnote",
		"version": "0.1.0",
	})
}

// Health reports service liveness and store counts.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime_seconds": int(time.Since(startTime).Seconds()),
		"counts": gin.H{
			"documents":   h.documents.Count(),
			"quotes":      h.quotes.Count(),
			"attachments": h.attachments.Count(),
		},
		"render_sessions": h.renderer.Manager().ActiveCount(),
		"preview_pool":    h.renderer.PoolStats(),
	})
}

// MetricsJSON serves the snapshot counters as JSON, for dashboards
// that do not scrape Prometheus.
func (h *Handlers) MetricsJSON(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, h.metrics.GetSnapshot())
}
