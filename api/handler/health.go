package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/scrapeconsole/logstream"
	"github.com/use-agent/scrapeconsole/models"
)

// Version is reported by GET /health.
const Version = "0.1.0"

// Health returns a handler for GET /health.
func Health(engines []string, extractor string, hub *logstream.Hub, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:      "healthy",
			Uptime:      time.Since(startTime).Round(time.Second).String(),
			Version:     Version,
			Engines:     engines,
			Subscribers: hub.Subscribers(),
			Extractor:   extractor,
		})
	}
}
