package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/use-agent/scrapeconsole/export"
	"github.com/use-agent/scrapeconsole/models"
)

// Download returns a handler for GET /download. It serves the latest CSV
// export as an attachment.
func Download(exp *export.CSVExporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !exp.Exists() {
			respondError(c, models.NewScrapeError(models.ErrCodeNotFound, "no export available yet, run a scrape first", nil))
			return
		}
		c.FileAttachment(exp.Path(), exp.Filename())
	}
}
