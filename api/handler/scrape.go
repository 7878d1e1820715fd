package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/use-agent/scrapeconsole/export"
	"github.com/use-agent/scrapeconsole/logstream"
	"github.com/use-agent/scrapeconsole/metrics"
	"github.com/use-agent/scrapeconsole/models"
	"github.com/use-agent/scrapeconsole/scraper"
	"github.com/use-agent/scrapeconsole/store"
	"github.com/use-agent/scrapeconsole/webhook"
)

// scrapeFailedMessage is the fixed message of a failed job. The cause goes
// into the error details.
const scrapeFailedMessage = "An error occurred during scraping"

// Runner runs one scrape job.
type Runner interface {
	Run(ctx context.Context, req *models.ScrapeRequest, logf scraper.LogFunc) (*scraper.Result, error)
}

// ScrapeDeps are the collaborators of POST /scrape. Store, Notifier and
// Metrics are optional.
type ScrapeDeps struct {
	Runner        Runner
	Hub           *logstream.Hub
	Exporter      *export.CSVExporter
	Store         store.JobStore
	Notifier      *webhook.Notifier
	Metrics       *metrics.Metrics
	MaxPagesLimit int
}

// Scrape returns a handler for POST /scrape.
//
// The job runs synchronously in the request. Its progress lines reach
// GET /log-stream subscribers through the hub, and complete venues are
// written to the CSV export before the JSON array is returned.
func Scrape(d ScrapeDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid request body", err))
			return
		}
		req.Normalize()
		req.Defaults(d.MaxPagesLimit)
		if err := req.Validate(); err != nil {
			respondError(c, err)
			return
		}

		job := models.JobRecord{
			ID:           uuid.NewString(),
			BaseURL:      req.BaseURL,
			CSSSelector:  req.CSSSelector,
			RequiredKeys: req.RequiredKeys,
			MaxPages:     int(req.MaxPages),
			StartedAt:    time.Now().UTC(),
		}
		d.Hub.Logf("[START] Scraping started for URL: %s (up to %d pages)", req.BaseURL, req.MaxPages)

		result, err := d.Runner.Run(c.Request.Context(), &req, d.Hub.Logf)
		if err == nil && len(result.Records) > 0 {
			if werr := d.Exporter.Write(req.RequiredKeys, result.Records); werr != nil {
				err = models.NewScrapeError(models.ErrCodeExportFailed, "failed to write CSV export", werr)
			} else {
				d.Hub.Logf("[SAVE] Saved %d venues to %s", len(result.Records), d.Exporter.Filename())
			}
		}
		if result != nil {
			job.Pages = result.Pages
			job.Records = len(result.Records)
		}
		job.FinishedAt = time.Now().UTC()

		if err != nil {
			d.Hub.Logf("[ERROR] Scraping failed: %v", err)
			job.Status = models.JobStatusFailed
			job.Error = err.Error()
			d.finish(job, webhook.EventScrapeFailed)

			se := models.AsScrapeError(err, models.ErrCodeScrapeFailed)
			if se.Code == models.ErrCodeInvalidInput {
				respondError(c, se)
				return
			}
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: &models.ErrorDetail{
				Code:    models.ErrCodeScrapeFailed,
				Message: scrapeFailedMessage,
				Details: err.Error(),
			}})
			return
		}

		job.Status = models.JobStatusCompleted
		d.finish(job, webhook.EventScrapeCompleted)
		if result.Records == nil {
			result.Records = []models.Record{}
		}
		c.JSON(http.StatusOK, result.Records)
	}
}

// finish records a finished job in the store, the metrics and the webhook.
// The request context is not used so a disconnecting client cannot lose
// the history entry.
func (d ScrapeDeps) finish(job models.JobRecord, event string) {
	d.Metrics.ObserveJob(job.Status, job.Duration())

	if d.Store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.Store.Save(ctx, job); err != nil {
			slog.Error("failed to save job", "job_id", job.ID, "error", err)
		}
	}

	d.Notifier.Notify(webhook.NewEvent(event, job.ID, job))
}
