package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/scrapeconsole/models"
	"github.com/use-agent/scrapeconsole/store"
)

const (
	defaultJobsLimit = 20
	maxJobsLimit     = 200
)

// Jobs returns a handler for GET /jobs?limit=N, newest job first.
func Jobs(s store.JobStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultJobsLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, "limit must be a positive integer", err))
				return
			}
			limit = min(n, maxJobsLimit)
		}

		jobs, err := s.Recent(c.Request.Context(), limit)
		if err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInternal, "failed to load job history", err))
			return
		}
		if jobs == nil {
			jobs = []models.JobRecord{}
		}
		c.JSON(http.StatusOK, models.JobsResponse{Jobs: jobs, Total: len(jobs)})
	}
}
