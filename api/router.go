package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/use-agent/scrapeconsole/api/handler"
	"github.com/use-agent/scrapeconsole/api/middleware"
	"github.com/use-agent/scrapeconsole/config"
	"github.com/use-agent/scrapeconsole/export"
	"github.com/use-agent/scrapeconsole/logstream"
	"github.com/use-agent/scrapeconsole/metrics"
	"github.com/use-agent/scrapeconsole/store"
	"github.com/use-agent/scrapeconsole/webhook"
)

// Deps are the services the routes are built from. Metrics and Notifier
// may be nil.
type Deps struct {
	Runner    handler.Runner
	Hub       *logstream.Hub
	Exporter  *export.CSVExporter
	Store     store.JobStore
	Notifier  *webhook.Notifier
	Metrics   *metrics.Metrics
	Engines   []string
	Extractor string
	StartTime time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// /health and /metrics stay outside auth so probes and scrapers always work.
func NewRouter(d Deps, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/health", handler.Health(d.Engines, d.Extractor, d.Hub, d.StartTime))
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	protected := r.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}

	// The log stream is long-lived and the download is a plain file, so
	// only job-starting and listing routes are rate limited.
	limited := protected.Group("")
	limited.Use(middleware.RateLimit(cfg.RateLimit))

	limited.POST("/scrape", handler.Scrape(handler.ScrapeDeps{
		Runner:        d.Runner,
		Hub:           d.Hub,
		Exporter:      d.Exporter,
		Store:         d.Store,
		Notifier:      d.Notifier,
		Metrics:       d.Metrics,
		MaxPagesLimit: cfg.Scraper.MaxPagesLimit,
	}))
	limited.GET("/jobs", handler.Jobs(d.Store))

	protected.GET("/log-stream", handler.LogStream(d.Hub, d.Metrics))
	protected.GET("/download", handler.Download(d.Exporter))

	return r
}

// NewHandler wraps the router in CORS handling when origins are configured,
// so a browser page on another origin can use the API.
func NewHandler(r *gin.Engine, origins []string) http.Handler {
	if len(origins) == 0 {
		return r
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-API-Key"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
	}).Handler(r)
}
