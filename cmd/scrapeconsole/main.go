package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/scrapeconsole/api"
	"github.com/use-agent/scrapeconsole/cache"
	"github.com/use-agent/scrapeconsole/cleaner"
	"github.com/use-agent/scrapeconsole/config"
	"github.com/use-agent/scrapeconsole/engine"
	"github.com/use-agent/scrapeconsole/export"
	"github.com/use-agent/scrapeconsole/llm"
	"github.com/use-agent/scrapeconsole/logstream"
	"github.com/use-agent/scrapeconsole/metrics"
	"github.com/use-agent/scrapeconsole/scraper"
	"github.com/use-agent/scrapeconsole/store"
	"github.com/use-agent/scrapeconsole/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("scrapeconsole starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"engines", cfg.Engine.Engines,
		"browser", cfg.Browser.Enabled,
	)

	// ── 3. Launch the browser (optional) ────────────────────────────
	var rodFetch engine.RodFetchFunc
	names := cfg.Engine.Engines
	if cfg.Browser.Enabled {
		browser, err := scraper.NewBrowser(cfg.Browser)
		if err != nil {
			slog.Error("failed to launch browser", "error", err)
			os.Exit(1)
		}
		defer browser.Close()
		rodFetch = browser.Fetch
		names = append(append([]string(nil), names...), "rod", "rod-stealth")
	}

	// ── 4. Build engines and the racing dispatcher ──────────────────
	engines, err := engine.Build(names, engine.Options{
		UserAgent:        cfg.Engine.UserAgent,
		Timeout:          cfg.Engine.HTTPTimeout,
		RespectRobotsTxt: cfg.Engine.RespectRobotsTxt,
	}, rodFetch)
	if err != nil {
		slog.Error("failed to build engines", "error", err)
		os.Exit(1)
	}
	memory := engine.NewDomainMemory(cfg.Engine.DomainMemoryTTL)
	dispatcher := engine.NewDispatcher(engines, cfg.Engine.EscalationDelays, memory)
	slog.Info("dispatcher ready",
		"engines", dispatcher.Names(),
		"delays", cfg.Engine.EscalationDelays,
	)

	// ── 5. Pick the extractor ───────────────────────────────────────
	var extractor scraper.Extractor = scraper.DOMExtractor{}
	if cfg.LLM.APIKey != "" {
		extractor = &scraper.LLMExtractor{
			Client:  llm.NewClient(nil),
			Cleaner: cleaner.New(),
			Params: llm.Params{
				APIKey:  cfg.LLM.APIKey,
				Model:   cfg.LLM.Model,
				BaseURL: cfg.LLM.BaseURL,
			},
			MaxChars: cfg.LLM.MaxContentChars,
			Timeout:  cfg.LLM.Timeout,
		}
	}
	slog.Info("extractor selected", "extractor", extractor.Name())

	// ── 6. Supporting services ──────────────────────────────────────
	m := metrics.New()
	pageCache := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	hub := logstream.NewHub(logstream.DefaultBuffer)
	defer hub.Close()

	var jobs store.JobStore = store.NewMemoryStore(cfg.Store.HistoryLimit)
	if cfg.Store.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pg, err := store.NewPostgresStore(ctx, cfg.Store.DatabaseURL)
		cancel()
		if err != nil {
			slog.Error("failed to connect job store", "error", err)
			os.Exit(1)
		}
		jobs = pg
	}
	defer jobs.Close()

	var notifier *webhook.Notifier
	if cfg.Webhook.URL != "" {
		notifier = webhook.NewNotifier(cfg.Webhook.URL, cfg.Webhook.Secret)
	}

	sc := scraper.New(scraper.Options{
		Fetcher:      dispatcher,
		Extractor:    extractor,
		Cache:        pageCache,
		Metrics:      m,
		Config:       cfg.Scraper,
		FetchTimeout: cfg.Engine.HTTPTimeout,
	})

	// ── 7. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(api.Deps{
		Runner:    sc,
		Hub:       hub,
		Exporter:  export.NewCSVExporter(cfg.Export.CSVPath),
		Store:     jobs,
		Notifier:  notifier,
		Metrics:   m,
		Engines:   dispatcher.Names(),
		Extractor: sc.ExtractorName(),
		StartTime: time.Now(),
	}, cfg)

	// ── 8. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewHandler(router, cfg.Server.CORSOrigins),
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 9. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Open log streams never finish on their own.
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("scrapeconsole stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
