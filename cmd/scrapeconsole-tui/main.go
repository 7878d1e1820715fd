package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/use-agent/scrapeconsole/config"
	"github.com/use-agent/scrapeconsole/console"
	"github.com/use-agent/scrapeconsole/tui"
)

func main() {
	configPath := flag.String("config", "", "path to console.toml (default ~/.config/scrapeconsole/console.toml)")
	flag.Parse()

	cfg, err := config.LoadConsole(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// stdout belongs to the terminal UI, so diagnostics go to a file.
	logFile, err := openLogFile(cfg.Log.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: parseLevel(cfg.Log.Level)}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := console.NewClient(cfg.Server.BaseURL, cfg.Server.APIKey)
	downloader := console.NewDownloader(client, cfg.Download.Dir)

	model := tui.New(ctx, console.Form{
		BaseURL:      cfg.Form.BaseURL,
		CSSSelector:  cfg.Form.CSSSelector,
		RequiredKeys: cfg.Form.RequiredKeys,
		MaxPages:     cfg.Form.MaxPages,
	})
	ctrl := console.NewController(console.Options{
		View:        model,
		Scraper:     client,
		Logs:        client,
		Navigator:   downloader,
		DownloadURL: client.URL("/download"),
		Logger:      logger,
	})
	model.Bind(ctrl)
	defer ctrl.Close()

	if err := ctrl.Open(ctx); err != nil {
		model.AppendLog("log stream unavailable: " + err.Error())
	}
	logger.Info("console opened", "server", cfg.Server.BaseURL, "max_pages", ctrl.MaxPages())

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		logger.Error("console exited", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
