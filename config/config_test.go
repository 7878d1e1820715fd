package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"SCRAPER_PORT", "SCRAPER_ENGINES", "SCRAPER_CSV_PATH", "LLM_API_KEY", "GROQ_API_KEY", "DATABASE_URL", "CACHE_MAX_ENTRIES", "SCRAPER_REPEAT_CHECK"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	if cfg.Server.Port != 5000 {
		t.Errorf("port: got %d, want 5000", cfg.Server.Port)
	}
	if !reflect.DeepEqual(cfg.Engine.Engines, []string{"http", "colly"}) {
		t.Errorf("engines: got %v", cfg.Engine.Engines)
	}
	if cfg.Export.CSVPath != "complete_venues.csv" {
		t.Errorf("csv path: got %q", cfg.Export.CSVPath)
	}
	if cfg.Scraper.NoResultsMarker != "No Results Found" {
		t.Errorf("marker: got %q", cfg.Scraper.NoResultsMarker)
	}
	if cfg.LLM.APIKey != "" {
		t.Errorf("llm key: got %q, want empty", cfg.LLM.APIKey)
	}
	if cfg.Store.DatabaseURL != "" {
		t.Errorf("database url: got %q, want empty", cfg.Store.DatabaseURL)
	}
	if cfg.Cache.MaxEntries != 0 {
		t.Errorf("cache entries: got %d, want 0 (disabled)", cfg.Cache.MaxEntries)
	}
	if !cfg.Scraper.RepeatCheck {
		t.Error("repeat check should default to on")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SCRAPER_PORT", "9090")
	t.Setenv("SCRAPER_ENGINES", "http, ,colly,rod")
	t.Setenv("SCRAPER_PAGE_DELAY", "1500ms")
	t.Setenv("SCRAPER_ESCALATION_DELAYS", "0s,1s,bogus")
	t.Setenv("SCRAPER_RATE_RPS", "0.5")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("SCRAPER_AUTH_ENABLED", "notabool")

	cfg := Load()

	if cfg.Server.Port != 9090 {
		t.Errorf("port: got %d, want 9090", cfg.Server.Port)
	}
	if !reflect.DeepEqual(cfg.Engine.Engines, []string{"http", "colly", "rod"}) {
		t.Errorf("engines: got %v", cfg.Engine.Engines)
	}
	if cfg.Scraper.PageDelay != 1500*time.Millisecond {
		t.Errorf("page delay: got %v", cfg.Scraper.PageDelay)
	}
	if !reflect.DeepEqual(cfg.Engine.EscalationDelays, []time.Duration{0, time.Second}) {
		t.Errorf("delays: got %v", cfg.Engine.EscalationDelays)
	}
	if cfg.RateLimit.RequestsPerSecond != 0.5 {
		t.Errorf("rps: got %v", cfg.RateLimit.RequestsPerSecond)
	}
	if cfg.LLM.APIKey != "gsk-test" {
		t.Errorf("llm key fallback: got %q", cfg.LLM.APIKey)
	}
	if cfg.Auth.Enabled {
		t.Error("invalid bool should keep the default")
	}
}

func TestLoadConsoleCreatesDefaults(t *testing.T) {
	t.Setenv("SCRAPECONSOLE_URL", "")
	t.Setenv("SCRAPECONSOLE_API_KEY", "")
	path := filepath.Join(t.TempDir(), "nested", "console.toml")

	cfg, err := LoadConsole(path)
	if err != nil {
		t.Fatalf("LoadConsole: %v", err)
	}
	if cfg.Server.BaseURL != "http://localhost:5000" {
		t.Errorf("base url: got %q", cfg.Server.BaseURL)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
}

func TestLoadConsoleMergesAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.toml")
	body := "[server]\napi_key = \"k1\"\n\n[form]\ncss_selector = \"div.card\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SCRAPECONSOLE_URL", "http://scraper.internal:8000")
	t.Setenv("SCRAPECONSOLE_API_KEY", "")

	cfg, err := LoadConsole(path)
	if err != nil {
		t.Fatalf("LoadConsole: %v", err)
	}
	if cfg.Server.BaseURL != "http://scraper.internal:8000" {
		t.Errorf("base url override: got %q", cfg.Server.BaseURL)
	}
	if cfg.Server.APIKey != "k1" {
		t.Errorf("api key: got %q, want k1", cfg.Server.APIKey)
	}
	if cfg.Form.CSSSelector != "div.card" {
		t.Errorf("selector: got %q", cfg.Form.CSSSelector)
	}
	if cfg.Form.MaxPages != "10" {
		t.Errorf("max pages default: got %q", cfg.Form.MaxPages)
	}
}
