package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all server configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Engine    EngineConfig
	Scraper   ScraperConfig
	LLM       LLMConfig
	Export    ExportConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Webhook   WebhookConfig
	Store     StoreConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 5000
	Mode string // "debug", "release", "test"; default: "release"

	// CORSOrigins lists browser origins allowed to call the API.
	// Empty disables the CORS wrapper.
	CORSOrigins []string
}

// BrowserConfig controls the optional Rod browser engine.
type BrowserConfig struct {
	// Enabled launches Chromium at startup and adds the rod engines.
	Enabled bool // default: false

	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 4

	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool

	BrowserBin string

	// NavigationTimeout bounds page.Navigate plus the DOM-stable wait.
	NavigationTimeout time.Duration // default: 20s

	// BlockedResourceTypes lists resource types the browser never loads.
	BlockedResourceTypes []string // default: Image, Font, Media
}

// EngineConfig controls the fetch engines and the racing dispatcher.
type EngineConfig struct {
	// Engines lists the non-browser engines in escalation order.
	Engines []string // default: ["http", "colly"]

	// EscalationDelays is the staged start delay for each engine tier.
	EscalationDelays []time.Duration // default: [0s, 2s, 5s, 8s]

	// HTTPTimeout bounds a single page fetch.
	HTTPTimeout time.Duration // default: 15s

	// RespectRobotsTxt makes the colly engine honour robots.txt.
	RespectRobotsTxt bool // default: false

	UserAgent string

	// DomainMemoryTTL is how long a winning engine is remembered per host.
	DomainMemoryTTL time.Duration // default: 24h
}

// ScraperConfig controls the pagination job.
type ScraperConfig struct {
	// MaxPagesLimit caps max_pages from clients. 0 disables the cap.
	MaxPagesLimit int // default: 50

	// PageDelay is the minimum gap between two page loads of one job.
	PageDelay time.Duration // default: 0

	// NoResultsMarker ends pagination when it appears in the page text.
	NoResultsMarker string // default: "No Results Found"

	// RepeatCheck stops a job when a page has exactly the same selected
	// text as the page before it.
	RepeatCheck bool // default: true

	// DedupKey names the field used to drop duplicate venues. When the
	// key is not among the required keys, the first required key is used.
	DedupKey string // default: "name"
}

// LLMConfig controls LLM-backed field extraction. Without an API key the
// job falls back to the DOM extractor.
type LLMConfig struct {
	APIKey  string
	Model   string // default: "llama-3.3-70b-versatile"
	BaseURL string // default: "https://api.groq.com/openai/v1"

	// MaxContentChars truncates the markdown sent per page.
	MaxContentChars int // default: 24000

	Timeout time.Duration // default: 60s
}

// ExportConfig controls the CSV export served by GET /download.
type ExportConfig struct {
	CSVPath string // default: "complete_venues.csv"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	Enabled bool // default: false
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 // default: 2
	Burst             int     // default: 5
}

// CacheConfig controls the fetched page cache.
type CacheConfig struct {
	MaxEntries int           // default: 0 (disabled)
	TTL        time.Duration // default: 10m
}

// WebhookConfig controls job completion notifications.
type WebhookConfig struct {
	URL    string
	Secret string
}

// StoreConfig controls job history persistence.
type StoreConfig struct {
	// DatabaseURL selects the Postgres store. Empty keeps history in memory.
	DatabaseURL string

	// HistoryLimit caps the in-memory history.
	HistoryLimit int // default: 200
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        envOr("SCRAPER_HOST", "0.0.0.0"),
			Port:        envIntOr("SCRAPER_PORT", 5000),
			Mode:        envOr("SCRAPER_MODE", "release"),
			CORSOrigins: envSliceOr("SCRAPER_CORS_ORIGINS", nil),
		},
		Browser: BrowserConfig{
			Enabled:           envBoolOr("SCRAPER_BROWSER", false),
			Headless:          envBoolOr("SCRAPER_HEADLESS", true),
			MaxPages:          envIntOr("SCRAPER_BROWSER_PAGES", 4),
			DefaultProxy:      os.Getenv("SCRAPER_PROXY"),
			NoSandbox:         envBoolOr("SCRAPER_NO_SANDBOX", false),
			BrowserBin:        os.Getenv("SCRAPER_BROWSER_BIN"),
			NavigationTimeout: envDurationOr("SCRAPER_NAV_TIMEOUT", 20*time.Second),
			BlockedResourceTypes: envSliceOr("SCRAPER_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
		},
		Engine: EngineConfig{
			Engines:          envSliceOr("SCRAPER_ENGINES", []string{"http", "colly"}),
			EscalationDelays: envDurationSliceOr("SCRAPER_ESCALATION_DELAYS", []time.Duration{0, 2 * time.Second, 5 * time.Second, 8 * time.Second}),
			HTTPTimeout:      envDurationOr("SCRAPER_HTTP_TIMEOUT", 15*time.Second),
			RespectRobotsTxt: envBoolOr("SCRAPER_RESPECT_ROBOTS", false),
			UserAgent:        envOr("SCRAPER_USER_AGENT", DefaultUserAgent),
			DomainMemoryTTL:  envDurationOr("SCRAPER_DOMAIN_MEMORY_TTL", 24*time.Hour),
		},
		Scraper: ScraperConfig{
			MaxPagesLimit:   envIntOr("SCRAPER_MAX_PAGES_LIMIT", 50),
			PageDelay:       envDurationOr("SCRAPER_PAGE_DELAY", 0),
			NoResultsMarker: envOr("SCRAPER_NO_RESULTS_MARKER", "No Results Found"),
			RepeatCheck:     envBoolOr("SCRAPER_REPEAT_CHECK", true),
			DedupKey:        envOr("SCRAPER_DEDUP_KEY", "name"),
		},
		LLM: LLMConfig{
			APIKey:          envOr("LLM_API_KEY", os.Getenv("GROQ_API_KEY")),
			Model:           envOr("LLM_MODEL", "llama-3.3-70b-versatile"),
			BaseURL:         envOr("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
			MaxContentChars: envIntOr("LLM_MAX_CONTENT_CHARS", 24000),
			Timeout:         envDurationOr("LLM_TIMEOUT", 60*time.Second),
		},
		Export: ExportConfig{
			CSVPath: envOr("SCRAPER_CSV_PATH", "complete_venues.csv"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SCRAPER_AUTH_ENABLED", false),
			APIKeys: envSliceOr("SCRAPER_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SCRAPER_RATE_RPS", 2.0),
			Burst:             envIntOr("SCRAPER_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("CACHE_MAX_ENTRIES", 0),
			TTL:        envDurationOr("CACHE_TTL", 10*time.Minute),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("WEBHOOK_URL"),
			Secret: os.Getenv("WEBHOOK_SECRET"),
		},
		Store: StoreConfig{
			DatabaseURL:  os.Getenv("DATABASE_URL"),
			HistoryLimit: envIntOr("SCRAPER_HISTORY_LIMIT", 200),
		},
		Log: LogConfig{
			Level:  envOr("SCRAPER_LOG_LEVEL", "info"),
			Format: envOr("SCRAPER_LOG_FORMAT", "json"),
		},
	}
}

// DefaultUserAgent is a current desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]time.Duration, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				if d, err := time.ParseDuration(trimmed); err == nil {
					result = append(result, d)
				}
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
