package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ConsoleConfig is the terminal console's settings file.
type ConsoleConfig struct {
	Server struct {
		BaseURL string `toml:"base_url"`
		APIKey  string `toml:"api_key"`
	} `toml:"server"`

	// Form pre-fills the console inputs.
	Form struct {
		BaseURL      string `toml:"base_url"`
		CSSSelector  string `toml:"css_selector"`
		RequiredKeys string `toml:"required_keys"`
		MaxPages     string `toml:"max_pages"`
	} `toml:"form"`

	Download struct {
		Dir string `toml:"dir"`
	} `toml:"download"`

	Log struct {
		File  string `toml:"file"`
		Level string `toml:"level"`
	} `toml:"log"`
}

// DefaultConsoleConfig returns a config with default values.
func DefaultConsoleConfig() *ConsoleConfig {
	cfg := &ConsoleConfig{}
	cfg.Server.BaseURL = "http://localhost:5000"
	cfg.Form.RequiredKeys = "name, location, price, capacity, rating, reviews, description"
	cfg.Form.MaxPages = "10"
	cfg.Download.Dir = "."
	cfg.Log.File = filepath.Join(os.TempDir(), "scrapeconsole.log")
	cfg.Log.Level = "info"
	return cfg
}

// ConsoleConfigPath returns ~/.config/scrapeconsole/console.toml.
func ConsoleConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "scrapeconsole", "console.toml"), nil
}

// LoadConsole reads the console config from path, creating it with
// defaults when it does not exist. An empty path uses ConsoleConfigPath.
// SCRAPECONSOLE_URL and SCRAPECONSOLE_API_KEY override the file.
func LoadConsole(path string) (*ConsoleConfig, error) {
	if path == "" {
		p, err := ConsoleConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	var cfg *ConsoleConfig
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		cfg = DefaultConsoleConfig()
		if err := SaveConsole(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		cfg = &ConsoleConfig{}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		mergeConsoleDefaults(cfg)
	}

	if v := os.Getenv("SCRAPECONSOLE_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("SCRAPECONSOLE_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	return cfg, nil
}

// SaveConsole writes cfg to path as TOML.
func SaveConsole(path string, cfg *ConsoleConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func mergeConsoleDefaults(cfg *ConsoleConfig) {
	def := DefaultConsoleConfig()
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = def.Server.BaseURL
	}
	if cfg.Form.MaxPages == "" {
		cfg.Form.MaxPages = def.Form.MaxPages
	}
	if cfg.Download.Dir == "" {
		cfg.Download.Dir = def.Download.Dir
	}
	if cfg.Log.File == "" {
		cfg.Log.File = def.Log.File
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
}
