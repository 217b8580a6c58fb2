// Package config holds the settings of the palanca command.
//
// Values come from code defaults, then an optional YAML file (with ${VAR}
// expansion), then environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/etnz/palanca"
	"github.com/etnz/palanca/eodhd"
	"github.com/etnz/palanca/tradingview"
)

// Config is the root configuration.
type Config struct {
	Log         LogConfig         `yaml:"log"`
	Cache       CacheConfig       `yaml:"cache"`
	EODHD       EODHDConfig       `yaml:"eodhd"`
	TradingView TradingViewConfig `yaml:"tradingview"`
	Store       StoreConfig       `yaml:"store"`
}

// LogConfig selects the logger.
type LogConfig struct {
	Level       string `yaml:"level" env:"PALANCA_LOG_LEVEL"` // debug, info, warn or error
	Development bool   `yaml:"development" env:"PALANCA_LOG_DEVELOPMENT"`
}

// CacheConfig tunes the identifier cache.
type CacheConfig struct {
	TTL            time.Duration `yaml:"ttl" env:"PALANCA_CACHE_TTL"`                   // <= 0 never expires
	ResolveTimeout time.Duration `yaml:"resolve_timeout" env:"PALANCA_RESOLVE_TIMEOUT"` // <= 0 is unbounded
}

// EODHDConfig holds the EOD Historical Data API settings.
type EODHDConfig struct {
	APIKey   string        `yaml:"api_key" env:"EODHD_API_KEY"`
	BaseURL  string        `yaml:"base_url" env:"EODHD_BASE_URL"`
	CacheDir string        `yaml:"cache_dir" env:"EODHD_CACHE_DIR"` // empty disables the http cache
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// TradingViewConfig holds the TradingView websocket settings.
type TradingViewConfig struct {
	URL         string        `yaml:"url"`
	Token       string        `yaml:"token" env:"TRADINGVIEW_TOKEN"`
	Timeout     time.Duration `yaml:"timeout"`
	Retries     int           `yaml:"retries"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	Concurrency int           `yaml:"concurrency"`
}

// StoreConfig locates the observation file.
type StoreConfig struct {
	Path string `yaml:"path" env:"PALANCA_STORE"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log:   LogConfig{Level: "info"},
		Cache: CacheConfig{TTL: palanca.DefaultTTL, ResolveTimeout: 30 * time.Second},
		EODHD: EODHDConfig{
			BaseURL:  eodhd.DefaultBaseURL,
			CacheDir: filepath.Join(os.TempDir(), "palanca-eodhd"),
			CacheTTL: 24 * time.Hour,
		},
		TradingView: TradingViewConfig{
			URL:         tradingview.DefaultURL,
			Token:       tradingview.DefaultToken,
			Timeout:     tradingview.DefaultTimeout,
			Retries:     3,
			RetryDelay:  tradingview.DefaultRetryDelay,
			Concurrency: tradingview.DefaultConcurrency,
		},
		Store: StoreConfig{Path: "palanca.jsonl"},
	}
}
