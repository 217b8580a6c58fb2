package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/etnz/palanca"
	"github.com/etnz/palanca/eodhd"
	"github.com/etnz/palanca/tradingview"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "palanca.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Cache.TTL != palanca.DefaultTTL || cfg.Cache.ResolveTimeout != 30*time.Second {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	want := TradingViewConfig{
		URL:         tradingview.DefaultURL,
		Token:       tradingview.DefaultToken,
		Timeout:     tradingview.DefaultTimeout,
		Retries:     3,
		RetryDelay:  tradingview.DefaultRetryDelay,
		Concurrency: tradingview.DefaultConcurrency,
	}
	if cfg.TradingView != want {
		t.Errorf("TradingView = %+v, want %+v", cfg.TradingView, want)
	}
	if cfg.EODHD.BaseURL != eodhd.DefaultBaseURL {
		t.Errorf("EODHD.BaseURL = %q, want %q", cfg.EODHD.BaseURL, eodhd.DefaultBaseURL)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("TEST_EODHD_KEY", "from-file-env")
	path := writeConfig(t, `
log:
  level: debug
cache:
  ttl: 1h
eodhd:
  api_key: ${TEST_EODHD_KEY}
tradingview:
  retries: 5
  retry_delay: 1s
store:
  path: /var/lib/palanca/store.jsonl
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Cache.TTL != time.Hour || cfg.EODHD.APIKey != "from-file-env" {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.TradingView.Retries != 5 || cfg.TradingView.RetryDelay != time.Second {
		t.Errorf("TradingView = %+v", cfg.TradingView)
	}
	// Unset values keep their default.
	if cfg.EODHD.BaseURL != "https://eodhd.com" || cfg.TradingView.Concurrency != 5 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadEnvironmentWins(t *testing.T) {
	path := writeConfig(t, "eodhd:\n  api_key: from-file\ncache:\n  ttl: 1h\n")
	t.Setenv("EODHD_API_KEY", "from-env")
	t.Setenv("PALANCA_CACHE_TTL", "15m")
	t.Setenv("PALANCA_STORE", "other.jsonl")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.EODHD.APIKey != "from-env" || cfg.Cache.TTL != 15*time.Minute || cfg.Store.Path != "other.jsonl" {
		t.Errorf("Load() = %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		want    string
	}{
		{"bad yaml", "log: [", "parse config yaml"},
		{"bad level", "log:\n  level: verbose\n", "log.level"},
		{"too many retries", "tradingview:\n  retries: 11\n", "tradingview.retries"},
		{"negative concurrency", "tradingview:\n  concurrency: -1\n", "tradingview.concurrency"},
		{"no store", "store:\n  path: \"\"\n", "store.path"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Load() error = %v want it to mention %q", err, tc.want)
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load(missing file) should fail")
	}
}

func TestValidateReportsAll(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = ""
	cfg.TradingView.Retries = -1
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() should fail")
	}
	for _, want := range []string{"log.level", "tradingview.retries"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() = %v want it to mention %q", err, want)
		}
	}
}
