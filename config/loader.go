package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// Load returns the default configuration overridden by the YAML file at
// path, if not empty, then by the environment. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// Expand ${VAR} environment variables
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml %s: %w", path, err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

var levels = []string{"debug", "info", "warn", "error"}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(levels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level %q is not one of %v", c.Log.Level, levels))
	}
	if c.EODHD.BaseURL == "" {
		errs = append(errs, errors.New("eodhd.base_url is required"))
	}
	if c.TradingView.URL == "" {
		errs = append(errs, errors.New("tradingview.url is required"))
	}
	if r := c.TradingView.Retries; r < 0 || r > 10 {
		errs = append(errs, fmt.Errorf("tradingview.retries must be in [0, 10], got %d", r))
	}
	if c.TradingView.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("tradingview.retry_delay must not be negative, got %v", c.TradingView.RetryDelay))
	}
	if c.TradingView.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("tradingview.concurrency must not be negative, got %d", c.TradingView.Concurrency))
	}
	if c.Store.Path == "" {
		errs = append(errs, errors.New("store.path is required"))
	}
	return errors.Join(errs...)
}
