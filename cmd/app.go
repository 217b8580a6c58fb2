// Package cmd implements the palanca CLI: resolve identifiers, record and
// query observations, and fetch prices from EODHD and TradingView.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/palanca"
	"github.com/etnz/palanca/config"
	"github.com/etnz/palanca/eodhd"
	"github.com/etnz/palanca/logging"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&resolveCmd{}, "identifiers")

	c.Register(&appendCmd{}, "series")
	c.Register(&queryCmd{}, "series")

	c.Register(&fetchCmd{}, "sources")
	c.Register(&quoteCmd{}, "sources")

	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "", "Path to the YAML configuration file")
var storeFile = flag.String("store", "", "Path to the observation store (JSONL format), overrides the configuration")

// app holds what a command needs, built from the configuration.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	market *palanca.Market
	eodhd  *eodhd.Client // nil without API key
}

// newApp loads the configuration, the logger and the market.
func newApp() (*app, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, err
	}
	if *storeFile != "" {
		cfg.Store.Path = *storeFile
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}

	opts := []palanca.ResolverOption{palanca.WithResolverLogger(logger.Named("resolver"))}
	if cfg.EODHD.APIKey != "" {
		a.eodhd, err = eodhd.New(cfg.EODHD.APIKey,
			eodhd.WithBaseURL(cfg.EODHD.BaseURL),
			eodhd.WithLogger(logger.Named("eodhd")),
			eodhd.WithCache(cfg.EODHD.CacheDir, cfg.EODHD.CacheTTL),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, palanca.WithSource(a.eodhd))
	}
	cache := palanca.NewCache(palanca.NewResolver(opts...),
		palanca.WithTTL(cfg.Cache.TTL),
		palanca.WithResolveTimeout(cfg.Cache.ResolveTimeout),
		palanca.WithCacheLogger(logger.Named("cache")),
	)
	a.market = palanca.NewMarket(cache, nil)
	return a, nil
}

// load reads the store file into the market. A missing file is an empty store.
func (a *app) load() error {
	path := a.cfg.Store.Path
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		a.logger.Info("store does not exist, starting empty", zap.String("path", path))
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	return a.market.Load(f, path)
}

// save writes the market into the store file, replacing it atomically.
func (a *app) save() error {
	path := a.cfg.Store.Path
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := a.market.Save(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("cannot write store %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// printMarkdown renders md for the terminal, or prints it raw if rendering fails.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Print(md)
}

// fail prints err the way every command does and returns ExitFailure.
func fail(format string, err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error "+format+": %v\n", err)
	return subcommands.ExitFailure
}
