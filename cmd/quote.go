package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/palanca"
	"github.com/etnz/palanca/renderer"
	"github.com/etnz/palanca/timeseries"
	"github.com/etnz/palanca/tradingview"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

type quoteCmd struct {
	interval string
	future   bool
	extended bool
	retries  int
	append   bool
}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "read the latest prices from TradingView" }
func (*quoteCmd) Usage() string {
	return `palanca quote [-interval <interval>] [-future] [-extended] [-retries <n>] [-append] <EXCHANGE:SYMBOL>...

  Reads the latest bar of each symbol from the TradingView websocket, e.g.
  NASDAQ:AAPL or CME_MINI:ES. With -append, the latest close is recorded in
  the store under the EXCHANGE:SYMBOL ticker.
`
}

func (c *quoteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.interval, "interval", string(tradingview.Minute1), "bar interval: 1, 3, 5, 15, 30, 45, 1H, 2H, 3H, 4H, 1D, 1W or 1M")
	f.BoolVar(&c.future, "future", false, "read the front month contract")
	f.BoolVar(&c.extended, "extended", false, "include extended hours")
	f.IntVar(&c.retries, "retries", -1, "attempts after an empty response, 0 to 10 (default from the configuration)")
	f.BoolVar(&c.append, "append", false, "record the latest close in the store")
}

// requests builds one request per EXCHANGE:SYMBOL argument.
func (c *quoteCmd) requests(args []string, retries int) ([]tradingview.Request, error) {
	interval, err := tradingview.ParseInterval(c.interval)
	if err != nil {
		return nil, err
	}
	if c.retries >= 0 {
		retries = c.retries
	}
	if retries > tradingview.MaxRetries {
		return nil, fmt.Errorf("retries must be at most %d", tradingview.MaxRetries)
	}
	reqs := make([]tradingview.Request, 0, len(args))
	for _, arg := range args {
		symbol, exchange, err := splitSymbol(arg)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, tradingview.Request{
			Symbol:   symbol,
			Exchange: exchange,
			Options: tradingview.Options{
				Interval:       interval,
				FutureContract: c.future,
				ExtendedHours:  c.extended,
				Retries:        retries,
			},
		})
	}
	return reqs, nil
}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one EXCHANGE:SYMBOL is required.")
		return subcommands.ExitUsageError
	}
	a, err := newApp()
	if err != nil {
		return fail("loading configuration", err)
	}
	tv := a.cfg.TradingView
	reqs, err := c.requests(f.Args(), tv.Retries)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	logger := a.logger.Named("tradingview")
	client := tradingview.New(
		tradingview.WithTransport(&tradingview.WebSocket{URL: tv.URL, Token: tv.Token, Timeout: tv.Timeout, Logger: logger}),
		tradingview.WithRetryDelay(tv.RetryDelay),
		tradingview.WithLogger(logger),
	)
	resps, err := client.ReadLatestPrices(ctx, reqs, tv.Concurrency)
	if err != nil {
		return fail("reading quotes", err)
	}
	printMarkdown(renderer.RenderQuotes(resps))

	if !c.append {
		return subcommands.ExitSuccess
	}
	if err := a.load(); err != nil {
		return fail("loading store", err)
	}
	for _, resp := range resps {
		raw := resp.Exchange + ":" + resp.Symbol
		if err := record(ctx, a, raw, resp.Observation()); err != nil {
			return fail("appending "+raw, err)
		}
	}
	if err := a.save(); err != nil {
		return fail("saving store", err)
	}
	return subcommands.ExitSuccess
}

// record appends obs for raw, or under the TICKER key raw when no source
// knows it.
func record(ctx context.Context, a *app, raw string, obs timeseries.Observation) error {
	_, err := a.market.Append(ctx, raw, obs)
	if !errors.Is(err, palanca.ErrUnresolved) {
		return err
	}
	key, kerr := palanca.NewKey(palanca.Ticker, raw)
	if kerr != nil {
		return err
	}
	a.logger.Debug("recording under ticker key", zap.Stringer("key", key), zap.Error(err))
	return a.market.Store().Append(key, obs)
}
