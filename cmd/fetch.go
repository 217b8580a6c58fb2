package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/palanca/date"
	"github.com/etnz/palanca/eodhd"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

type fetchCmd struct {
	from, to dateFlag
	scheme   schemeFlag
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "download daily closes from EODHD into the store" }
func (*fetchCmd) Usage() string {
	return `palanca fetch [-from <day>] [-to <day>] [-scheme <scheme>] <identifier>...

  Downloads the daily closes in [from, to) of each instrument from EOD
  Historical Data and records them in the store. Defaults to the last 30 days.
  Requires EODHD_API_KEY.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.from, "from", "first day, included")
	f.Var(&c.to, "to", "last day, excluded (default tomorrow)")
	f.Var(&c.scheme, "scheme", "scheme of the identifiers: ISIN, CUSIP, MSSI, TICKER, FX or ID")
}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one identifier is required.")
		return subcommands.ExitUsageError
	}
	a, err := newApp()
	if err != nil {
		return fail("loading configuration", err)
	}
	if a.eodhd == nil {
		fmt.Fprintln(os.Stderr, "Error: EODHD_API_KEY is not set.")
		return subcommands.ExitFailure
	}
	if err := a.load(); err != nil {
		return fail("loading store", err)
	}

	r := defaultRange(c.from.Date, c.to.Date)
	for _, raw := range f.Args() {
		n, err := c.fetch(ctx, a, raw, r.From, r.To)
		if err != nil {
			return fail("fetching "+raw, err)
		}
		a.logger.Info("fetched", zap.String("id", raw), zap.Int("observations", n), zap.Stringer("range", r))
		fmt.Printf("Fetched %d observations for %s\n", n, raw)
	}
	if err := a.save(); err != nil {
		return fail("saving store", err)
	}
	return subcommands.ExitSuccess
}

// fetch records the closes of raw and returns how many there were.
func (c *fetchCmd) fetch(ctx context.Context, a *app, raw string, from, to date.Date) (int, error) {
	inst, err := a.market.Cache().Resolver().ResolveInstrument(ctx, raw, c.scheme.Scheme)
	if err != nil {
		return 0, err
	}
	ticker, err := eodhd.Ticker(inst)
	if err != nil {
		return 0, err
	}
	obs, err := a.eodhd.Daily(ctx, ticker, from, to)
	if err != nil {
		return 0, err
	}
	if err := a.market.Store().Append(inst.Key, obs...); err != nil {
		return 0, err
	}
	return len(obs), nil
}
