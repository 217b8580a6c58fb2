package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/palanca/renderer"
	"github.com/google/subcommands"
)

type resolveCmd struct {
	scheme schemeFlag
}

func (*resolveCmd) Name() string     { return "resolve" }
func (*resolveCmd) Synopsis() string { return "resolve identifiers to their canonical key" }
func (*resolveCmd) Usage() string {
	return `palanca resolve [-scheme <scheme>] <identifier>...

  Resolves each identifier (ISIN, CUSIP, ISIN.MIC, ticker, currency pair or
  private id) to the canonical key used by the store. The scheme is inferred
  from the identifier shape unless -scheme is given.
  Tickers and CUSIPs need EODHD (EODHD_API_KEY).
`
}

func (c *resolveCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.scheme, "scheme", "scheme of the identifiers: ISIN, CUSIP, MSSI, TICKER, FX or ID")
}

func (c *resolveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one identifier is required.")
		return subcommands.ExitUsageError
	}
	a, err := newApp()
	if err != nil {
		return fail("loading configuration", err)
	}

	failed := false
	var rs []renderer.Resolution
	for _, raw := range f.Args() {
		r := renderer.Resolution{Raw: raw}
		r.Key, r.Err = a.market.Cache().Lookup(ctx, raw, c.scheme.Scheme)
		if r.Err != nil {
			failed = true
		} else {
			r.Instrument, _ = a.market.Cache().Resolver().Instrument(r.Key)
		}
		rs = append(rs, r)
	}
	printMarkdown(renderer.RenderResolutions(rs))
	if failed {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
