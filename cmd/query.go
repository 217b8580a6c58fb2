package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/etnz/palanca/renderer"
	"github.com/google/subcommands"
)

type queryCmd struct {
	from, to dateFlag
}

func (*queryCmd) Name() string     { return "query" }
func (*queryCmd) Synopsis() string { return "print the observations of an instrument" }
func (*queryCmd) Usage() string {
	return `palanca query [-from <day>] [-to <day>] <identifier>

  Prints the observations recorded for the instrument in [from, to).
  Defaults to the last 30 days.
`
}

func (c *queryCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.from, "from", "first day, included")
	f.Var(&c.to, "to", "last day, excluded (default tomorrow)")
}

func (c *queryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one identifier is required.")
		return subcommands.ExitUsageError
	}
	a, err := newApp()
	if err != nil {
		return fail("loading configuration", err)
	}
	if err := a.load(); err != nil {
		return fail("loading store", err)
	}

	r := defaultRange(c.from.Date, c.to.Date)
	from, to := r.Times()
	key, seq, err := a.market.Query(ctx, f.Arg(0), from, to)
	if err != nil {
		return fail("querying "+f.Arg(0), err)
	}
	inst, _ := a.market.Cache().Resolver().Instrument(key)
	printMarkdown(renderer.RenderSeries(&renderer.Series{
		Key:          key,
		Instrument:   inst,
		Range:        r.String(),
		Observations: slices.Collect(seq),
	}))
	return subcommands.ExitSuccess
}
