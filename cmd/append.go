package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/palanca/timeseries"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type appendCmd struct {
	kind string
	on   dateFlag
	at   string
}

func (*appendCmd) Name() string     { return "append" }
func (*appendCmd) Synopsis() string { return "record an observation for an instrument" }
func (*appendCmd) Usage() string {
	return `palanca append [-kind <kind>] [-on <day> | -at <RFC3339 time>] <identifier> <value>

  Records value for the instrument in the store. An observation already
  recorded at the same time is replaced.
`
}

func (c *appendCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "kind", string(timeseries.Price), "observation kind: price, open, high, low, close, volume or quantity")
	f.Var(&c.on, "on", "day of the observation, midnight UTC (default today)")
	f.StringVar(&c.at, "at", "", "exact time of the observation (RFC3339), overrides -on")
}

// observation builds the observation described by the flags.
func (c *appendCmd) observation(value string) (timeseries.Observation, error) {
	kind, err := timeseries.ParseKind(c.kind)
	if err != nil {
		return timeseries.Observation{}, err
	}
	v, err := decimal.NewFromString(value)
	if err != nil {
		return timeseries.Observation{}, fmt.Errorf("invalid value %q: %w", value, err)
	}
	var t time.Time
	switch {
	case c.at != "":
		if t, err = time.Parse(time.RFC3339, c.at); err != nil {
			return timeseries.Observation{}, fmt.Errorf("invalid -at: %w", err)
		}
	case !c.on.IsZero():
		t = c.on.Time()
	default:
		t = time.Now().UTC().Truncate(24 * time.Hour)
	}
	return timeseries.At(t, v, kind), nil
}

func (c *appendCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Error: an identifier and a value are required.")
		return subcommands.ExitUsageError
	}
	obs, err := c.observation(f.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	a, err := newApp()
	if err != nil {
		return fail("loading configuration", err)
	}
	if err := a.load(); err != nil {
		return fail("loading store", err)
	}
	key, err := a.market.Append(ctx, f.Arg(0), obs)
	if err != nil {
		return fail("appending observation", err)
	}
	if err := a.save(); err != nil {
		return fail("saving store", err)
	}
	fmt.Printf("Recorded %s for %s in %s\n", obs, key, a.cfg.Store.Path)
	return subcommands.ExitSuccess
}
