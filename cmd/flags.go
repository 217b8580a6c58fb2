package cmd

import (
	"fmt"
	"strings"

	"github.com/etnz/palanca"
	"github.com/etnz/palanca/date"
)

// dateFlag is a flag.Value holding a day.
type dateFlag struct{ date.Date }

func (d *dateFlag) String() string {
	if d == nil || d.IsZero() {
		return ""
	}
	return d.Date.String()
}

func (d *dateFlag) Set(s string) error {
	v, err := date.Parse(s)
	if err != nil {
		return err
	}
	d.Date = v
	return nil
}

// schemeFlag is a flag.Value holding an optional scheme hint.
type schemeFlag struct{ palanca.Scheme }

func (s *schemeFlag) String() string { return string(s.Scheme) }

func (s *schemeFlag) Set(v string) error {
	sc, err := palanca.ParseScheme(v)
	if err != nil {
		return err
	}
	s.Scheme = sc
	return nil
}

// splitSymbol splits "EXCHANGE:SYMBOL" as TradingView writes it.
func splitSymbol(s string) (symbol, exchange string, err error) {
	exchange, symbol, ok := strings.Cut(strings.ToUpper(strings.TrimSpace(s)), ":")
	if !ok || exchange == "" || symbol == "" {
		return "", "", fmt.Errorf("invalid symbol %q: want EXCHANGE:SYMBOL", s)
	}
	return symbol, exchange, nil
}

// defaultRange returns [from, to) with to defaulting to tomorrow and from to
// 30 days before to.
func defaultRange(from, to date.Date) date.Range {
	if to.IsZero() {
		to = date.Today().Add(1)
	}
	if from.IsZero() {
		from = to.Add(-30)
	}
	return date.Range{From: from, To: to}
}
