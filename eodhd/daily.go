package eodhd

import (
	"context"
	"fmt"
	"net/url"

	"github.com/etnz/palanca"
	"github.com/etnz/palanca/date"
	"github.com/etnz/palanca/timeseries"
	"github.com/shopspring/decimal"
)

// Daily returns the daily close prices of an EODHD ticker ("SYMBOL.EXCHANGE")
// in [from, to).
func (c *Client) Daily(ctx context.Context, ticker string, from, to date.Date) ([]timeseries.Observation, error) {
	if !from.Before(to) {
		return nil, nil
	}
	// The API bounds are inclusive.
	q := url.Values{}
	q.Set("from", from.String())
	q.Set("to", to.Add(-1).String())

	type info struct {
		Date  date.Date       `json:"date"`
		Close decimal.Decimal `json:"close"`
	}
	var content []info
	if err := c.jwget(ctx, c.endpoint("/api/eod/"+url.PathEscape(ticker), q), &content); err != nil {
		return nil, fmt.Errorf("eodhd daily %s: %w", ticker, err)
	}
	r := date.Range{From: from, To: to}
	obs := make([]timeseries.Observation, 0, len(content))
	for _, i := range content {
		if !r.Contains(i.Date) {
			continue
		}
		obs = append(obs, timeseries.At(i.Date.Time(), i.Close, timeseries.Close))
	}
	return obs, nil
}

// Ticker returns the EODHD ticker to use for inst.
func Ticker(inst palanca.Instrument) (string, error) {
	if inst.Key.Scheme() == palanca.CurrencyPair {
		// The Ticker for forex is in the format "fromCurrency+toCurrency.FOREX".
		return inst.Key.Value() + ".FOREX", nil
	}
	if inst.Symbol != "" && inst.Exchange != "" {
		return inst.Symbol + "." + inst.Exchange, nil
	}
	if inst.Key.Scheme() == palanca.Ticker {
		return inst.Key.Value(), nil
	}
	return "", fmt.Errorf("no eodhd ticker known for %s", inst.Key)
}
