package eodhd

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/etnz/palanca"
	"go.uber.org/zap"
)

// SearchResult matches the structure of a single item in the EODHD search API response.
type SearchResult struct {
	Code     string `json:"Code"`
	Exchange string `json:"Exchange"`
	Name     string `json:"Name"`
	Type     string `json:"Type"`
	Country  string `json:"Country"`
	Currency string `json:"Currency"`
	ISIN     string `json:"ISIN"`
}

// Ticker returns the EODHD ticker "CODE.EXCHANGE" of the result.
func (r SearchResult) Ticker() string { return r.Code + "." + r.Exchange }

// Search searches for securities matching term.
func (c *Client) Search(ctx context.Context, term string) ([]SearchResult, error) {
	var results []SearchResult
	if err := c.jwget(ctx, c.endpoint("/api/search/"+url.PathEscape(term), nil), &results); err != nil {
		return nil, fmt.Errorf("eodhd search %q: %w", term, err)
	}
	return results, nil
}

// exchanges returns a map of MIC to EODHD's own exchange code.
func (c *Client) exchanges(ctx context.Context) (map[string]string, error) {
	// the response is a list of exchanges, OperatingMIC could be a comma
	// separated list.
	type info struct {
		Code         string
		OperatingMIC string
	}
	var content []info
	if err := c.jwget(ctx, c.endpoint("/api/exchanges-list/", nil), &content); err != nil {
		return nil, err
	}
	result := make(map[string]string)
	for _, e := range content {
		for _, mic := range strings.Split(e.OperatingMIC, ",") {
			result[strings.TrimSpace(mic)] = e.Code
		}
	}
	return result, nil
}

// Lookup implements palanca.Source.
//
// Currency pairs and private identifiers are never searched: they return
// palanca.ErrNotFound so that the resolver uses their deterministic key.
func (c *Client) Lookup(ctx context.Context, id palanca.Identifier) (palanca.Instrument, error) {
	var (
		term  = id.Value
		match func(SearchResult) bool
		// preferred exchange code, for listings.
		exchange string
	)
	switch id.Scheme {
	case palanca.ISIN:
		match = func(r SearchResult) bool { return r.ISIN == id.Value }
	case palanca.MSSI:
		isin, mic, err := palanca.SplitMSSI(id.Value)
		if err != nil {
			return palanca.Instrument{}, err
		}
		term = isin
		match = func(r SearchResult) bool { return r.ISIN == isin }
		mic2exchange, err := c.exchanges(ctx)
		if err != nil {
			return palanca.Instrument{}, err
		}
		exchange = mic2exchange[mic]
	case palanca.CUSIP:
		// A CUSIP is the national part of a US or CA ISIN.
		match = func(r SearchResult) bool { return len(r.ISIN) == 12 && r.ISIN[2:11] == id.Value }
	case palanca.Ticker:
		match = func(r SearchResult) bool { return r.Code == id.Value || r.Ticker() == id.Value }
	default:
		return palanca.Instrument{}, palanca.ErrNotFound
	}

	results, err := c.Search(ctx, term)
	if err != nil {
		return palanca.Instrument{}, err
	}
	var found []SearchResult
	for _, r := range results {
		if match(r) {
			found = append(found, r)
		}
	}
	if len(found) == 0 {
		c.logger.Debug("no match", zap.Stringer("id", id), zap.Int("results", len(results)))
		return palanca.Instrument{}, palanca.ErrNotFound
	}
	best := found[0]
	for _, r := range found {
		if exchange != "" && r.Exchange == exchange {
			best = r
			break
		}
	}
	return c.instrument(best)
}

// instrument converts a search result into an instrument. The key is the
// ISIN when the result carries a valid one, the EODHD ticker otherwise.
func (c *Client) instrument(r SearchResult) (palanca.Instrument, error) {
	key, err := palanca.NewKey(palanca.ISIN, r.ISIN)
	if err != nil {
		key, err = palanca.NewKey(palanca.Ticker, r.Ticker())
		if err != nil {
			return palanca.Instrument{}, fmt.Errorf("eodhd returned an unusable ticker %q: %w", r.Ticker(), err)
		}
	}
	inst := palanca.Instrument{
		Key:      key,
		Name:     r.Name,
		Symbol:   r.Code,
		Exchange: r.Exchange,
		Type:     r.Type,
	}
	if err := palanca.ValidateCurrency(r.Currency); err == nil {
		inst.Currency = r.Currency
	} else if r.Currency != "" {
		c.logger.Debug("ignored currency", zap.String("ticker", r.Ticker()), zap.String("currency", r.Currency))
	}
	return inst, nil
}
