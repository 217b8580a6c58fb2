// Package tradingview reads latest prices from TradingView's public chart
// websocket.
//
// The API is not official. It often answers nothing, which is also its answer
// for unknown symbols, hence the retry option of ReadLatestPrice.
package tradingview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/etnz/palanca/timeseries"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MaxRetries is the largest accepted Options.Retries.
const MaxRetries = 10

// DefaultRetryDelay is the pause between two attempts.
const DefaultRetryDelay = 200 * time.Millisecond

// Candle is an OHLCV bar.
type Candle struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// Options tune a read.
type Options struct {
	Interval       Interval // Minute1 if empty
	FutureContract bool     // read the front month contract, like ES at CME_MINI
	ExtendedHours  bool     // include prices out of the regular session
	Retries        int      // attempts after a first empty response, at most MaxRetries
}

// Request asks for the latest price of Symbol at Exchange.
type Request struct {
	Symbol   string
	Exchange string
	Options
}

// Transport fetches the latest bars for a request. It returns ErrNoResponse
// when the server gave nothing.
type Transport interface {
	Bars(ctx context.Context, req Request, n int) ([]Candle, error)
}

// Response is the result of ReadLatestPrice.
type Response struct {
	Symbol   string
	Exchange string
	Candles  []Candle
}

// Candle returns the latest candle, or the zero Candle if there is none.
func (r *Response) Candle() Candle {
	if len(r.Candles) == 0 {
		return Candle{}
	}
	return r.Candles[len(r.Candles)-1]
}

func (r *Response) Time() time.Time         { return r.Candle().Time }
func (r *Response) Open() decimal.Decimal   { return r.Candle().Open }
func (r *Response) High() decimal.Decimal   { return r.Candle().High }
func (r *Response) Low() decimal.Decimal    { return r.Candle().Low }
func (r *Response) Close() decimal.Decimal  { return r.Candle().Close }
func (r *Response) Volume() decimal.Decimal { return r.Candle().Volume }

// Observation returns the latest close as a price observation.
func (r *Response) Observation() timeseries.Observation {
	c := r.Candle()
	return timeseries.At(c.Time, c.Close, timeseries.Price)
}

// Client reads prices through a Transport.
type Client struct {
	transport  Transport
	logger     *zap.Logger
	retryDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the websocket transport.
func WithTransport(t Transport) Option { return func(c *Client) { c.transport = t } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.logger = l } }

// WithRetryDelay sets the pause between attempts.
func WithRetryDelay(d time.Duration) Option { return func(c *Client) { c.retryDelay = d } }

// New returns a client. Without WithTransport it uses a WebSocket with its defaults.
func New(opts ...Option) *Client {
	c := &Client{retryDelay: DefaultRetryDelay}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.transport == nil {
		c.transport = &WebSocket{Logger: c.logger}
	}
	return c
}

// ReadLatestPrice returns the latest candle of symbol at exchange.
//
// A response without data is retried opts.Retries times, then reported as a
// *SymbolAtExchangeUnknownError. A response with no bar is ErrEmptyData.
func (c *Client) ReadLatestPrice(ctx context.Context, symbol, exchange string, opts Options) (*Response, error) {
	if opts.Retries < 0 || opts.Retries > MaxRetries {
		return nil, fmt.Errorf("tradingview: retries must be in [0, %d], got %d", MaxRetries, opts.Retries)
	}
	if opts.Interval == "" {
		opts.Interval = Minute1
	}
	if _, err := ParseInterval(string(opts.Interval)); err != nil {
		return nil, err
	}
	req := Request{Symbol: symbol, Exchange: exchange, Options: opts}

	for attempt := 0; attempt <= opts.Retries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, c.retryDelay); err != nil {
				return nil, err
			}
		}
		bars, err := c.transport.Bars(ctx, req, 1)
		if errors.Is(err, ErrNoResponse) {
			c.logger.Debug("no response", zap.String("symbol", symbol), zap.String("exchange", exchange), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(bars) == 0 {
			return nil, ErrEmptyData
		}
		return &Response{Symbol: symbol, Exchange: exchange, Candles: bars}, nil
	}
	return nil, &SymbolAtExchangeUnknownError{Symbol: symbol, Exchange: exchange}
}

// sleep pauses for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
