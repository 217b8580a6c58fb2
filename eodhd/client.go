// Package eodhd resolves identifiers and fetches daily prices from the EOD
// Historical Data API (https://eodhd.com).
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://eodhd.com"

// Client talks to the EODHD API.
type Client struct {
	apiKey   string
	baseURL  string
	http     *http.Client
	logger   *zap.Logger
	cacheDir string
	cacheTTL time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithHTTPClient sets the http client used for requests.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.logger = l } }

// WithCache stores successful responses under dir. Entries are reused for
// the current ttl bucket (daily if ttl <= 0).
func WithCache(dir string, ttl time.Duration) Option {
	return func(c *Client) {
		c.cacheDir = dir
		c.cacheTTL = ttl
	}
}

// New returns a client authenticated with apiKey.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("eodhd: missing API key")
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if _, err := url.Parse(c.baseURL); err != nil {
		return nil, fmt.Errorf("eodhd: invalid base URL %q: %w", c.baseURL, err)
	}
	if c.cacheDir != "" {
		base := c.http.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		// Copy, the caller's client is left alone.
		h := *c.http
		h.Transport = &diskCache{base: base, dir: c.cacheDir, ttl: c.cacheTTL, now: time.Now, logger: c.logger}
		c.http = &h
	}
	return c, nil
}

// endpoint returns the URL of path with the authentication and format parameters.
func (c *Client) endpoint(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_token", c.apiKey)
	query.Set("fmt", "json")
	return c.baseURL + path + "?" + query.Encode()
}

// jwget performs an HTTP GET request to addr and unmarshals the JSON response
// body into data.
func (c *Client) jwget(ctx context.Context, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(data); err != nil {
		return fmt.Errorf("cannot decode %v%v: %w", req.URL.Host, req.URL.Path, err)
	}
	return nil
}
