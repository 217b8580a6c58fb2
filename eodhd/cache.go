package eodhd

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"fmt"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// diskCache is an http.RoundTripper that keeps successful responses on disk.
//
// The cache key includes the current time bucket, so entries expire when the
// bucket changes.
type diskCache struct {
	base   http.RoundTripper
	dir    string
	ttl    time.Duration // <= 0 is daily
	now    func() time.Time
	logger *zap.Logger
}

func (c *diskCache) key(req *http.Request) string {
	ttl := c.ttl
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	bucket := c.now().UTC().Truncate(ttl).Unix()
	sum := sha1.Sum(fmt.Appendf(nil, "%d %s %s", bucket, req.Method, req.URL.String()))
	return fmt.Sprintf("eodhd-%x", sum)
}

// RoundTrip implements the http.RoundTripper interface.
func (c *diskCache) RoundTrip(req *http.Request) (*http.Response, error) {
	key := c.key(req)
	if resp, err := c.get(key, req); err == nil {
		c.logger.Debug("cache hit", zap.String("path", req.URL.Path))
		return resp, nil
	}

	resp, err := c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("http get", zap.String("host", req.URL.Host), zap.String("path", req.URL.Path), zap.String("status", resp.Status))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, nil
	}
	if err := c.put(key, resp); err != nil {
		c.logger.Warn("cache write error ignored", zap.Error(err))
	}
	return resp, nil
}

// get retrieves a cached response from disk.
func (c *diskCache) get(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(filepath.Join(c.dir, key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
}

// put stores resp on disk. DumpResponse leaves resp.Body readable.
func (c *diskCache) put(key string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, key), content, 0o644)
}
