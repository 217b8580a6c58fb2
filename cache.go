package palanca

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a resolution is trusted. Identifier mappings rarely
// change, but they do get revised upstream.
const DefaultTTL = 30 * 24 * time.Hour

// Clock tells the time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Cache memoizes resolutions of raw identifiers.
//
// Entries expire after the TTL. Expiry is checked on lookup: a stale entry is
// treated as absent and resolved again. Failed resolutions are not cached.
type Cache struct {
	resolver *Resolver
	ttl      time.Duration
	timeout  time.Duration // of a shared resolution, 0 is none
	clock    Clock
	logger   *zap.Logger
	group    singleflight.Group

	mu      sync.Mutex
	gen     uint64 // incremented by invalidations
	entries map[entryKey]entry
}

type entryKey struct {
	hint Scheme
	raw  string // normalized
}

func (k entryKey) String() string { return string(k.hint) + "|" + k.raw }

type entry struct {
	key     Key
	expires time.Time // zero never expires
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL sets the time-to-live of cache entries. ttl <= 0 never expires.
func WithTTL(ttl time.Duration) CacheOption { return func(c *Cache) { c.ttl = ttl } }

// WithResolveTimeout bounds a resolution shared by concurrent callers. It runs
// detached from the callers' contexts, so that one caller giving up does not
// fail the others. d <= 0 means no bound.
func WithResolveTimeout(d time.Duration) CacheOption { return func(c *Cache) { c.timeout = d } }

// WithClock sets the clock used to expire entries.
func WithClock(clock Clock) CacheOption { return func(c *Cache) { c.clock = clock } }

// WithCacheLogger sets the cache logger.
func WithCacheLogger(l *zap.Logger) CacheOption { return func(c *Cache) { c.logger = l } }

// NewCache returns an empty cache in front of resolver. Direct resolutions
// by resolver populate the cache too.
func NewCache(resolver *Resolver, opts ...CacheOption) *Cache {
	c := &Cache{
		resolver: resolver,
		ttl:      DefaultTTL,
		clock:    systemClock{},
		entries:  make(map[entryKey]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	resolver.OnResolved(c.store)
	return c
}

// Resolver returns the resolver behind the cache.
func (c *Cache) Resolver() *Resolver { return c.resolver }

// GetOrResolve returns the key of raw, from the cache or from the resolver.
func (c *Cache) GetOrResolve(ctx context.Context, raw string) (Key, error) {
	return c.Lookup(ctx, raw, "")
}

// Lookup is like GetOrResolve with a scheme hint. Entries are cached per hint.
func (c *Cache) Lookup(ctx context.Context, raw string, hint Scheme) (Key, error) {
	ek := entryKey{hint, normalize(raw, hint)}
	if key, ok := c.get(ek); ok {
		return key, nil
	}

	// Concurrent misses on the same identifier share one resolution.
	ch := c.group.DoChan(ek.String(), func() (any, error) {
		c.mu.Lock()
		gen := c.gen
		c.mu.Unlock()

		rctx := context.WithoutCancel(ctx)
		if c.timeout > 0 {
			var cancel context.CancelFunc
			rctx, cancel = context.WithTimeout(rctx, c.timeout)
			defer cancel()
		}
		inst, err := c.resolver.resolve(rctx, raw, hint)
		if err != nil {
			return Key{}, err
		}
		c.put(ek, inst.Key, gen)
		return inst.Key, nil
	})
	select {
	case <-ctx.Done():
		return Key{}, &UnresolvedIdentifierError{Raw: raw, Scheme: hint, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return Key{}, res.Err
		}
		return res.Val.(Key), nil
	}
}

func (c *Cache) get(ek entryKey) (Key, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[ek]
	if !ok {
		return Key{}, false
	}
	if !e.expires.IsZero() && !c.clock.Now().Before(e.expires) {
		delete(c.entries, ek)
		c.logger.Debug("cache entry expired", zap.String("raw", ek.raw), zap.Stringer("key", e.key))
		return Key{}, false
	}
	return e.key, true
}

// store is the resolver hook: it caches a resolution made outside the cache.
func (c *Cache) store(raw string, hint Scheme, key Key) {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()
	c.put(entryKey{hint, normalize(raw, hint)}, key, gen)
}

// put stores key unless the cache was invalidated since gen.
func (c *Cache) put(ek entryKey, key Key, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	e := entry{key: key}
	if c.ttl > 0 {
		e.expires = c.clock.Now().Add(c.ttl)
	}
	c.entries[ek] = e
}

// Invalidate removes raw from the cache, whatever the hint it was looked up with.
func (c *Cache) Invalidate(raw string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	for ek := range c.entries {
		if ek.raw == normalize(raw, ek.hint) {
			delete(c.entries, ek)
		}
	}
}

// Purge removes every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	clear(c.entries)
}

// Len returns the number of entries, stale ones included until they are looked up.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
