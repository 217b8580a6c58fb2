package palanca

import (
	"context"
	"io"
	"iter"
	"time"

	"github.com/etnz/palanca/timeseries"
)

// Market records and serves observations by raw identifier.
//
// Identifiers go through the cache, then the resolver, and the resulting
// canonical key addresses the store.
type Market struct {
	cache *Cache
	store *timeseries.Store[Key]
}

// NewMarket returns a market on top of cache and store. A nil store is
// replaced by an empty one.
func NewMarket(cache *Cache, store *timeseries.Store[Key]) *Market {
	if store == nil {
		store = timeseries.NewStore[Key]()
	}
	return &Market{cache: cache, store: store}
}

// Store returns the underlying store.
func (m *Market) Store() *timeseries.Store[Key] { return m.store }

// Cache returns the underlying cache.
func (m *Market) Cache() *Cache { return m.cache }

// Resolve returns the canonical key of raw.
func (m *Market) Resolve(ctx context.Context, raw string) (Key, error) {
	return m.cache.GetOrResolve(ctx, raw)
}

// Append records observations for the instrument identified by raw.
//
// Nothing is recorded if raw does not resolve or any observation is invalid.
func (m *Market) Append(ctx context.Context, raw string, obs ...timeseries.Observation) (Key, error) {
	key, err := m.cache.GetOrResolve(ctx, raw)
	if err != nil {
		return Key{}, err
	}
	return key, m.store.Append(key, obs...)
}

// Query returns the observations of the instrument identified by raw in [from, to).
func (m *Market) Query(ctx context.Context, raw string, from, to time.Time) (Key, iter.Seq[timeseries.Observation], error) {
	key, err := m.cache.GetOrResolve(ctx, raw)
	if err != nil {
		return Key{}, nil, err
	}
	seq, err := m.store.Query(key, from, to)
	return key, seq, err
}

// Latest returns the most recent observation of the instrument identified by raw.
func (m *Market) Latest(ctx context.Context, raw string) (Key, timeseries.Observation, error) {
	key, err := m.cache.GetOrResolve(ctx, raw)
	if err != nil {
		return Key{}, timeseries.Observation{}, err
	}
	o, err := m.store.Latest(key)
	return key, o, err
}

// Save writes the store in its JSONL format.
func (m *Market) Save(w io.Writer) error {
	return timeseries.Encode(w, m.store, Key.String)
}

// Load reads a store in its JSONL format into the market. name is for error
// messages only.
func (m *Market) Load(r io.Reader, name string) error {
	return timeseries.Decode(r, name, m.store, ParseKey)
}
