package palanca

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Resolver turns raw identifiers into canonical keys.
//
// It consults its Source first, and falls back to the deterministic form of
// the identifier (ISIN, MSSI, currency pair, private id) when the source has
// no mapping. Tickers and CUSIPs have no deterministic form.
//
// Every resolved instrument is remembered until Forget.
type Resolver struct {
	source Source
	logger *zap.Logger

	mu       sync.RWMutex
	known    map[Key]Instrument
	resolved []func(raw string, hint Scheme, key Key)
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithSource sets the external source of identifier mappings.
func WithSource(s Source) ResolverOption { return func(r *Resolver) { r.source = s } }

// WithResolverLogger sets the resolver logger.
func WithResolverLogger(l *zap.Logger) ResolverOption { return func(r *Resolver) { r.logger = l } }

// WithResolvedHook registers f, called after every successful resolution.
func WithResolvedHook(f func(raw string, hint Scheme, key Key)) ResolverOption {
	return func(r *Resolver) { r.resolved = append(r.resolved, f) }
}

// OnResolved registers f like WithResolvedHook, on an existing resolver.
func (r *Resolver) OnResolved(f func(raw string, hint Scheme, key Key)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = append(r.resolved, f)
}

// NewResolver returns a resolver. Without a source only deterministic
// identifiers resolve.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{known: make(map[Key]Instrument)}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Resolve returns the canonical key of raw. hint is the scheme of raw, or zero
// to infer it.
//
// It fails with *InvalidIdentifierFormatError when raw is malformed and with
// *UnresolvedIdentifierError when no mapping exists, or the source failed.
func (r *Resolver) Resolve(ctx context.Context, raw string, hint Scheme) (Key, error) {
	inst, err := r.ResolveInstrument(ctx, raw, hint)
	return inst.Key, err
}

// ResolveInstrument is like Resolve but returns the instrument reference data too.
//
// Hooks registered with WithResolvedHook or OnResolved are called on success.
func (r *Resolver) ResolveInstrument(ctx context.Context, raw string, hint Scheme) (Instrument, error) {
	inst, err := r.resolve(ctx, raw, hint)
	if err != nil {
		return inst, err
	}
	r.mu.RLock()
	hooks := r.resolved
	r.mu.RUnlock()
	for _, f := range hooks {
		f(raw, hint, inst.Key)
	}
	return inst, nil
}

// resolve is ResolveInstrument without the hooks.
func (r *Resolver) resolve(ctx context.Context, raw string, hint Scheme) (Instrument, error) {
	id, err := ParseIdentifier(raw, hint)
	if err != nil {
		return Instrument{}, err
	}
	unresolved := func(err error) (Instrument, error) {
		return Instrument{}, &UnresolvedIdentifierError{Raw: raw, Scheme: id.Scheme, Err: err}
	}

	if r.source != nil {
		if err := ctx.Err(); err != nil {
			return unresolved(err)
		}
		inst, err := r.source.Lookup(ctx, id)
		switch {
		case err == nil && inst.Key.IsZero():
			return unresolved(fmt.Errorf("source returned no key for %s", id))
		case err == nil:
			r.remember(inst, true)
			r.logger.Debug("resolved", zap.String("raw", raw), zap.Stringer("key", inst.Key), zap.Bool("source", true))
			return inst, nil
		case !errors.Is(err, ErrNotFound):
			r.logger.Warn("source lookup failed", zap.String("raw", raw), zap.Stringer("id", id), zap.Error(err))
			return unresolved(err)
		}
	}

	key, ok := canonical(id)
	if !ok {
		return unresolved(fmt.Errorf("no mapping for %s", id))
	}
	inst := r.remember(Instrument{Key: key}, false)
	r.logger.Debug("resolved", zap.String("raw", raw), zap.Stringer("key", key), zap.Bool("source", false))
	return inst, nil
}

// remember records inst and returns what is now known for its key.
// Unless overwrite, known reference data is kept.
func (r *Resolver) remember(inst Instrument, overwrite bool) Instrument {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.known[inst.Key]; ok && !overwrite {
		return prev
	}
	r.known[inst.Key] = inst
	return inst
}

// Instrument returns what is known about key.
func (r *Resolver) Instrument(key Key) (Instrument, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.known[key]
	return inst, ok
}

// Forget drops key from the known instruments.
func (r *Resolver) Forget(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.known, key)
}
