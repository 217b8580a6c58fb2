package palanca

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Instrument is a resolved security and its reference data.
type Instrument struct {
	Key      Key
	Name     string // e.g. "Apple Inc"
	Symbol   string // the symbol at the source, e.g. "AAPL"
	Exchange string // the exchange code at the source, e.g. "US"
	Currency string // ISO 4217 trading currency
	Type     string // e.g. "Common Stock", "ETF"
}

// Source maps identifiers to instruments. It is the external collaborator of
// the Resolver: typically a remote reference-data service.
//
// Lookup returns ErrNotFound (possibly wrapped) when it has no mapping. It
// must honour ctx cancellation.
type Source interface {
	Lookup(ctx context.Context, id Identifier) (Instrument, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, id Identifier) (Instrument, error)

func (f SourceFunc) Lookup(ctx context.Context, id Identifier) (Instrument, error) { return f(ctx, id) }

// Directory is an in-memory Source of known aliases.
type Directory struct {
	mu      sync.RWMutex
	aliases map[Identifier]Instrument
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{aliases: make(map[Identifier]Instrument)}
}

// Add registers raw, in the given scheme, as an alias of inst.
func (d *Directory) Add(raw string, scheme Scheme, inst Instrument) error {
	id, err := ParseIdentifier(raw, scheme)
	if err != nil {
		return err
	}
	if inst.Key.IsZero() {
		return fmt.Errorf("cannot add alias %s: instrument has no key", id)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.aliases[id] = inst
	return nil
}

// Lookup implements Source.
func (d *Directory) Lookup(ctx context.Context, id Identifier) (Instrument, error) {
	if err := ctx.Err(); err != nil {
		return Instrument{}, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	inst, ok := d.aliases[id]
	if !ok {
		return Instrument{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return inst, nil
}

// Sources chains sources: the first one that knows an identifier wins.
type Sources []Source

// Lookup implements Source.
func (s Sources) Lookup(ctx context.Context, id Identifier) (Instrument, error) {
	for _, src := range s {
		inst, err := src.Lookup(ctx, id)
		if err == nil {
			return inst, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Instrument{}, err
		}
	}
	return Instrument{}, fmt.Errorf("%s: %w", id, ErrNotFound)
}
