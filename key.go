package palanca

import (
	"fmt"
	"strings"
)

// Key is the canonical identity of an instrument.
//
// Keys are comparable values: two keys are equal if and only if they identify
// the same instrument. Use them as map keys.
type Key struct {
	scheme Scheme
	value  string
}

// canonical returns the deterministic key of a validated identifier.
func canonical(id Identifier) (Key, bool) {
	switch id.Scheme {
	case ISIN, CurrencyPair, Private:
		return Key{id.Scheme, id.Value}, true
	case MSSI:
		isin, _, err := SplitMSSI(id.Value)
		if err != nil {
			return Key{}, false
		}
		return Key{ISIN, isin}, true
	}
	return Key{}, false
}

// NewKey validates value in the given scheme and returns its key.
//
// It is meant for sources: it does not consult any mapping, and MSSI values
// become ISIN keys.
func NewKey(scheme Scheme, value string) (Key, error) {
	if scheme == "" {
		return Key{}, fmt.Errorf("cannot create a key without scheme")
	}
	id, err := ParseIdentifier(value, scheme)
	if err != nil {
		return Key{}, err
	}
	if k, ok := canonical(id); ok {
		return k, nil
	}
	return Key{id.Scheme, id.Value}, nil
}

// MustKey is like NewKey but panics on error.
func MustKey(scheme Scheme, value string) Key {
	k, err := NewKey(scheme, value)
	if err != nil {
		panic(err.Error())
	}
	return k
}

// ParseKey parses the output of Key.String.
func ParseKey(s string) (Key, error) {
	scheme, value, ok := strings.Cut(s, ":")
	if !ok {
		return Key{}, fmt.Errorf("invalid key %q: want SCHEME:VALUE", s)
	}
	sc, err := ParseScheme(scheme)
	if err != nil {
		return Key{}, fmt.Errorf("invalid key %q: %w", s, err)
	}
	return NewKey(sc, value)
}

// Scheme returns the scheme of the key.
func (k Key) Scheme() Scheme { return k.scheme }

// Value returns the normalized identifier of the key.
func (k Key) Value() string { return k.value }

// IsZero reports whether k is the zero key.
func (k Key) IsZero() bool { return k == Key{} }

// String returns "SCHEME:VALUE".
func (k Key) String() string {
	if k.IsZero() {
		return ""
	}
	return string(k.scheme) + ":" + k.value
}

// MarshalText implements encoding.TextMarshaler.
func (k Key) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Key) UnmarshalText(text []byte) error {
	v, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
