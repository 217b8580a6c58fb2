// Package timeseries stores timestamped observations per instrument.
//
// A Store holds one Series per key. A Series is ordered by time and holds at
// most one Observation per instant: appending at an instant already present
// replaces the previous observation (last write wins), appending an exact
// duplicate is a no-op.
package timeseries

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind tells what an Observation measures.
type Kind string

const (
	Price    Kind = "price"
	Open     Kind = "open"
	High     Kind = "high"
	Low      Kind = "low"
	Close    Kind = "close"
	Volume   Kind = "volume"
	Quantity Kind = "quantity"
)

var kinds = map[Kind]bool{Price: true, Open: true, High: true, Low: true, Close: true, Volume: true, Quantity: true}

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !kinds[k] {
		return "", fmt.Errorf("unknown observation kind %q", s)
	}
	return k, nil
}

// ErrInvalidObservation is returned when an observation cannot be recorded.
var ErrInvalidObservation = errors.New("invalid observation")

// Observation is a single value measured at an instant.
type Observation struct {
	Time  time.Time
	Value decimal.Decimal
	Kind  Kind
}

// At is a shorthand to build an Observation.
func At(t time.Time, value decimal.Decimal, kind Kind) Observation {
	return Observation{Time: t, Value: value, Kind: kind}
}

// Validate returns an error wrapping ErrInvalidObservation if o cannot be recorded.
func (o Observation) Validate() error {
	if o.Time.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidObservation)
	}
	if !kinds[o.Kind] {
		return fmt.Errorf("%w: unknown kind %q at %s", ErrInvalidObservation, o.Kind, o.Time.Format(time.RFC3339))
	}
	return nil
}

// Equal reports whether o and x are the same observation.
func (o Observation) Equal(x Observation) bool {
	return o.Time.Equal(x.Time) && o.Value.Equal(x.Value) && o.Kind == x.Kind
}

func (o Observation) String() string {
	return fmt.Sprintf("%s %s=%s", o.Time.Format(time.RFC3339), o.Kind, o.Value)
}
