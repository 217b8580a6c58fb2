package palanca

import (
	"errors"
	"fmt"

	"github.com/etnz/palanca/timeseries"
)

var (
	// ErrInvalidFormat is matched by InvalidIdentifierFormatError.
	ErrInvalidFormat = errors.New("invalid identifier format")
	// ErrUnresolved is matched by UnresolvedIdentifierError.
	ErrUnresolved = errors.New("unresolved identifier")
	// ErrNotFound is returned by a Source that has no mapping for an identifier.
	ErrNotFound = errors.New("identifier not found")
	// ErrUnknownInstrument is matched by UnknownInstrumentError.
	ErrUnknownInstrument = timeseries.ErrUnknownInstrument
)

// UnknownInstrumentError reports a query on an instrument with no recorded series.
type UnknownInstrumentError = timeseries.UnknownInstrumentError

// InvalidIdentifierFormatError reports a malformed identifier: bad characters,
// bad length or a failing check digit. Retrying will not help.
type InvalidIdentifierFormatError struct {
	Raw    string
	Scheme Scheme // the hinted or inferred scheme
	Err    error
}

func (e *InvalidIdentifierFormatError) Error() string {
	if e.Scheme == "" {
		return fmt.Sprintf("invalid identifier %q: %v", e.Raw, e.Err)
	}
	return fmt.Sprintf("invalid %s identifier %q: %v", e.Scheme, e.Raw, e.Err)
}

func (e *InvalidIdentifierFormatError) Unwrap() error { return e.Err }

func (e *InvalidIdentifierFormatError) Is(target error) bool { return target == ErrInvalidFormat }

// UnresolvedIdentifierError reports a well formed identifier with no known
// mapping, or whose lookup failed. It may succeed later, once the source has
// the data or is reachable again.
type UnresolvedIdentifierError struct {
	Raw    string
	Scheme Scheme
	Err    error // the source error, if any
}

func (e *UnresolvedIdentifierError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cannot resolve %s identifier %q", e.Scheme, e.Raw)
	}
	return fmt.Sprintf("cannot resolve %s identifier %q: %v", e.Scheme, e.Raw, e.Err)
}

func (e *UnresolvedIdentifierError) Unwrap() error { return e.Err }

func (e *UnresolvedIdentifierError) Is(target error) bool { return target == ErrUnresolved }
