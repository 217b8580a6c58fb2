package timeseries

import (
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"
)

// ErrUnknownInstrument is matched by UnknownInstrumentError.
var ErrUnknownInstrument = errors.New("unknown instrument")

// UnknownInstrumentError reports a read on a key that has no series.
//
// It is not exceptional: callers usually treat it as "no data yet".
type UnknownInstrumentError struct {
	Key string
}

func (e *UnknownInstrumentError) Error() string {
	return fmt.Sprintf("unknown instrument %s: no series recorded", e.Key)
}

func (e *UnknownInstrumentError) Is(target error) bool { return target == ErrUnknownInstrument }

// Store holds one chronological series per key.
//
// Writes to the same key are serialized; reads and writes on different keys
// proceed concurrently. The zero value is not usable, use NewStore.
type Store[K comparable] struct {
	mu     sync.RWMutex
	series map[K]*series
}

// NewStore returns an empty store.
func NewStore[K comparable]() *Store[K] {
	return &Store[K]{series: make(map[K]*series)}
}

func (st *Store[K]) lookup(key K) (*series, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.series[key]
	return s, ok
}

// Append records observations in key's series, creating it if needed.
//
// All observations are validated before any is recorded: on error the series
// is left unchanged.
func (st *Store[K]) Append(key K, obs ...Observation) error {
	for _, o := range obs {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("cannot append to %v: %w", key, err)
		}
	}
	if len(obs) == 0 {
		return nil
	}

	s, ok := st.lookup(key)
	if !ok {
		st.mu.Lock()
		if s, ok = st.series[key]; !ok {
			s = new(series)
			st.series[key] = s
		}
		st.mu.Unlock()
	}
	s.append(obs...)
	return nil
}

// Query returns the observations of key in [from, to), in ascending time order.
//
// The sequence is lazy: it reads the series each time it is iterated, so it
// can be ranged over several times and always reflects prior writes.
func (st *Store[K]) Query(key K, from, to time.Time) (iter.Seq[Observation], error) {
	s, ok := st.lookup(key)
	if !ok {
		return nil, &UnknownInstrumentError{Key: fmt.Sprint(key)}
	}
	return func(yield func(Observation) bool) {
		for _, o := range s.window(from, to) {
			if !yield(o) {
				return
			}
		}
	}, nil
}

// All returns every observation of key, in ascending time order.
func (st *Store[K]) All(key K) ([]Observation, error) {
	s, ok := st.lookup(key)
	if !ok {
		return nil, &UnknownInstrumentError{Key: fmt.Sprint(key)}
	}
	return s.all(), nil
}

// Latest returns the most recent observation of key.
func (st *Store[K]) Latest(key K) (Observation, error) {
	s, ok := st.lookup(key)
	if !ok {
		return Observation{}, &UnknownInstrumentError{Key: fmt.Sprint(key)}
	}
	o, ok := s.latest()
	if !ok {
		return Observation{}, &UnknownInstrumentError{Key: fmt.Sprint(key)}
	}
	return o, nil
}

// AsOf returns the observation of key at t, or the most recent one before t.
// It returns false if there is none.
func (st *Store[K]) AsOf(key K, t time.Time) (Observation, bool) {
	s, ok := st.lookup(key)
	if !ok {
		return Observation{}, false
	}
	return s.asOf(t)
}

// Len returns the number of observations recorded for key.
func (st *Store[K]) Len(key K) int {
	s, ok := st.lookup(key)
	if !ok {
		return 0
	}
	return s.len()
}

// Has reports whether key has a series.
func (st *Store[K]) Has(key K) bool {
	_, ok := st.lookup(key)
	return ok
}

// Keys returns the keys that have a series, in no particular order.
func (st *Store[K]) Keys() []K {
	st.mu.RLock()
	defer st.mu.RUnlock()
	keys := make([]K, 0, len(st.series))
	for k := range st.series {
		keys = append(keys, k)
	}
	return keys
}

// Remove drops the series of key.
func (st *Store[K]) Remove(key K) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.series, key)
}
