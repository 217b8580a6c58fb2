package timeseries

import (
	"slices"
	"sync"
	"time"
)

// series is the chronological history of one key.
//
// The lock serializes writers and lets readers run concurrently.
type series struct {
	mu  sync.RWMutex
	obs []Observation
}

// search returns the index of the first observation at or after t, and
// whether an observation exists exactly at t.
func (s *series) search(t time.Time) (int, bool) {
	return slices.BinarySearchFunc(s.obs, t, func(o Observation, t time.Time) int { return o.Time.Compare(t) })
}

// append records already validated observations.
func (s *series) append(batch ...Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range batch {
		o.Time = o.Time.UTC()
		// Most writes land after the latest point.
		if last := len(s.obs) - 1; last < 0 || s.obs[last].Time.Before(o.Time) {
			s.obs = append(s.obs, o)
			continue
		}
		i, found := s.search(o.Time)
		if !found {
			s.obs = slices.Insert(s.obs, i, o)
			continue
		}
		if s.obs[i].Equal(o) {
			continue
		}
		// Same instant: the last write wins.
		s.obs[i] = o
	}
}

// window returns a copy of the observations in [from, to).
func (s *series) window(from, to time.Time) []Observation {
	if !from.Before(to) {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	lo, _ := s.search(from)
	hi, _ := s.search(to)
	return slices.Clone(s.obs[lo:hi])
}

// all returns a copy of every observation.
func (s *series) all() []Observation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.obs)
}

func (s *series) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.obs)
}

func (s *series) latest() (Observation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.obs) == 0 {
		return Observation{}, false
	}
	return s.obs[len(s.obs)-1], true
}

// asOf returns the observation at t, or the most recent one before it.
func (s *series) asOf(t time.Time) (Observation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, found := s.search(t)
	if found {
		return s.obs[i], true
	}
	// i is where t would be inserted, the previous point is the one we want.
	if i == 0 {
		return Observation{}, false
	}
	return s.obs[i-1], true
}
