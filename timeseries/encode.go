package timeseries

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// The persisted format is JSONL: one observation per line, grouped by key and
// sorted by time, so that files stay readable and diff well under git.
//
//	{"key":"ISIN:US0378331005","on":"2024-01-02T00:00:00Z","kind":"close","value":186.5}

type jobservation struct {
	Key   string      `json:"key"`
	On    time.Time   `json:"on"`
	Kind  Kind        `json:"kind"`
	Value json.Number `json:"value"`
}

// Encode writes every observation of st to w. format turns a key into the
// string stored on each line.
func Encode[K comparable](w io.Writer, st *Store[K], format func(K) string) error {
	type entry struct {
		name string
		key  K
	}
	keys := st.Keys()
	entries := make([]entry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, entry{format(k), k})
	}
	slices.SortFunc(entries, func(a, b entry) int { return strings.Compare(a.name, b.name) })

	enc := json.NewEncoder(w)
	for _, e := range entries {
		obs, err := st.All(e.key)
		if err != nil {
			// removed concurrently, nothing to write.
			continue
		}
		for _, o := range obs {
			jo := jobservation{Key: e.name, On: o.Time, Kind: o.Kind, Value: json.Number(o.Value.String())}
			if err := enc.Encode(jo); err != nil {
				return fmt.Errorf("encode error: cannot write %s %s: %w", e.name, o, err)
			}
		}
	}
	return nil
}

// Decode reads observations written by Encode from r and appends them to st.
// name is for error messages only. parse turns a stored key string back into a key.
// Nothing is appended unless every line is valid.
func Decode[K comparable](r io.Reader, name string, st *Store[K], parse func(string) (K, error)) error {
	var keys []K
	staged := make(map[K][]Observation)
	scanner := bufio.NewScanner(r)
	i := 0
	for scanner.Scan() {
		i++
		line := scanner.Bytes()
		if strings.TrimSpace(string(line)) == "" {
			continue
		}
		var jo jobservation
		if err := json.Unmarshal(line, &jo); err != nil {
			return fmt.Errorf("parse error %s:%d: not a correct json: %w", name, i, err)
		}
		key, err := parse(jo.Key)
		if err != nil {
			return fmt.Errorf("parse error %s:%d: invalid key %q: %w", name, i, jo.Key, err)
		}
		value, err := decimal.NewFromString(jo.Value.String())
		if err != nil {
			return fmt.Errorf("parse error %s:%d: invalid value %q: %w", name, i, jo.Value, err)
		}
		o := At(jo.On, value, jo.Kind)
		if err := o.Validate(); err != nil {
			return fmt.Errorf("parse error %s:%d: cannot append to %v: %w", name, i, key, err)
		}
		if _, seen := staged[key]; !seen {
			keys = append(keys, key)
		}
		staged[key] = append(staged[key], o)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("cannot read %s: %w", name, err)
	}
	for _, key := range keys {
		if err := st.Append(key, staged[key]...); err != nil {
			return fmt.Errorf("cannot load %s: %w", name, err)
		}
	}
	return nil
}
