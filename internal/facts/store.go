// Package facts provides the Fact Store: canonical fact keys mapped to values,
// remembered per source document.
package facts

import (
	"sort"

	"github.com/jonathan/form-filler/internal/types"
)

// Sourced is one value of a fact together with the document it came from.
type Sourced struct {
	Source string `json:"source"`
	Value  string `json:"value"`
}

// Store holds the facts of one session. It is not safe for concurrent use;
// the owning session serializes access.
type Store struct {
	sources []string
	values  map[string]map[types.FactKey]string
	latest  map[types.FactKey]string
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		values: make(map[string]map[types.FactKey]string),
		latest: make(map[types.FactKey]string),
	}
}

// Put records a fact from source. Keys are canonicalized and values with no
// content are ignored. A later Put for the same key overwrites the earlier
// value for that source and in the merged view.
func (s *Store) Put(source, key string, value string) {
	value = normalizeValue(value)
	canonical := CanonicalKey(key)
	if value == "" || canonical == "" {
		return
	}

	bySource, ok := s.values[source]
	if !ok {
		bySource = make(map[types.FactKey]string)
		s.values[source] = bySource
		s.sources = append(s.sources, source)
	}
	bySource[canonical] = value
	s.latest[canonical] = value
}

// Merge records every fact of one extraction. Entries are applied in sorted
// key order so that aliases colliding on the same canonical key resolve the
// same way on every run.
func (s *Store) Merge(source string, facts map[string]string) {
	keys := make([]string, 0, len(facts))
	for k := range facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.Put(source, k, facts[k])
	}
}

// Get returns the latest value recorded for key across all sources.
func (s *Store) Get(key types.FactKey) (string, bool) {
	v, ok := s.latest[key]
	return v, ok
}

// Values returns one value per source holding key, in the order sources were first seen.
func (s *Store) Values(key types.FactKey) []Sourced {
	var out []Sourced
	for _, src := range s.sources {
		if v, ok := s.values[src][key]; ok {
			out = append(out, Sourced{Source: src, Value: v})
		}
	}
	return out
}

// Sources returns the source documents in first-seen order.
func (s *Store) Sources() []string {
	return append([]string(nil), s.sources...)
}

// Keys returns the distinct fact keys, sorted.
func (s *Store) Keys() []types.FactKey {
	keys := make([]types.FactKey, 0, len(s.latest))
	for k := range s.latest {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Len returns the number of distinct fact keys.
func (s *Store) Len() int {
	return len(s.latest)
}

// Snapshot returns a copy of the merged view.
func (s *Store) Snapshot() map[types.FactKey]string {
	out := make(map[types.FactKey]string, len(s.latest))
	for k, v := range s.latest {
		out[k] = v
	}
	return out
}
