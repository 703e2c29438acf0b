// Package store implements the round-indexed tensor table shared by the
// coordinator and the collaborators' host process. It is an append-mostly
// keyed store: records are inserted as whole units, looked up by exact key,
// traversed in sorted order and evicted by a sliding round window. There is
// no in-place mutation and no persistence; one store lives per process.
package store

import (
	"fmt"
	"iter"
	"sort"
	"strings"
	"sync"

	"github.com/fedstack/tensordb/pkg/errors"
	"github.com/fedstack/tensordb/tensor"
)

// OrderField selects the sort key for Iterate.
type OrderField uint8

const (
	OrderByRound OrderField = iota
	OrderByName
	OrderByOrigin
)

// String returns the field name used in diagnostics.
func (f OrderField) String() string {
	switch f {
	case OrderByRound:
		return "round"
	case OrderByName:
		return "name"
	case OrderByOrigin:
		return "origin"
	default:
		return "unknown"
	}
}

// Store is the in-memory tensor table.
//
// Locking discipline: writers (Insert, Evict) serialize on the write side of
// the RWMutex and hold it only for the mutation itself. Readers take the
// read lock just long enough to snapshot the state they need and never hold
// any lock while aggregation or other slow work runs. Records are written
// once per round and never mutated, but slice growth still races with
// readers, so reads take the cheap read side rather than going lockless.
type Store struct {
	mu      sync.RWMutex
	records []tensor.Record
	// index maps a key's canonical ID to the position of the most recently
	// inserted record under that key. Inserts never reject duplicates; on a
	// duplicate key the lookup policy is most-recent-wins.
	index map[string]int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		index: make(map[string]int),
	}
}

// Insert appends one record per entry. Payloads are deep-copied: the store
// exclusively owns stored arrays. Duplicate keys are appended as-is and
// shadow earlier entries for Lookup.
func (s *Store) Insert(records []tensor.Record) {
	owned := make([]tensor.Record, 0, len(records))
	for _, r := range records {
		owned = append(owned, tensor.Record{Key: r.Key, Value: r.Value.Clone()})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range owned {
		s.records = append(s.records, r)
		s.index[r.Key.ID()] = len(s.records) - 1
	}
}

// Lookup returns a copy of the tensor stored under the exact key, or false
// if no record matches. When duplicates exist the most recently inserted
// record wins.
func (s *Store) Lookup(key tensor.Key) (tensor.Tensor, bool) {
	s.mu.RLock()
	i, ok := s.index[key.ID()]
	var value tensor.Tensor
	if ok {
		value = s.records[i].Value
	}
	s.mu.RUnlock()

	if !ok {
		return tensor.Tensor{}, false
	}
	// Stored payloads are immutable, so cloning outside the lock is safe.
	return value.Clone(), true
}

// Len returns the number of stored records, duplicates included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// Iterate returns a lazy, restartable traversal of the table sorted by the
// requested field. Each restart takes a fresh snapshot; yielded records
// carry deep-copied payloads, cloned only as the sequence is consumed.
// Aggregation functions use this as their historical context.
func (s *Store) Iterate(orderBy OrderField, ascending bool) iter.Seq[tensor.Record] {
	return func(yield func(tensor.Record) bool) {
		s.mu.RLock()
		snapshot := make([]tensor.Record, len(s.records))
		copy(snapshot, s.records)
		s.mu.RUnlock()

		sort.SliceStable(snapshot, func(i, j int) bool {
			var less bool
			switch orderBy {
			case OrderByName:
				less = snapshot[i].Key.Name < snapshot[j].Key.Name
			case OrderByOrigin:
				less = snapshot[i].Key.Origin < snapshot[j].Key.Origin
			default:
				less = snapshot[i].Key.Round < snapshot[j].Key.Round
			}
			if ascending {
				return less
			}
			return !less && !keyFieldEqual(snapshot[i].Key, snapshot[j].Key, orderBy)
		})

		for _, r := range snapshot {
			if !yield(tensor.Record{Key: r.Key, Value: r.Value.Clone()}) {
				return
			}
		}
	}
}

func keyFieldEqual(a, b tensor.Key, field OrderField) bool {
	switch field {
	case OrderByName:
		return a.Name == b.Name
	case OrderByOrigin:
		return a.Origin == b.Origin
	default:
		return a.Round == b.Round
	}
}

// Evict applies the sliding-window retention policy: only records with
// round > maxRound - olderThan survive. Recency is defined purely by the
// round field, never by access time. A negative window disables eviction
// and is a no-op. Evicting an empty store returns ErrEmptyStore since there
// is no current round to anchor the window on.
func (s *Store) Evict(olderThan int) (int, error) {
	if olderThan < 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) == 0 {
		return 0, errors.ErrEmptyStore
	}

	var current uint64
	for _, r := range s.records {
		if r.Key.Round > current {
			current = r.Key.Round
		}
	}

	retained := s.records[:0:0]
	for _, r := range s.records {
		if r.Key.Round+uint64(olderThan) > current {
			retained = append(retained, r)
		}
	}

	removed := len(s.records) - len(retained)
	s.records = retained
	s.index = make(map[string]int, len(retained))
	for i, r := range retained {
		s.index[r.Key.ID()] = i
	}

	return removed, nil
}

// Keys returns the keys of all stored records in insertion order,
// duplicates included. Payloads are not exposed.
func (s *Store) Keys() []tensor.Key {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]tensor.Key, len(s.records))
	for i, r := range s.records {
		keys[i] = r.Key
	}
	return keys
}

// String renders the diagnostic dump of all stored keys, payloads excluded.
func (s *Store) String() string {
	keys := s.Keys()

	var b strings.Builder
	b.WriteString("TensorStore contents:\n")
	for i, k := range keys {
		fmt.Fprintf(&b, "%6d  %s\n", i, k)
	}
	return b.String()
}
