package session

import (
	"maps"
	"sort"
	"sync"

	"github.com/aretw0/funnel/pkg/domain"
)

// Change describes one committed write to a Store.
type Change struct {
	// Prev and Next are snapshots taken around the write. Listeners must not mutate them.
	Prev *domain.State
	Next *domain.State
	// Fields lists the changed field keys, sorted.
	Fields []string
}

// Touches reports whether any of keys changed.
func (c Change) Touches(keys ...string) bool {
	for _, k := range keys {
		i := sort.SearchStrings(c.Fields, k)
		if i < len(c.Fields) && c.Fields[i] == k {
			return true
		}
	}
	return false
}

// Listener is notified after every write, outside the store lock.
type Listener func(Change)

// Store owns the State of one journey.
// Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	state *domain.State

	subMu     sync.Mutex
	listeners map[int]Listener
	nextSub   int
}

// NewStore creates a store holding initial.
func NewStore(initial *domain.State) *Store {
	if initial == nil {
		initial = domain.NewState("", "", "")
	}
	return &Store{
		state:     initial.Clone(),
		listeners: make(map[int]Listener),
	}
}

// State returns a copy of the current state.
func (s *Store) State() *domain.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Merge applies patch at the top level of Fields and returns the changed keys.
func (s *Store) Merge(patch domain.Patch) []string {
	if len(patch) == 0 {
		return nil
	}
	s.mu.Lock()
	prev := s.state.Clone()
	changed := domain.ChangedKeys(s.state.Fields, patch)
	if len(changed) == 0 {
		s.mu.Unlock()
		return nil
	}
	next := s.state.Clone()
	maps.Copy(next.Fields, patch)
	s.state = next
	s.mu.Unlock()

	s.notify(Change{Prev: prev, Next: next.Clone(), Fields: changed})
	return changed
}

// Update runs fn on a copy of the state and commits it.
// It is reserved to engine bookkeeping (step position, typing flag, history).
func (s *Store) Update(fn func(*domain.State)) {
	s.mu.Lock()
	prev := s.state
	next := prev.Clone()
	fn(next)
	s.state = next
	s.mu.Unlock()

	s.notify(Change{Prev: prev.Clone(), Next: next.Clone(), Fields: fieldKeys(prev.Fields, next.Fields)})
}

// Replace swaps the whole state, as done by a reset or a rehydration.
func (s *Store) Replace(state *domain.State) {
	s.Update(func(cur *domain.State) {
		*cur = *state.Clone()
	})
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.listeners[id] = l

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify(c Change) {
	s.subMu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.subMu.Unlock()

	for _, l := range listeners {
		l(c)
	}
}

func fieldKeys(old, new map[string]any) []string {
	delta := domain.DiffFields(old, new)
	if len(delta) == 0 {
		return nil
	}
	keys := make([]string, 0, len(delta))
	for k := range delta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
