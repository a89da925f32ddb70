// Package state holds the query state of each visitor and notifies
// observers when part of it changes.
package state

import (
	"errors"
	"slices"
	"sort"
	"sync"

	"github.com/ukydev/carclub/internal/models"
)

// ErrInvalidView is returned by SetView for modes other than grid and map.
var ErrInvalidView = errors.New("invalid view mode")

// Key names the part of a QueryState an observer listens to.
type Key string

const (
	KeyFilters  Key = "filters"
	KeySort     Key = "sort"
	KeyLocation Key = "location"
	KeyView     Key = "view"
)

// Keys lists every observable key.
var Keys = []Key{KeyFilters, KeySort, KeyLocation, KeyView}

// Event describes one change. State and Previous are full snapshots.
type Event struct {
	SessionID string
	Key       Key
	State     models.QueryState
	Previous  models.QueryState
}

// Observer is told about changes to the keys it subscribed to.
type Observer interface {
	StateChanged(Event)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) StateChanged(e Event) { f(e) }

// PriceUpdate changes one or both price bounds. A nil side keeps its
// current value.
type PriceUpdate struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

// FilterUpdate is a partial filter change. Nil fields are left as they are.
type FilterUpdate struct {
	PriceRange *PriceUpdate `json:"price_range,omitempty"`
	Types      *[]string          `json:"types,omitempty"`
	Features   *[]string          `json:"features,omitempty"`
}

type subscription struct {
	id       int
	observer Observer
}

// Store owns the QueryState of one visitor. It is safe for concurrent use;
// observers run after the lock is released, in subscription order.
type Store struct {
	mu     sync.Mutex
	id     string
	bounds models.PriceRange
	state  models.QueryState
	subs   map[Key][]subscription
	nextID int
}

// Default is the initial state for a fleet whose prices span bounds.
func Default(bounds models.PriceRange) models.QueryState {
	return models.QueryState{
		PriceRange: bounds,
		Types:      []string{},
		Features:   []string{},
		Sort:       models.SortPriceAsc,
		View:       models.ViewGrid,
	}
}

// NewStore creates a store in the default state.
func NewStore(id string, bounds models.PriceRange) *Store {
	return &Store{
		id:     id,
		bounds: bounds,
		state:  Default(bounds),
		subs:   make(map[Key][]subscription),
	}
}

// ID returns the session id the store was created with.
func (s *Store) ID() string { return s.id }

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() models.QueryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers o for changes to key. The returned func removes it.
func (s *Store) Subscribe(key Key, o Observer) (cancel func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[key] = append(s.subs[key], subscription{id: id, observer: o})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			subs := s.subs[key]
			for i, sub := range subs {
				if sub.id == id {
					s.subs[key] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
		})
	}
}

// UpdateFilters merges u into the filters. Price bounds are clamped to the
// fleet range; they are swapped only when both are given. Types and features
// are de-duplicated and sorted.
func (s *Store) UpdateFilters(u FilterUpdate) models.QueryState {
	return s.mutate(KeyFilters, func(st *models.QueryState) {
		if p := u.PriceRange; p != nil {
			price := st.PriceRange
			if p.Min != nil {
				price.Min = *p.Min
			}
			if p.Max != nil {
				price.Max = *p.Max
			}
			if p.Min != nil && p.Max != nil {
				price = price.Ordered()
			}
			st.PriceRange = price.Clamp(s.bounds)
		}
		if u.Types != nil {
			st.Types = normalizeSet(*u.Types)
		}
		if u.Features != nil {
			st.Features = normalizeSet(*u.Features)
		}
	})
}

// ClearFilters restores the default filters. Sort, location and view stay.
func (s *Store) ClearFilters() models.QueryState {
	return s.mutate(KeyFilters, func(st *models.QueryState) {
		def := Default(s.bounds)
		st.PriceRange = def.PriceRange
		st.Types = def.Types
		st.Features = def.Features
	})
}

// SetSort selects the ordering. Unknown keys become price-asc.
func (s *Store) SetSort(key models.SortKey) models.QueryState {
	if !models.IsValidSortKey(key) {
		key = models.SortPriceAsc
	}
	return s.mutate(KeySort, func(st *models.QueryState) { st.Sort = key })
}

// SetLocation records the visitor's coordinate. Nil withdraws it.
func (s *Store) SetLocation(loc *models.Location) models.QueryState {
	return s.mutate(KeyLocation, func(st *models.QueryState) {
		if loc == nil {
			st.UserLocation = nil
			return
		}
		l := *loc
		st.UserLocation = &l
	})
}

// SetView switches between grid and map.
func (s *Store) SetView(mode models.ViewMode) (models.QueryState, error) {
	if mode != models.ViewGrid && mode != models.ViewMap {
		return s.Snapshot(), ErrInvalidView
	}
	return s.mutate(KeyView, func(st *models.QueryState) { st.View = mode }), nil
}

// Reset returns every key to its default and notifies each changed key.
func (s *Store) Reset() models.QueryState {
	s.mu.Lock()
	prev := s.state.Clone()
	s.state = Default(s.bounds)
	next := s.state.Clone()
	var pending []func()
	for _, key := range Keys {
		if changed(key, prev, next) {
			pending = append(pending, s.dispatch(key, prev, next)...)
		}
	}
	s.mu.Unlock()

	for _, call := range pending {
		call()
	}
	return next
}

func (s *Store) mutate(key Key, apply func(*models.QueryState)) models.QueryState {
	s.mu.Lock()
	prev := s.state.Clone()
	apply(&s.state)
	next := s.state.Clone()
	var pending []func()
	if changed(key, prev, next) {
		pending = s.dispatch(key, prev, next)
	}
	s.mu.Unlock()

	for _, call := range pending {
		call()
	}
	return next
}

// dispatch must be called with s.mu held.
func (s *Store) dispatch(key Key, prev, next models.QueryState) []func() {
	subs := s.subs[key]
	calls := make([]func(), 0, len(subs))
	for _, sub := range subs {
		o := sub.observer
		e := Event{SessionID: s.id, Key: key, State: next.Clone(), Previous: prev.Clone()}
		calls = append(calls, func() { o.StateChanged(e) })
	}
	return calls
}

func changed(key Key, a, b models.QueryState) bool {
	switch key {
	case KeyFilters:
		return a.PriceRange != b.PriceRange || !slices.Equal(a.Types, b.Types) || !slices.Equal(a.Features, b.Features)
	case KeySort:
		return a.Sort != b.Sort
	case KeyLocation:
		if a.UserLocation == nil || b.UserLocation == nil {
			return a.UserLocation != b.UserLocation
		}
		return *a.UserLocation != *b.UserLocation
	case KeyView:
		return a.View != b.View
	}
	return false
}

func normalizeSet(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
