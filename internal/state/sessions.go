package state

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/carclub/internal/models"
)

// Sessions is the registry of visitor stores keyed by session id.
type Sessions struct {
	mu        sync.RWMutex
	bounds    models.PriceRange
	stores    map[string]*session
	observers []Observer
	now       func() time.Time
}

type session struct {
	store    *Store
	lastSeen time.Time
}

// NewSessions creates an empty registry. Every observer is subscribed to
// all keys of each store the registry creates.
func NewSessions(bounds models.PriceRange, observers ...Observer) *Sessions {
	return &Sessions{
		bounds:    bounds,
		stores:    make(map[string]*session),
		observers: observers,
		now:       time.Now,
	}
}

// Create opens a new session with a random UUID.
func (r *Sessions) Create() *Store {
	store := NewStore(uuid.NewString(), r.bounds)
	for _, o := range r.observers {
		for _, key := range Keys {
			store.Subscribe(key, o)
		}
	}

	r.mu.Lock()
	r.stores[store.ID()] = &session{store: store, lastSeen: r.now()}
	r.mu.Unlock()
	return store
}

// Get looks a session up and marks it as seen.
func (r *Sessions) Get(id string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[id]
	if !ok {
		return nil, false
	}
	s.lastSeen = r.now()
	return s.store, true
}

// Delete drops a session and reports whether it existed.
func (r *Sessions) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stores[id]; !ok {
		return false
	}
	delete(r.stores, id)
	return true
}

// Len is the number of open sessions.
func (r *Sessions) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stores)
}

// Sweep drops sessions not seen for longer than idle and returns how many
// were dropped.
func (r *Sessions) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for id, s := range r.stores {
		if s.lastSeen.Before(cutoff) {
			delete(r.stores, id)
			dropped++
		}
	}
	return dropped
}

// Expire sweeps idle sessions every interval until ctx is done.
func (r *Sessions) Expire(ctx context.Context, idle, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 {
				log.WithFields(log.Fields{"dropped": n, "open": r.Len()}).Info("Expired idle sessions")
			}
		}
	}
}
