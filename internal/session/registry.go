package session

import (
	"sync"

	"github.com/jlaakso/deskflow/internal/persistence"
)

// Registry tracks live sessions by identifier so progress queries and cleanup
// can reach sessions started elsewhere in the process.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	store    persistence.SessionStore
	clock    Clock
}

// NewRegistry creates a registry backed by the given store.
func NewRegistry(store persistence.SessionStore, clock Clock) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		store:    store,
		clock:    clock,
	}
}

// Create starts a new session and registers it.
func (r *Registry) Create(totalSteps int) (*Session, error) {
	s, err := New(r.store, totalSteps, r.clock)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()
	return s, nil
}

// Get returns the live session for id, falling back to the store for sessions
// registered by a previous process.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}
	return Load(r.store, id, r.clock)
}

// Destroy terminates the session if it is still running and removes it from
// the registry.
func (r *Registry) Destroy(id string) error {
	s, err := r.Get(id)
	if err != nil {
		return err
	}
	if err := s.Cleanup(); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
	return nil
}
