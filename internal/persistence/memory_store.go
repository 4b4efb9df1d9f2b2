package persistence

import (
	"context"
	"sync"

	"github.com/jlaakso/deskflow/pkg/api"
)

// InMemoryStore is a simple, goroutine-safe implementation of SessionStore
// and LogStore backed by maps.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]api.Progress
	entries  map[string][]api.ExecutionLogEntry
}

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]api.Progress),
		entries:  make(map[string][]api.ExecutionLogEntry),
	}
}

// Ensure InMemoryStore implements the interfaces.
var _ SessionStore = (*InMemoryStore)(nil)

var _ LogStore = (*InMemoryStore)(nil)

func (s *InMemoryStore) SaveSession(prog api.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[prog.SessionID] = cloneProgress(prog)
	return nil
}

func (s *InMemoryStore) UpdateSession(prog api.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[prog.SessionID]; !ok {
		return ErrSessionNotFound
	}
	s.sessions[prog.SessionID] = cloneProgress(prog)
	return nil
}

func (s *InMemoryStore) GetSession(id string) (api.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prog, ok := s.sessions[id]
	if !ok {
		return api.Progress{}, ErrSessionNotFound
	}
	return cloneProgress(prog), nil
}

func (s *InMemoryStore) ListSessions(filter SessionFilter) ([]api.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []api.Progress
	for _, prog := range s.sessions {
		if filter.Status != "" && prog.Status != filter.Status {
			continue
		}
		out = append(out, cloneProgress(prog))
	}
	return out, nil
}

func (s *InMemoryStore) AppendEntry(ctx context.Context, entry api.ExecutionLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.SessionID] = append(s.entries[entry.SessionID], entry)
	return nil
}

func (s *InMemoryStore) ListEntries(ctx context.Context, sessionID string) ([]api.ExecutionLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.entries[sessionID]
	out := make([]api.ExecutionLogEntry, len(stored))
	copy(out, stored)
	return out, nil
}

func cloneProgress(prog api.Progress) api.Progress {
	out := prog
	out.CompletedSteps = make([]string, len(prog.CompletedSteps))
	copy(out.CompletedSteps, prog.CompletedSteps)
	return out
}
