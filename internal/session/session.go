// Package session tracks per-workflow session state: identity, status,
// completed steps and progress reporting.
package session

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jlaakso/deskflow/internal/persistence"
	"github.com/jlaakso/deskflow/pkg/api"
)

// Clock abstracts wall-clock reads so tests can control time.
type Clock func() time.Time

// Session is the mutable state of one workflow run. All methods are safe for
// concurrent use.
type Session struct {
	mu sync.Mutex

	id           string
	status       api.SessionStatus
	current      string
	completed    []string
	completedSet map[string]struct{}
	totalSteps   int
	startTime    time.Time

	clock Clock
	store persistence.SessionStore
}

// New creates a session with a wall-clock identifier (desk_YYYYMMDD_HHMMSS)
// and persists its initial state. Two sessions created within the same second
// share an identifier; callers that need stronger uniqueness should serialize
// session creation.
func New(store persistence.SessionStore, totalSteps int, clock Clock) (*Session, error) {
	if clock == nil {
		clock = time.Now
	}
	now := clock()

	s := &Session{
		id:           fmt.Sprintf("desk_%s", now.Format("20060102_150405")),
		status:       api.StatusInitialized,
		completedSet: make(map[string]struct{}),
		totalSteps:   totalSteps,
		startTime:    now,
		clock:        clock,
		store:        store,
	}
	if err := store.SaveSession(s.snapshotLocked()); err != nil {
		return nil, fmt.Errorf("persisting new session: %w", err)
	}
	return s, nil
}

// Load rebuilds a session from persisted progress.
func Load(store persistence.SessionStore, id string, clock Clock) (*Session, error) {
	if clock == nil {
		clock = time.Now
	}
	prog, err := store.GetSession(id)
	if err != nil {
		return nil, err
	}
	s := &Session{
		id:           prog.SessionID,
		status:       prog.Status,
		current:      prog.CurrentStep,
		completed:    append([]string(nil), prog.CompletedSteps...),
		completedSet: make(map[string]struct{}, len(prog.CompletedSteps)),
		totalSteps:   prog.TotalSteps,
		startTime:    prog.StartTime,
		clock:        clock,
		store:        store,
	}
	for _, step := range prog.CompletedSteps {
		s.completedSet[step] = struct{}{}
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Start marks the session running.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = api.StatusRunning
	return s.persistLocked()
}

// SetCurrentStep records the step the session is working on.
func (s *Session) SetCurrentStep(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = name
	return s.persistLocked()
}

// MarkStepCompleted records a step outcome. Successful completions are
// idempotent: marking the same step twice does not grow the completed list.
// A false success leaves the completed list untouched.
func (s *Session) MarkStepCompleted(name string, success bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if success {
		if _, seen := s.completedSet[name]; !seen {
			s.completedSet[name] = struct{}{}
			s.completed = append(s.completed, name)
		}
	}
	return s.persistLocked()
}

// Finish transitions the session to a terminal status.
func (s *Session) Finish(status api.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.current = ""
	return s.persistLocked()
}

// IsComplete reports whether every step has been marked completed.
func (s *Session) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalSteps > 0 && len(s.completed) >= s.totalSteps
}

// CompletedSteps returns a copy of the completed step names in completion
// order.
func (s *Session) CompletedSteps() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.completed...)
}

// Progress returns a point-in-time snapshot of the session.
func (s *Session) Progress() api.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Cleanup marks a still-running session terminated. Sessions that already
// reached a terminal status are left alone.
func (s *Session) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case api.StatusCompleted, api.StatusFailed, api.StatusTerminated:
		return nil
	}
	s.status = api.StatusTerminated
	s.current = ""
	return s.persistLocked()
}

func (s *Session) persistLocked() error {
	return s.store.UpdateSession(s.snapshotLocked())
}

func (s *Session) snapshotLocked() api.Progress {
	minutes := s.clock().Sub(s.startTime).Minutes()
	return api.Progress{
		SessionID:      s.id,
		Status:         s.status,
		CurrentStep:    s.current,
		StepProgress:   fmt.Sprintf("%d/%d", len(s.completed), s.totalSteps),
		CompletedSteps: append([]string(nil), s.completed...),
		TotalSteps:     s.totalSteps,
		RuntimeMinutes: math.Round(minutes*100) / 100,
		StartTime:      s.startTime,
	}
}
