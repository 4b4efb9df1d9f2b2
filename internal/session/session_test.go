package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jlaakso/deskflow/internal/persistence"
	"github.com/jlaakso/deskflow/pkg/api"
)

func fixedClock(at time.Time) Clock {
	return func() time.Time { return at }
}

func TestNewSessionID(t *testing.T) {
	store := persistence.NewInMemoryStore()
	at := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	s, err := New(store, 5, fixedClock(at))
	require.NoError(t, err)
	require.Equal(t, "desk_20260314_150926", s.ID())

	prog, err := store.GetSession(s.ID())
	require.NoError(t, err)
	require.Equal(t, api.StatusInitialized, prog.Status)
	require.Equal(t, "0/5", prog.StepProgress)
	require.Equal(t, 5, prog.TotalSteps)
}

func TestMarkStepCompletedIdempotent(t *testing.T) {
	store := persistence.NewInMemoryStore()
	s, err := New(store, 3, nil)
	require.NoError(t, err)

	require.NoError(t, s.MarkStepCompleted("open_terminal", true))
	require.NoError(t, s.MarkStepCompleted("open_terminal", true))
	require.NoError(t, s.MarkStepCompleted("open_terminal", true))
	require.Equal(t, []string{"open_terminal"}, s.CompletedSteps())

	// A failed attempt does not count.
	require.NoError(t, s.MarkStepCompleted("clone_repository", false))
	require.Equal(t, []string{"open_terminal"}, s.CompletedSteps())

	require.NoError(t, s.MarkStepCompleted("clone_repository", true))
	require.Equal(t, []string{"open_terminal", "clone_repository"}, s.CompletedSteps())
}

func TestIsComplete(t *testing.T) {
	store := persistence.NewInMemoryStore()
	s, err := New(store, 2, nil)
	require.NoError(t, err)

	require.False(t, s.IsComplete())
	require.NoError(t, s.MarkStepCompleted("a", true))
	require.False(t, s.IsComplete())
	require.NoError(t, s.MarkStepCompleted("b", true))
	require.True(t, s.IsComplete())
}

func TestProgressRuntimeRounding(t *testing.T) {
	store := persistence.NewInMemoryStore()
	start := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	now := start

	s, err := New(store, 5, func() time.Time { return now })
	require.NoError(t, err)

	// 1 minute 20 seconds -> 1.33 minutes after rounding.
	now = start.Add(80 * time.Second)
	prog := s.Progress()
	require.Equal(t, 1.33, prog.RuntimeMinutes)
	require.Equal(t, start, prog.StartTime)
}

func TestCleanupOnlyTerminatesRunningSessions(t *testing.T) {
	store := persistence.NewInMemoryStore()
	s, err := New(store, 5, nil)
	require.NoError(t, err)

	require.NoError(t, s.Start())
	require.NoError(t, s.Cleanup())
	require.Equal(t, api.StatusTerminated, s.Progress().Status)

	done, err := New(store, 5, fixedClock(time.Date(2026, 3, 14, 12, 0, 1, 0, time.UTC)))
	require.NoError(t, err)
	require.NoError(t, done.Finish(api.StatusCompleted))
	require.NoError(t, done.Cleanup())
	require.Equal(t, api.StatusCompleted, done.Progress().Status)
}

func TestRegistryLifecycle(t *testing.T) {
	store := persistence.NewInMemoryStore()
	reg := NewRegistry(store, nil)

	s, err := reg.Create(5)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	got, err := reg.Get(s.ID())
	require.NoError(t, err)
	require.Equal(t, s.ID(), got.ID())

	require.NoError(t, reg.Destroy(s.ID()))
	prog, err := store.GetSession(s.ID())
	require.NoError(t, err)
	require.Equal(t, api.StatusTerminated, prog.Status)

	// After Destroy the registry falls back to the store.
	loaded, err := reg.Get(s.ID())
	require.NoError(t, err)
	require.Equal(t, api.StatusTerminated, loaded.Progress().Status)

	_, err = reg.Get("desk_unknown")
	require.ErrorIs(t, err, persistence.ErrSessionNotFound)
}
