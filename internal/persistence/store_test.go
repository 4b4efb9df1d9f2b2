package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jlaakso/deskflow/pkg/api"
)

// store combines the two interfaces so conformance tests can run against any
// backend that implements both.
type store interface {
	SessionStore
	LogStore
}

type storeFactory func(t *testing.T) store

func memoryStore(t *testing.T) store {
	t.Helper()
	return NewInMemoryStore()
}

func sqliteStore(t *testing.T) store {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	s, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	return s
}

func storeFactories() map[string]storeFactory {
	return map[string]storeFactory{
		"in-memory": memoryStore,
		"sqlite":    sqliteStore,
	}
}

func sampleProgress(id string) api.Progress {
	return api.Progress{
		SessionID:      id,
		Status:         api.StatusRunning,
		CurrentStep:    "clone_repository",
		CompletedSteps: []string{"open_terminal"},
		TotalSteps:     8,
		RuntimeMinutes: 1.25,
		StartTime:      time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

func TestSessionStore_SaveGetUpdate(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)

			prog := sampleProgress("desk_1")
			if err := s.SaveSession(prog); err != nil {
				t.Fatalf("SaveSession failed: %v", err)
			}

			got, err := s.GetSession("desk_1")
			if err != nil {
				t.Fatalf("GetSession failed: %v", err)
			}
			if got.Status != api.StatusRunning {
				t.Fatalf("expected status running, got %q", got.Status)
			}
			if got.CurrentStep != "clone_repository" {
				t.Fatalf("unexpected current step %q", got.CurrentStep)
			}
			if len(got.CompletedSteps) != 1 || got.CompletedSteps[0] != "open_terminal" {
				t.Fatalf("unexpected completed steps %v", got.CompletedSteps)
			}

			prog.Status = api.StatusCompleted
			prog.CompletedSteps = append(prog.CompletedSteps, "clone_repository")
			if err := s.UpdateSession(prog); err != nil {
				t.Fatalf("UpdateSession failed: %v", err)
			}

			got, err = s.GetSession("desk_1")
			if err != nil {
				t.Fatalf("GetSession after update failed: %v", err)
			}
			if got.Status != api.StatusCompleted {
				t.Fatalf("expected status completed, got %q", got.Status)
			}
			if len(got.CompletedSteps) != 2 {
				t.Fatalf("expected 2 completed steps, got %v", got.CompletedSteps)
			}
		})
	}
}

func TestSessionStore_NotFound(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)

			if _, err := s.GetSession("nope"); err != ErrSessionNotFound {
				t.Fatalf("expected ErrSessionNotFound, got %v", err)
			}
			if err := s.UpdateSession(sampleProgress("nope")); err != ErrSessionNotFound {
				t.Fatalf("expected ErrSessionNotFound on update, got %v", err)
			}
		})
	}
}

func TestSessionStore_ListFiltersByStatus(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)

			running := sampleProgress("desk_run")
			failed := sampleProgress("desk_fail")
			failed.Status = api.StatusFailed

			if err := s.SaveSession(running); err != nil {
				t.Fatalf("SaveSession failed: %v", err)
			}
			if err := s.SaveSession(failed); err != nil {
				t.Fatalf("SaveSession failed: %v", err)
			}

			all, err := s.ListSessions(SessionFilter{})
			if err != nil {
				t.Fatalf("ListSessions failed: %v", err)
			}
			if len(all) != 2 {
				t.Fatalf("expected 2 sessions, got %d", len(all))
			}

			failedOnly, err := s.ListSessions(SessionFilter{Status: api.StatusFailed})
			if err != nil {
				t.Fatalf("ListSessions failed: %v", err)
			}
			if len(failedOnly) != 1 || failedOnly[0].SessionID != "desk_fail" {
				t.Fatalf("unexpected filtered result: %+v", failedOnly)
			}
		})
	}
}

func TestLogStore_AppendPreservesOrder(t *testing.T) {
	ctx := context.Background()

	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)

			entries := []api.ExecutionLogEntry{
				{
					SessionID: "desk_1",
					Step:      "clone_repository",
					Attempt:   1,
					Outcome: api.Outcome{
						Action:     api.ActionRunCommand,
						Parameters: map[string]any{"command": "git clone https://github.com/a/b"},
						Result:     "fatal: repository not found",
					},
					Success:   false,
					Timestamp: time.Date(2026, 3, 14, 12, 0, 1, 0, time.UTC),
					Duration:  3 * time.Second,
				},
				{
					SessionID: "desk_1",
					Step:      "clone_repository",
					Attempt:   2,
					Outcome: api.Outcome{
						Action:     api.ActionRunCommand,
						Parameters: map[string]any{"command": "git clone https://github.com/a/b"},
						Result:     "Cloning into 'b'...",
					},
					Success:   true,
					Timestamp: time.Date(2026, 3, 14, 12, 0, 9, 0, time.UTC),
					Duration:  5 * time.Second,
				},
			}

			for _, e := range entries {
				if err := s.AppendEntry(ctx, e); err != nil {
					t.Fatalf("AppendEntry failed: %v", err)
				}
			}

			got, err := s.ListEntries(ctx, "desk_1")
			if err != nil {
				t.Fatalf("ListEntries failed: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("expected 2 entries, got %d", len(got))
			}
			if got[0].Attempt != 1 || got[1].Attempt != 2 {
				t.Fatalf("entries out of order: %+v", got)
			}
			if got[1].Outcome.Action != api.ActionRunCommand {
				t.Fatalf("unexpected action %q", got[1].Outcome.Action)
			}
			if !got[1].Success {
				t.Fatalf("expected second attempt to be recorded as success")
			}
			if got[0].Duration != 3*time.Second {
				t.Fatalf("unexpected duration %v", got[0].Duration)
			}

			// Unknown session yields an empty log, not an error.
			empty, err := s.ListEntries(ctx, "desk_other")
			if err != nil {
				t.Fatalf("ListEntries failed: %v", err)
			}
			if len(empty) != 0 {
				t.Fatalf("expected empty log, got %d entries", len(empty))
			}
		})
	}
}
