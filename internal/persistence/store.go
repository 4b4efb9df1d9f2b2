package persistence

import (
	"context"
	"errors"

	"github.com/jlaakso/deskflow/pkg/api"
)

var (
	// ErrSessionNotFound is returned when a session record is not found.
	ErrSessionNotFound = errors.New("session not found")
)

// SessionFilter is used to select session records from the store.
// Zero values mean "no filter" for that field.
type SessionFilter struct {
	Status api.SessionStatus
}

// SessionStore handles storage of session progress records.
type SessionStore interface {
	SaveSession(prog api.Progress) error
	UpdateSession(prog api.Progress) error
	GetSession(id string) (api.Progress, error)
	ListSessions(filter SessionFilter) ([]api.Progress, error)
}

// LogStore is an append-only store for workflow execution log entries.
// Entries are immutable once written; retries append new entries.
type LogStore interface {
	AppendEntry(ctx context.Context, entry api.ExecutionLogEntry) error
	ListEntries(ctx context.Context, sessionID string) ([]api.ExecutionLogEntry, error)
}

// NoopLogStore discards all entries.
type NoopLogStore struct{}

func (NoopLogStore) AppendEntry(ctx context.Context, entry api.ExecutionLogEntry) error { return nil }
func (NoopLogStore) ListEntries(ctx context.Context, sessionID string) ([]api.ExecutionLogEntry, error) {
	return nil, nil
}
