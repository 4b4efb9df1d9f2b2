package deskflow

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteBundle couples an Engine with the SQLite database it persists to, so
// callers that just want durable sessions don't have to manage the *sql.DB
// themselves.
type SQLiteBundle struct {
	Engine Engine
	DB     *sql.DB
}

// OpenSQLiteBundle opens (or creates) the database at path and returns an
// Engine persisting sessions and execution logs there.
//
// Typical usage:
//
//	bundle, err := deskflow.OpenSQLiteBundle("deskflow.db", deskflow.Options{
//	    Oracle:   oracle,
//	    Executor: executor,
//	})
//	defer bundle.Close()
//	summary, err := bundle.Engine.RunWorkflow(ctx, flow, params)
func OpenSQLiteBundle(path string, opts Options) (*SQLiteBundle, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_journal=WAL", path))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	eng, err := NewSQLiteEngine(db, opts)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteBundle{Engine: eng, DB: db}, nil
}

// Close closes the underlying database.
func (b *SQLiteBundle) Close() error {
	return b.DB.Close()
}
