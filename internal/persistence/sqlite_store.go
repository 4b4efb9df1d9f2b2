package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jlaakso/deskflow/pkg/api"
)

// SQLiteStore implements SessionStore and LogStore on top of SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	db *sql.DB
}

// Ensure SQLiteStore implements the interfaces.
var _ SessionStore = (*SQLiteStore)(nil)

var _ LogStore = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in the given database and
// returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			current_step TEXT NOT NULL DEFAULT '',
			completed_steps TEXT NOT NULL DEFAULT '[]',
			total_steps INTEGER NOT NULL,
			runtime_minutes REAL NOT NULL DEFAULT 0,
			started_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS execution_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			step TEXT NOT NULL,
			attempt INTEGER NOT NULL,
			action TEXT NOT NULL,
			parameters TEXT NOT NULL DEFAULT '{}',
			result TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			success INTEGER NOT NULL,
			completed INTEGER NOT NULL,
			at INTEGER NOT NULL,
			duration_ns INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_execution_log_session_id ON execution_log(session_id, id);
	`)
	return err
}

func (s *SQLiteStore) SaveSession(prog api.Progress) error {
	completed, err := json.Marshal(prog.CompletedSteps)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO sessions (id, status, current_step, completed_steps, total_steps, runtime_minutes, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		prog.SessionID,
		string(prog.Status),
		prog.CurrentStep,
		string(completed),
		prog.TotalSteps,
		prog.RuntimeMinutes,
		prog.StartTime.UnixNano(),
	)
	return err
}

func (s *SQLiteStore) UpdateSession(prog api.Progress) error {
	completed, err := json.Marshal(prog.CompletedSteps)
	if err != nil {
		return err
	}

	res, err := s.db.Exec(`
		UPDATE sessions
		SET status = ?, current_step = ?, completed_steps = ?, total_steps = ?, runtime_minutes = ?, started_at = ?
		WHERE id = ?`,
		string(prog.Status),
		prog.CurrentStep,
		string(completed),
		prog.TotalSteps,
		prog.RuntimeMinutes,
		prog.StartTime.UnixNano(),
		prog.SessionID,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSessionNotFound
	}

	return nil
}

func (s *SQLiteStore) GetSession(id string) (api.Progress, error) {
	row := s.db.QueryRow(`
		SELECT id, status, current_step, completed_steps, total_steps, runtime_minutes, started_at
		FROM sessions
		WHERE id = ?`,
		id,
	)

	prog, err := scanSession(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return api.Progress{}, ErrSessionNotFound
		}
		return api.Progress{}, err
	}
	return prog, nil
}

func (s *SQLiteStore) ListSessions(filter SessionFilter) ([]api.Progress, error) {
	query := `
		SELECT id, status, current_step, completed_steps, total_steps, runtime_minutes, started_at
		FROM sessions`
	var args []any

	if filter.Status != "" {
		query += " WHERE status = ?"
		args = append(args, string(filter.Status))
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []api.Progress
	for rows.Next() {
		prog, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, prog)
	}
	return sessions, rows.Err()
}

func scanSession(scan func(dest ...any) error) (api.Progress, error) {
	var (
		prog      api.Progress
		statusStr string
		completed string
		startedNs int64
	)
	if err := scan(&prog.SessionID, &statusStr, &prog.CurrentStep, &completed, &prog.TotalSteps, &prog.RuntimeMinutes, &startedNs); err != nil {
		return api.Progress{}, err
	}

	prog.Status = api.SessionStatus(statusStr)
	prog.StartTime = time.Unix(0, startedNs)
	if err := json.Unmarshal([]byte(completed), &prog.CompletedSteps); err != nil {
		return api.Progress{}, err
	}
	prog.StepProgress = stepProgress(len(prog.CompletedSteps), prog.TotalSteps)
	return prog, nil
}

func (s *SQLiteStore) AppendEntry(ctx context.Context, entry api.ExecutionLogEntry) error {
	params, err := json.Marshal(entry.Outcome.Parameters)
	if err != nil {
		return err
	}

	at := entry.Timestamp
	if at.IsZero() {
		at = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO execution_log (session_id, step, attempt, action, parameters, result, error, success, completed, at, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.SessionID,
		entry.Step,
		entry.Attempt,
		entry.Outcome.Action,
		string(params),
		entry.Outcome.Result,
		entry.Err,
		boolToInt(entry.Success),
		boolToInt(entry.Outcome.Completed),
		at.UnixNano(),
		entry.Duration.Nanoseconds(),
	)
	return err
}

func (s *SQLiteStore) ListEntries(ctx context.Context, sessionID string) ([]api.ExecutionLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, step, attempt, action, parameters, result, error, success, completed, at, duration_ns
		FROM execution_log
		WHERE session_id = ?
		ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []api.ExecutionLogEntry
	for rows.Next() {
		var (
			entry      api.ExecutionLogEntry
			params     string
			success    int
			completed  int
			atNs       int64
			durationNs int64
		)
		if err := rows.Scan(
			&entry.SessionID,
			&entry.Step,
			&entry.Attempt,
			&entry.Outcome.Action,
			&params,
			&entry.Outcome.Result,
			&entry.Err,
			&success,
			&completed,
			&atNs,
			&durationNs,
		); err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(params), &entry.Outcome.Parameters); err != nil {
			return nil, err
		}
		entry.Success = success != 0
		entry.Outcome.Completed = completed != 0
		entry.Timestamp = time.Unix(0, atNs)
		entry.Outcome.Timestamp = entry.Timestamp
		entry.Duration = time.Duration(durationNs)

		out = append(out, entry)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func stepProgress(completed, total int) string {
	return strconv.Itoa(completed) + "/" + strconv.Itoa(total)
}
