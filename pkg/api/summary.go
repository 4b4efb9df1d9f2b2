package api

import (
	"math"
	"time"
)

// SessionStatus is the lifecycle state of a workflow session.
type SessionStatus string

const (
	StatusInitialized SessionStatus = "initialized"
	StatusRunning     SessionStatus = "running"
	StatusCompleted   SessionStatus = "completed"
	StatusFailed      SessionStatus = "failed"
	StatusTerminated  SessionStatus = "terminated"
)

// Progress is a point-in-time view of a session.
type Progress struct {
	SessionID      string        `json:"session_id"`
	Status         SessionStatus `json:"status"`
	CurrentStep    string        `json:"current_step"`
	StepProgress   string        `json:"step_progress"` // "completed/total"
	CompletedSteps []string      `json:"completed_steps"`
	TotalSteps     int           `json:"total_steps"`
	RuntimeMinutes float64       `json:"runtime_minutes"`
	StartTime      time.Time     `json:"start_time"`
}

// ExecutionLogEntry records one attempt of one workflow step. Entries are
// append-only: retries add new entries and never rewrite prior ones.
type ExecutionLogEntry struct {
	SessionID string        `json:"session_id"`
	Step      string        `json:"step"`
	Attempt   int           `json:"attempt"`
	Outcome   Outcome       `json:"outcome"`
	Err       string        `json:"error,omitempty"`
	Success   bool          `json:"success"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
}

// WorkflowSummary aggregates a workflow run for the caller.
type WorkflowSummary struct {
	SessionID      string              `json:"session_id"`
	Success        bool                `json:"success"`
	StepsCompleted int                 `json:"steps_completed"`
	TotalSteps     int                 `json:"total_steps"`
	CompletionRate float64             `json:"completion_rate"`
	ExecutionLog   []ExecutionLogEntry `json:"execution_log"`
	Progress       Progress            `json:"progress_status"`
	Timestamp      time.Time           `json:"timestamp"`
}

// CompletionRate computes completed/total as a percentage rounded to one
// decimal place. An empty log (total == 0) yields 0.
func CompletionRate(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	rate := float64(completed) / float64(total) * 100
	return math.Round(rate*10) / 10
}

// Summarize builds a WorkflowSummary from an execution log. StepsCompleted
// counts successful log entries and TotalSteps counts all entries, so retried
// steps contribute one entry per attempt.
func Summarize(sessionID string, success bool, log []ExecutionLogEntry, prog Progress, now time.Time) *WorkflowSummary {
	completed := 0
	for _, e := range log {
		if e.Success {
			completed++
		}
	}
	return &WorkflowSummary{
		SessionID:      sessionID,
		Success:        success,
		StepsCompleted: completed,
		TotalSteps:     len(log),
		CompletionRate: CompletionRate(completed, len(log)),
		ExecutionLog:   log,
		Progress:       prog,
		Timestamp:      now,
	}
}
