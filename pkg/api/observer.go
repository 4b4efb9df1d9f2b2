package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the engine and the step runner for logging
// and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be done
// asynchronously so as not to delay workflow execution.
type Observer interface {
	// OnWorkflowStart is called once per RunWorkflow, before the first step.
	OnWorkflowStart(ctx context.Context, sessionID, workflow string, totalSteps int)

	// OnWorkflowCompleted is called when a workflow run finishes with all
	// steps completed.
	OnWorkflowCompleted(ctx context.Context, sessionID string)

	// OnWorkflowFailed is called when a workflow run aborts before
	// completing all steps. failedStep names the step that exhausted its
	// retry budget.
	OnWorkflowFailed(ctx context.Context, sessionID, failedStep string)

	// OnStepStart is called before each attempt of a workflow step.
	OnStepStart(ctx context.Context, sessionID, step string, attempt int)

	// OnStepCompleted is called after each attempt, for both successful and
	// failed classifications.
	OnStepCompleted(ctx context.Context, sessionID, step string, attempt int, success bool, d time.Duration)

	// OnDecisionTurn is called after each oracle query inside the step
	// runner. iteration is 1-based within the current run.
	OnDecisionTurn(ctx context.Context, iteration int, rationale string, proposed int)

	// OnActionExecuted is called after each tool execution inside the step
	// runner.
	OnActionExecuted(ctx context.Context, out Outcome)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnWorkflowStart(ctx context.Context, sessionID, workflow string, totalSteps int) {
}
func (NoopObserver) OnWorkflowCompleted(ctx context.Context, sessionID string)          {}
func (NoopObserver) OnWorkflowFailed(ctx context.Context, sessionID, failedStep string) {}
func (NoopObserver) OnStepStart(ctx context.Context, sessionID, step string, attempt int) {
}
func (NoopObserver) OnStepCompleted(ctx context.Context, sessionID, step string, attempt int, success bool, d time.Duration) {
}
func (NoopObserver) OnDecisionTurn(ctx context.Context, iteration int, rationale string, proposed int) {
}
func (NoopObserver) OnActionExecuted(ctx context.Context, out Outcome) {}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnWorkflowStart(ctx context.Context, sessionID, workflow string, totalSteps int) {
	for _, o := range c.observers {
		o.OnWorkflowStart(ctx, sessionID, workflow, totalSteps)
	}
}

func (c *CompositeObserver) OnWorkflowCompleted(ctx context.Context, sessionID string) {
	for _, o := range c.observers {
		o.OnWorkflowCompleted(ctx, sessionID)
	}
}

func (c *CompositeObserver) OnWorkflowFailed(ctx context.Context, sessionID, failedStep string) {
	for _, o := range c.observers {
		o.OnWorkflowFailed(ctx, sessionID, failedStep)
	}
}

func (c *CompositeObserver) OnStepStart(ctx context.Context, sessionID, step string, attempt int) {
	for _, o := range c.observers {
		o.OnStepStart(ctx, sessionID, step, attempt)
	}
}

func (c *CompositeObserver) OnStepCompleted(ctx context.Context, sessionID, step string, attempt int, success bool, d time.Duration) {
	for _, o := range c.observers {
		o.OnStepCompleted(ctx, sessionID, step, attempt, success, d)
	}
}

func (c *CompositeObserver) OnDecisionTurn(ctx context.Context, iteration int, rationale string, proposed int) {
	for _, o := range c.observers {
		o.OnDecisionTurn(ctx, iteration, rationale, proposed)
	}
}

func (c *CompositeObserver) OnActionExecuted(ctx context.Context, out Outcome) {
	for _, o := range c.observers {
		o.OnActionExecuted(ctx, out)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs workflow / step / runner
// lifecycle events using the provided slog.Logger. If logger is nil,
// slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnWorkflowStart(ctx context.Context, sessionID, workflow string, totalSteps int) {
	o.Logger.InfoContext(ctx, "workflow_start",
		slog.String("session_id", sessionID),
		slog.String("workflow", workflow),
		slog.Int("total_steps", totalSteps),
	)
}

func (o *LoggingObserver) OnWorkflowCompleted(ctx context.Context, sessionID string) {
	o.Logger.InfoContext(ctx, "workflow_completed",
		slog.String("session_id", sessionID),
	)
}

func (o *LoggingObserver) OnWorkflowFailed(ctx context.Context, sessionID, failedStep string) {
	o.Logger.ErrorContext(ctx, "workflow_failed",
		slog.String("session_id", sessionID),
		slog.String("step", failedStep),
	)
}

func (o *LoggingObserver) OnStepStart(ctx context.Context, sessionID, step string, attempt int) {
	o.Logger.DebugContext(ctx, "step_start",
		slog.String("session_id", sessionID),
		slog.String("step", step),
		slog.Int("attempt", attempt),
	)
}

func (o *LoggingObserver) OnStepCompleted(ctx context.Context, sessionID, step string, attempt int, success bool, d time.Duration) {
	level := slog.LevelDebug
	if !success {
		level = slog.LevelWarn
	}
	o.Logger.Log(ctx, level, "step_completed",
		slog.String("session_id", sessionID),
		slog.String("step", step),
		slog.Int("attempt", attempt),
		slog.Bool("success", success),
		slog.Duration("duration", d),
	)
}

func (o *LoggingObserver) OnDecisionTurn(ctx context.Context, iteration int, rationale string, proposed int) {
	o.Logger.DebugContext(ctx, "decision_turn",
		slog.Int("iteration", iteration),
		slog.Int("proposed_actions", proposed),
		slog.String("rationale", rationale),
	)
}

func (o *LoggingObserver) OnActionExecuted(ctx context.Context, out Outcome) {
	o.Logger.InfoContext(ctx, "action_executed",
		slog.String("action", out.Action),
		slog.Bool("completed", out.Completed),
	)
}

// BasicMetrics collects simple counters and aggregate attempt durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	workflowsStarted   atomic.Int64
	workflowsCompleted atomic.Int64
	workflowsFailed    atomic.Int64
	stepAttempts       atomic.Int64
	stepSuccesses      atomic.Int64
	actionsExecuted    atomic.Int64
	totalStepDuration  atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	WorkflowsStarted   int64
	WorkflowsCompleted int64
	WorkflowsFailed    int64

	StepAttempts    int64
	StepSuccesses   int64
	ActionsExecuted int64
	AvgStepDuration time.Duration
}

func (m *BasicMetrics) OnWorkflowStart(ctx context.Context, sessionID, workflow string, totalSteps int) {
	m.workflowsStarted.Add(1)
}

func (m *BasicMetrics) OnWorkflowCompleted(ctx context.Context, sessionID string) {
	m.workflowsCompleted.Add(1)
}

func (m *BasicMetrics) OnWorkflowFailed(ctx context.Context, sessionID, failedStep string) {
	m.workflowsFailed.Add(1)
}

func (m *BasicMetrics) OnStepCompleted(ctx context.Context, sessionID, step string, attempt int, success bool, d time.Duration) {
	m.stepAttempts.Add(1)
	if success {
		m.stepSuccesses.Add(1)
		m.totalStepDuration.Add(d.Nanoseconds())
	}
}

func (m *BasicMetrics) OnActionExecuted(ctx context.Context, out Outcome) {
	m.actionsExecuted.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	successes := m.stepSuccesses.Load()
	totalNs := m.totalStepDuration.Load()

	var avg time.Duration
	if successes > 0 {
		avg = time.Duration(totalNs / successes)
	}

	return BasicMetricsSnapshot{
		WorkflowsStarted:   m.workflowsStarted.Load(),
		WorkflowsCompleted: m.workflowsCompleted.Load(),
		WorkflowsFailed:    m.workflowsFailed.Load(),
		StepAttempts:       m.stepAttempts.Load(),
		StepSuccesses:      successes,
		ActionsExecuted:    m.actionsExecuted.Load(),
		AvgStepDuration:    avg,
	}
}
