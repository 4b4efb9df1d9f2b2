// Package engine orchestrates workflows: it runs steps through a step runner
// with per-step retry, validates outcomes, keeps the execution log and tracks
// session progress.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jlaakso/deskflow/internal/persistence"
	"github.com/jlaakso/deskflow/internal/session"
	"github.com/jlaakso/deskflow/pkg/api"
)

// Default per-step retry policy. Error outcomes pause longer than plain
// validation failures so transient oracle or transport problems get time to
// clear.
var defaultRetry = api.RetryPolicy{
	MaxAttempts:  3,
	FailureDelay: 2 * time.Second,
	ErrorDelay:   5 * time.Second,
}

// Config configures an Engine. Runner is required.
type Config struct {
	Runner api.StepRunner

	// Executor is handed to scripted steps. Steps without a script never
	// touch it.
	Executor api.ToolExecutor

	// Sessions and Log default to a shared in-memory store.
	Sessions persistence.SessionStore
	Log      persistence.LogStore

	// DefaultRetry applies to steps without their own policy.
	DefaultRetry api.RetryPolicy

	// ContinueOnNonCritical lets the workflow keep going past a non-critical
	// step that exhausted its retries. Without it any exhausted step aborts
	// the workflow.
	ContinueOnNonCritical bool

	Validators *api.ValidatorRegistry
	Observer   api.Observer
	Clock      func() time.Time

	// Sleep is the retry pause. Tests replace it to avoid real delays.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Engine implements api.Engine.
type Engine struct {
	runner      api.StepRunner
	executor    api.ToolExecutor
	sessions    *session.Registry
	log         persistence.LogStore
	retry       api.RetryPolicy
	continueAll bool
	validators  *api.ValidatorRegistry
	obs         api.Observer
	clock       func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

// New builds an Engine from cfg.
func New(cfg Config) (*Engine, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("engine: step runner is required")
	}

	sessions := cfg.Sessions
	logStore := cfg.Log
	if sessions == nil || logStore == nil {
		shared := persistence.NewInMemoryStore()
		if sessions == nil {
			sessions = shared
		}
		if logStore == nil {
			logStore = shared
		}
	}

	retry := cfg.DefaultRetry
	if retry.MaxAttempts <= 0 {
		retry = defaultRetry
	}
	validators := cfg.Validators
	if validators == nil {
		validators = api.NewValidatorRegistry()
	}
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	return &Engine{
		runner:      cfg.Runner,
		executor:    cfg.Executor,
		sessions:    session.NewRegistry(sessions, session.Clock(clock)),
		log:         logStore,
		retry:       retry,
		continueAll: cfg.ContinueOnNonCritical,
		validators:  validators,
		obs:         obs,
		clock:       clock,
		sleep:       sleep,
	}, nil
}

// RunWorkflow executes def step by step and returns a summary. Step failures
// are absorbed into the summary; the returned error is reserved for
// infrastructure problems such as session persistence or cancellation.
func (e *Engine) RunWorkflow(ctx context.Context, def api.WorkflowDefinition, params api.Params) (*api.WorkflowSummary, error) {
	if len(def.Steps) == 0 {
		return nil, fmt.Errorf("engine: workflow %q has no steps", def.Name)
	}

	sess, err := e.sessions.Create(len(def.Steps))
	if err != nil {
		return nil, err
	}
	if err := sess.Start(); err != nil {
		return nil, err
	}
	e.obs.OnWorkflowStart(ctx, sess.ID(), def.Name, len(def.Steps))

	var (
		log        []api.ExecutionLogEntry
		failedStep string
		terminal   bool
	)

	for _, step := range def.Steps {
		if err := sess.SetCurrentStep(step.Name); err != nil {
			return nil, err
		}

		ok, err := e.runStepWithRetry(ctx, sess, step, params, &log)
		if err != nil {
			_ = sess.Finish(api.StatusTerminated)
			return nil, err
		}

		if ok {
			if step.Terminal {
				terminal = true
				break
			}
			continue
		}
		if step.Critical || !e.continueAll {
			failedStep = step.Name
			break
		}
		// Opt-in continuation: move on, the summary will show the failure.
	}

	success := failedStep == "" && (terminal || sess.IsComplete())
	if success {
		if err := sess.Finish(api.StatusCompleted); err != nil {
			return nil, err
		}
		e.obs.OnWorkflowCompleted(ctx, sess.ID())
	} else {
		if err := sess.Finish(api.StatusFailed); err != nil {
			return nil, err
		}
		e.obs.OnWorkflowFailed(ctx, sess.ID(), failedStep)
	}

	return api.Summarize(sess.ID(), success, log, sess.Progress(), e.clock()), nil
}

// Progress reports the current state of a session.
func (e *Engine) Progress(ctx context.Context, sessionID string) (api.Progress, error) {
	sess, err := e.sessions.Get(sessionID)
	if err != nil {
		return api.Progress{}, err
	}
	return sess.Progress(), nil
}

// Destroy terminates a session and removes it from the live registry.
func (e *Engine) Destroy(ctx context.Context, sessionID string) error {
	return e.sessions.Destroy(sessionID)
}

// runStepWithRetry runs one step until it validates or the retry budget is
// spent. The returned error is non-nil only for cancellation or log
// persistence failures.
func (e *Engine) runStepWithRetry(ctx context.Context, sess *session.Session, step api.StepDefinition, params api.Params, log *[]api.ExecutionLogEntry) (bool, error) {
	retry := e.retry
	if step.Retry != nil {
		retry = *step.Retry
	}

	for attempt := 1; attempt <= retry.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		e.obs.OnStepStart(ctx, sess.ID(), step.Name, attempt)
		start := e.clock()
		out := e.executeAttempt(ctx, step, params)
		duration := e.clock().Sub(start)

		success := e.validate(step, out)

		entry := api.ExecutionLogEntry{
			SessionID: sess.ID(),
			Step:      step.Name,
			Attempt:   attempt,
			Outcome:   out,
			Success:   success,
			Timestamp: start,
			Duration:  duration,
		}
		if out.Action == api.ActionError || out.Action == api.ActionTimeout {
			entry.Err = out.Result
		}
		if err := e.log.AppendEntry(ctx, entry); err != nil {
			return false, fmt.Errorf("appending execution log: %w", err)
		}
		*log = append(*log, entry)
		e.obs.OnStepCompleted(ctx, sess.ID(), step.Name, attempt, success, duration)

		if success {
			return true, sess.MarkStepCompleted(step.Name, true)
		}

		if attempt < retry.MaxAttempts {
			delay := retry.FailureDelay
			if out.Action == api.ActionError {
				delay = retry.ErrorDelay
			}
			if err := e.sleep(ctx, delay); err != nil {
				return false, err
			}
		}
	}

	return false, sess.MarkStepCompleted(step.Name, false)
}

// executeAttempt runs a single attempt of step: scripted steps go straight to
// the tool executor, everything else goes through the step runner. Attempt
// errors and timeouts come back as outcomes, never as Go errors.
func (e *Engine) executeAttempt(ctx context.Context, step api.StepDefinition, params api.Params) api.Outcome {
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	var out api.Outcome
	if step.Script != nil {
		scripted, err := step.Script(ctx, e.executor, params)
		if err != nil {
			out = api.Outcome{Action: api.ActionError, Result: err.Error(), Timestamp: e.clock()}
		} else {
			out = scripted
		}
	} else {
		instruction := step.Name
		if step.Instruction != nil {
			instruction = step.Instruction(params)
		}
		out = e.runner.ExecuteSingleStep(ctx, instruction)
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) && out.Action == api.ActionError {
		out.Action = api.ActionTimeout
	}
	return out
}

// validate prefers the step's own validator; otherwise the registry decides.
// A completed outcome always counts as success.
func (e *Engine) validate(step api.StepDefinition, out api.Outcome) bool {
	if out.Completed {
		return true
	}
	if step.Validator != nil {
		return step.Validator(step.Name, out)
	}
	return e.validators.Validate(step.Name, out)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
