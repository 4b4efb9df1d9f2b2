package api

import (
	"context"
	"time"
)

// Params carries the shared workflow parameters, such as the repository URL
// and the meeting link, into instruction templates and scripted steps.
type Params map[string]string

// Get returns the value for key, or "" when absent.
func (p Params) Get(key string) string {
	return p[key]
}

// InstructionFunc expands a step's instruction text from the workflow
// parameters. Instruction content itself is owned by the caller; the engine
// only passes the expanded text to the step runner.
type InstructionFunc func(params Params) string

// StaticInstruction returns an InstructionFunc that ignores the parameters.
func StaticInstruction(text string) InstructionFunc {
	return func(Params) string { return text }
}

// ScriptFunc is a deterministic, non-oracle subroutine. Steps carrying a
// ScriptFunc bypass the Oracle entirely; the engine invokes the script with
// the workflow's ToolExecutor.
type ScriptFunc func(ctx context.Context, exec ToolExecutor, params Params) (Outcome, error)

// RetryPolicy controls how a workflow step is retried when an attempt is not
// validated as successful. MaxAttempts includes the first attempt.
//
// FailureDelay is the pause after a plain validation failure; ErrorDelay is
// the longer pause after an attempt that produced an error outcome.
type RetryPolicy struct {
	MaxAttempts  int
	FailureDelay time.Duration
	ErrorDelay   time.Duration
}

// StepDefinition describes one named, independently retried and validated
// unit of a workflow.
type StepDefinition struct {
	Name string

	// Instruction expands the instruction passed to the step runner.
	// Ignored for scripted steps.
	Instruction InstructionFunc

	// Script, when non-nil, marks the step as scripted: the oracle is
	// bypassed and Script is invoked directly.
	Script ScriptFunc

	// Validator overrides the engine's validator registry for this step.
	Validator Validator

	// Critical steps abort the remaining workflow when their retry budget
	// is exhausted, regardless of the engine's continue policy.
	Critical bool

	// Terminal marks the workflow's final "wait" step: the workflow ends on
	// this step's success even if more steps are queued after it.
	Terminal bool

	// Retry overrides the engine's default retry policy for this step.
	Retry *RetryPolicy

	// Timeout bounds one attempt of this step. Zero means no per-step bound.
	Timeout time.Duration
}

// WorkflowDefinition is an ordered sequence of steps.
type WorkflowDefinition struct {
	Name  string
	Steps []StepDefinition
}
