package api

import "context"

// ToolSchema describes one action available to the Oracle. Parameters is a
// JSON Schema fragment describing the action's inputs.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Oracle is the external decision-making component. Given the full
// conversation and the schema of available actions, it returns optional
// rationale text plus an ordered list of proposed actions for this turn.
//
// Calls may block for seconds; they are synchronous and unstreamed.
type Oracle interface {
	Decide(ctx context.Context, conversation []Message, tools []ToolSchema) (rationale string, actions []ProposedAction, err error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, conversation []Message, tools []ToolSchema) (string, []ProposedAction, error)

func (f OracleFunc) Decide(ctx context.Context, conversation []Message, tools []ToolSchema) (string, []ProposedAction, error) {
	return f(ctx, conversation, tools)
}

// ToolExecutor performs one named action against the managed remote
// environment and returns an observation. Implementations should report
// ordinary failures as descriptive observation text; returned errors are
// treated as faults and abort the current attempt.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, params map[string]any) (string, error)
}

// ToolExecutorFunc adapts a function to the ToolExecutor interface.
type ToolExecutorFunc func(ctx context.Context, name string, params map[string]any) (string, error)

func (f ToolExecutorFunc) Execute(ctx context.Context, name string, params map[string]any) (string, error) {
	return f(ctx, name, params)
}

// StepRunner drives one bounded decision/act cycle against the Oracle and
// the ToolExecutor.
//
// Neither entry point returns an error: all faults are captured and reported
// as a synthetic Outcome with Action == ActionError.
type StepRunner interface {
	// ExecuteSingleStep performs at most one decision and one action toward
	// the instruction.
	ExecuteSingleStep(ctx context.Context, instruction string) Outcome

	// RunWithTracking runs the full decision/act loop for the instruction,
	// returning every outcome in execution order and whether the oracle
	// signalled completion.
	RunWithTracking(ctx context.Context, instruction string) (outcomes []Outcome, completed bool)

	// Reset clears the runner's conversation.
	Reset()
}

// Engine is the workflow orchestrator API.
type Engine interface {
	// RunWorkflow executes the workflow's steps in order, applying per-step
	// retry and validation, and returns an execution summary. A partial
	// summary is returned even when the workflow aborts early.
	RunWorkflow(ctx context.Context, def WorkflowDefinition, params Params) (*WorkflowSummary, error)

	// Progress reports the progress of a session started by RunWorkflow.
	Progress(ctx context.Context, sessionID string) (Progress, error)

	// Destroy tears down a session and its in-memory state. The session's
	// final status becomes completed or terminated depending on whether all
	// steps finished.
	Destroy(ctx context.Context, sessionID string) error
}
