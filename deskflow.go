package deskflow

import (
	"database/sql"

	"github.com/redis/go-redis/v9"

	"github.com/jlaakso/deskflow/internal/engine"
	"github.com/jlaakso/deskflow/internal/persistence"
	"github.com/jlaakso/deskflow/internal/runner"
	"github.com/jlaakso/deskflow/pkg/api"
	"github.com/jlaakso/deskflow/pkg/config"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Engine               = api.Engine
	StepRunner           = api.StepRunner
	Oracle               = api.Oracle
	OracleFunc           = api.OracleFunc
	ToolExecutor         = api.ToolExecutor
	ToolExecutorFunc     = api.ToolExecutorFunc
	ToolSchema           = api.ToolSchema
	ProposedAction       = api.ProposedAction
	Outcome              = api.Outcome
	Message              = api.Message
	Role                 = api.Role
	Conversation         = api.Conversation
	Params               = api.Params
	InstructionFunc      = api.InstructionFunc
	ScriptFunc           = api.ScriptFunc
	RetryPolicy          = api.RetryPolicy
	StepDefinition       = api.StepDefinition
	WorkflowDefinition   = api.WorkflowDefinition
	WorkflowSummary      = api.WorkflowSummary
	ExecutionLogEntry    = api.ExecutionLogEntry
	Progress             = api.Progress
	SessionStatus        = api.SessionStatus
	Validator            = api.Validator
	ValidatorRegistry    = api.ValidatorRegistry
	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver
)

// Re-export common helpers.

var (
	NewConversation      = api.NewConversation
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
	NewValidatorRegistry = api.NewValidatorRegistry
	StaticInstruction    = api.StaticInstruction
	KeywordValidator     = api.KeywordValidator
	CommandValidator     = api.CommandValidator
	AnyValidator         = api.AnyValidator
	Summarize            = api.Summarize
	CompletionRate       = api.CompletionRate
)

// ErrSessionNotFound is returned by Progress and Destroy for unknown sessions.
var ErrSessionNotFound = persistence.ErrSessionNotFound

// Re-export status and action values for convenience.

const (
	StatusInitialized = api.StatusInitialized
	StatusRunning     = api.StatusRunning
	StatusCompleted   = api.StatusCompleted
	StatusFailed      = api.StatusFailed
	StatusTerminated  = api.StatusTerminated

	RoleSystem    = api.RoleSystem
	RoleUser      = api.RoleUser
	RoleAssistant = api.RoleAssistant
	RoleTool      = api.RoleTool

	ActionStop       = api.ActionStop
	ActionNone       = api.ActionNone
	ActionError      = api.ActionError
	ActionTimeout    = api.ActionTimeout
	ActionRunCommand = api.ActionRunCommand
)

// Options configures engines and step runners built by the package-level
// constructors. Oracle and Executor are required.
type Options struct {
	Oracle   Oracle
	Executor ToolExecutor

	// Tools advertised to the oracle. Defaults to DefaultTools().
	Tools []ToolSchema

	// Config selects retry budgets, iteration caps and failure policy.
	// Defaults to the development profile.
	Config *config.Config

	// Validators decides step success. Defaults to DefaultValidators().
	Validators *ValidatorRegistry

	Observer Observer
}

// DefaultTools returns the tool schemas the stock workflows expect the
// executor to understand.
func DefaultTools() []ToolSchema {
	command := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "Shell command to run.",
			},
		},
		"required": []string{"command"},
	}
	text := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{
				"type":        "string",
				"description": "Text to type into the focused window.",
			},
		},
		"required": []string{"text"},
	}
	key := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"key": map[string]any{
				"type":        "string",
				"description": "Key or key combination to send, e.g. Return or ctrl+c.",
			},
		},
		"required": []string{"key"},
	}

	return []ToolSchema{
		{Name: ActionRunCommand, Description: "Run a shell command on the desktop.", Parameters: command},
		{Name: "type_text", Description: "Type text into the focused window.", Parameters: text},
		{Name: "send_key", Description: "Send a keystroke to the focused window.", Parameters: key},
		{Name: ActionStop, Description: "Signal that the current objective is complete."},
	}
}

// Engine constructors. These wrap the internal packages so external callers
// never need to import them.

// NewEngine returns an Engine backed entirely by in-memory stores.
func NewEngine(opts Options) (Engine, error) {
	return newEngine(opts, nil, nil)
}

// NewSQLiteEngine returns an Engine that persists sessions and execution logs
// in a SQLite database.
func NewSQLiteEngine(db *sql.DB, opts Options) (Engine, error) {
	store, err := persistence.NewSQLiteStore(db)
	if err != nil {
		return nil, err
	}
	return newEngine(opts, store, store)
}

// NewRedisEngine returns an Engine that persists sessions and execution logs
// in Redis.
func NewRedisEngine(client *redis.Client, opts Options) (Engine, error) {
	store := persistence.NewRedisStore(client, "")
	return newEngine(opts, store, store)
}

// NewStepRunner returns a standalone StepRunner for callers that want the
// decide/execute loop without workflow orchestration.
func NewStepRunner(opts Options) (StepRunner, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Development()
	}
	return runner.New(runner.Config{
		Oracle:        opts.Oracle,
		Executor:      opts.Executor,
		Tools:         toolsOrDefault(opts.Tools),
		MaxIterations: cfg.Engine.MaxIterations,
		Observer:      opts.Observer,
	})
}

func newEngine(opts Options, sessions persistence.SessionStore, logStore persistence.LogStore) (Engine, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Development()
	}
	validators := opts.Validators
	if validators == nil {
		validators = DefaultValidators()
	}

	r, err := runner.New(runner.Config{
		Oracle:        opts.Oracle,
		Executor:      opts.Executor,
		Tools:         toolsOrDefault(opts.Tools),
		MaxIterations: cfg.Engine.MaxIterations,
		Observer:      opts.Observer,
	})
	if err != nil {
		return nil, err
	}

	return engine.New(engine.Config{
		Runner:   r,
		Executor: opts.Executor,
		Sessions: sessions,
		Log:      logStore,
		DefaultRetry: RetryPolicy{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			FailureDelay: cfg.Retry.FailureDelay.Std(),
			ErrorDelay:   cfg.Retry.ErrorDelay.Std(),
		},
		ContinueOnNonCritical: cfg.Engine.ContinueOnNonCritical,
		Validators:            validators,
		Observer:              opts.Observer,
	})
}

func toolsOrDefault(tools []ToolSchema) []ToolSchema {
	if len(tools) > 0 {
		return tools
	}
	return DefaultTools()
}
