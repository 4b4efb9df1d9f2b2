// Package runner drives the decide/execute loop: it asks the decision oracle
// what to do next, executes the proposed tool calls, and feeds results back
// into the conversation.
package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jlaakso/deskflow/pkg/api"
)

const (
	// DefaultMaxIterations bounds how many decision turns a tracked run may
	// take before it is cut off with a timeout outcome.
	DefaultMaxIterations = 20

	defaultSystemPrompt = "You are an assistant operating a Linux desktop. " +
		"Work toward the stated OBJECTIVE one tool call at a time. " +
		"When the objective is achieved, call the stop tool."

	objectivePrefix = "OBJECTIVE: "
)

// Config configures a Runner. Oracle and Executor are required.
type Config struct {
	Oracle   api.Oracle
	Executor api.ToolExecutor
	Tools    []api.ToolSchema

	// MaxIterations caps decision turns in RunWithTracking. Zero means
	// DefaultMaxIterations.
	MaxIterations int

	// SystemPrompt overrides the default system message sent to the oracle.
	SystemPrompt string

	Observer api.Observer
	Clock    func() time.Time
}

// Runner implements api.StepRunner. It is safe for concurrent use, though the
// conversation is shared: interleaved steps from multiple goroutines will see
// each other's messages.
type Runner struct {
	oracle        api.Oracle
	tools         []api.ToolSchema
	maxIterations int
	systemPrompt  string
	obs           api.Observer
	clock         func() time.Time

	mu       sync.Mutex
	executor api.ToolExecutor

	conv *api.Conversation
}

// New builds a Runner from cfg.
func New(cfg Config) (*Runner, error) {
	if cfg.Oracle == nil {
		return nil, fmt.Errorf("runner: oracle is required")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("runner: executor is required")
	}

	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	prompt := cfg.SystemPrompt
	if prompt == "" {
		prompt = defaultSystemPrompt
	}
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Runner{
		oracle:        cfg.Oracle,
		tools:         cfg.Tools,
		maxIterations: maxIter,
		systemPrompt:  prompt,
		obs:           obs,
		clock:         clock,
		executor:      cfg.Executor,
		conv:          api.NewConversation(),
	}, nil
}

// Reset clears the conversation. The next step starts from a blank context.
func (r *Runner) Reset() {
	r.conv.Reset()
}

// Conversation exposes the accumulated messages, mainly for tests and
// debugging output.
func (r *Runner) Conversation() []api.Message {
	return r.conv.Messages()
}

// ExecuteSingleStep runs exactly one decision turn for instruction and
// executes at most the first proposed action. It never returns an error:
// oracle failures, executor failures and panics all surface as outcomes with
// Action set to "error".
func (r *Runner) ExecuteSingleStep(ctx context.Context, instruction string) (out api.Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			out = r.errorOutcome(fmt.Sprintf("panic during step execution: %v", rec))
		}
	}()

	r.appendObjective(instruction)

	rationale, actions, err := r.oracle.Decide(ctx, r.promptMessages(), r.tools)
	if err != nil {
		return r.errorOutcome(fmt.Sprintf("decision failed: %v", err))
	}
	if rationale != "" {
		r.conv.Append(api.RoleAssistant, rationale)
	}
	r.obs.OnDecisionTurn(ctx, 1, rationale, len(actions))

	if len(actions) == 0 {
		return api.Outcome{Action: api.ActionNone, Result: "No action determined", Timestamp: r.clock()}
	}

	// Only the first proposal counts in single-step mode; the rest are
	// dropped so one instruction maps to at most one tool call.
	action := actions[0]
	if action.Name == api.ActionStop {
		out = api.Outcome{Action: api.ActionStop, Result: "Task completed", Completed: true, Timestamp: r.clock()}
		r.obs.OnActionExecuted(ctx, out)
		return out
	}

	result, err := r.currentExecutor().Execute(ctx, action.Name, action.Parameters)
	if err != nil {
		r.conv.Append(api.RoleTool, fmt.Sprintf("%s failed: %v", action.Name, err))
		return r.errorOutcome(fmt.Sprintf("%s failed: %v", action.Name, err))
	}
	r.conv.Append(api.RoleTool, result)

	out = api.Outcome{
		Action:     action.Name,
		Parameters: action.Parameters,
		Result:     result,
		Timestamp:  r.clock(),
	}
	r.obs.OnActionExecuted(ctx, out)
	return out
}

// RunWithTracking runs decision turns until the oracle signals stop or the
// iteration cap is hit, recording every executed action. It returns the
// recorded outcomes and whether the objective completed. A stop proposal
// mid-turn ends the run without a tool call, so no outcome is recorded for
// it and the remaining proposals of that turn are discarded. Any executor
// fault aborts the loop after its error outcome is recorded.
func (r *Runner) RunWithTracking(ctx context.Context, instruction string) (outcomes []api.Outcome, completed bool) {
	tracker := newTrackingExecutor(r.currentExecutor(), r.clock)
	restore := r.swapExecutor(tracker)
	defer restore()

	defer func() {
		if rec := recover(); rec != nil {
			tracker.record(r.errorOutcome(fmt.Sprintf("panic during tracked run: %v", rec)))
			outcomes = tracker.Outcomes()
			completed = false
		}
	}()

	r.conv.Append(api.RoleUser, objectivePrefix+instruction)

loop:
	for iteration := 1; iteration <= r.maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			tracker.record(r.errorOutcome(fmt.Sprintf("run cancelled: %v", err)))
			return tracker.Outcomes(), false
		}

		rationale, actions, err := r.oracle.Decide(ctx, r.promptMessages(), r.tools)
		if err != nil {
			tracker.record(r.errorOutcome(fmt.Sprintf("decision failed: %v", err)))
			return tracker.Outcomes(), false
		}
		if rationale != "" {
			r.conv.Append(api.RoleAssistant, rationale)
		}
		r.obs.OnDecisionTurn(ctx, iteration, rationale, len(actions))

		for _, action := range actions {
			if action.Name == api.ActionStop {
				completed = true
				break loop
			}

			// The tracker records the fault before Execute returns, so the
			// aborted run still ends with an error outcome.
			result, err := r.currentExecutor().Execute(ctx, action.Name, action.Parameters)
			if err != nil {
				r.conv.Append(api.RoleTool, fmt.Sprintf("%s failed: %v", action.Name, err))
				return tracker.Outcomes(), false
			}
			r.conv.Append(api.RoleTool, result)
			r.obs.OnActionExecuted(ctx, api.Outcome{
				Action:     action.Name,
				Parameters: action.Parameters,
				Result:     result,
				Timestamp:  r.clock(),
			})
		}
	}

	if !completed {
		tracker.record(api.Outcome{
			Action:     api.ActionTimeout,
			Parameters: map[string]any{"max_iterations": r.maxIterations},
			Result:     fmt.Sprintf("objective not completed within %d iterations", r.maxIterations),
			Timestamp:  r.clock(),
		})
	}
	return tracker.Outcomes(), completed
}

// appendObjective adds the instruction as a user message unless it is the
// literal last conversation entry. Once a turn appends an assistant or tool
// message, a retry of the same instruction re-states the objective.
func (r *Runner) appendObjective(instruction string) {
	content := objectivePrefix + instruction
	if last, ok := r.conv.Last(); ok && last.Role == api.RoleUser && last.Content == content {
		return
	}
	r.conv.Append(api.RoleUser, content)
}

func (r *Runner) promptMessages() []api.Message {
	msgs := make([]api.Message, 0, r.conv.Len()+1)
	msgs = append(msgs, api.Message{Role: api.RoleSystem, Content: r.systemPrompt})
	return append(msgs, r.conv.Messages()...)
}

func (r *Runner) errorOutcome(msg string) api.Outcome {
	return api.Outcome{
		Action:    api.ActionError,
		Result:    strings.TrimSpace(msg),
		Timestamp: r.clock(),
	}
}

func (r *Runner) currentExecutor() api.ToolExecutor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.executor
}

// swapExecutor installs exec and returns a function restoring the previous
// executor. The restore runs on every exit path of a tracked run.
func (r *Runner) swapExecutor(exec api.ToolExecutor) (restore func()) {
	r.mu.Lock()
	prev := r.executor
	r.executor = exec
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		r.executor = prev
		r.mu.Unlock()
	}
}
