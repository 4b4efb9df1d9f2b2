// Package deskflow drives a remote desktop through an action-execution loop
// steered by a language-model decision oracle.
//
// # Core Concepts
//
// The programming model is intentionally small:
//
//  1. Oracle
//  2. ToolExecutor
//  3. StepRunner
//  4. Engine
//  5. WorkflowBuilder
//
// # Oracle
//
// An Oracle looks at the conversation so far and proposes the next tool calls.
// The langchain subpackage adapts any langchaingo chat model; tests and
// embedded uses can supply an OracleFunc.
//
// # ToolExecutor
//
// A ToolExecutor carries out a proposed action (run a command, type text,
// send a keystroke) against the desktop and returns its textual result.
// Executor failures never surface as Go errors to workflow code: they become
// outcomes with Action set to "error" and feed the retry loop.
//
// # StepRunner
//
// The StepRunner owns the conversation and runs the decide/execute loop in
// two modes. ExecuteSingleStep performs one decision turn and at most one
// tool call. RunWithTracking loops until the oracle calls the stop tool or an
// iteration cap is hit, recording every executed action.
//
// # Engine
//
// The Engine runs workflows: sequences of named steps, each executed through
// the StepRunner (or a script) with per-step retry, heuristic outcome
// validation, an append-only execution log and session progress tracking.
// A step that exhausts its retries aborts the workflow unless continuation
// is enabled for non-critical steps; a terminal step ends the workflow early.
//
// Sessions and execution logs can be kept in memory, in SQLite, or in Redis.
//
// # WorkflowBuilder
//
// WorkflowBuilder provides the declarative API used to define workflows:
//
//	flow := deskflow.NewWorkflow("repo-setup").
//	    Step("open_terminal", "Open a terminal application").
//	    CriticalStep("clone_repository", "Clone the repository").
//	    WaitStep("wait_for_instructions", "Wait for further instructions")
//
// ScriptedSetupWorkflow and InteractiveSetupWorkflow are ready-made variants
// for preparing a desktop for a screen-shared walkthrough.
//
// For a runnable example, see the /examples directory.
package deskflow
