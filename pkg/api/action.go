package api

import "time"

// Reserved action names. ActionStop is the termination token: when the oracle
// proposes it, the current run is considered complete and no tool call is
// made. The remaining names only ever appear in synthetic outcomes produced
// by the runner itself.
const (
	ActionStop    = "stop"
	ActionNone    = "none"
	ActionError   = "error"
	ActionTimeout = "timeout"
)

// ActionRunCommand is the conventional name of the shell-command tool in the
// managed environment. Validators use it to recognize command-issuing steps.
const ActionRunCommand = "run_command"

// ProposedAction is one action proposed by the Oracle for the current turn.
type ProposedAction struct {
	Name       string
	Parameters map[string]any
}

// Outcome records one executed or terminal decision. Outcomes are write-once:
// they are created by the runner and never mutated afterwards.
type Outcome struct {
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters"`
	Result     string         `json:"result"`
	Completed  bool           `json:"completed"`
	Timestamp  time.Time      `json:"timestamp"`
}
