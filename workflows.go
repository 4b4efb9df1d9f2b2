package deskflow

import (
	"fmt"
	"time"

	"github.com/jlaakso/deskflow/pkg/api"
)

// Workflow parameter keys used by the stock workflows.
const (
	ParamGitHubURL = "github_url"
	ParamMeetURL   = "meet_url"
)

// Per-step attempt timeouts. Cloning and joining a call are the slow steps.
var stepTimeouts = map[string]time.Duration{
	"open_terminal":         30 * time.Second,
	"clone_repository":      2 * time.Minute,
	"navigate_to_repo":      15 * time.Second,
	"open_code_viewer":      time.Minute,
	"open_browser":          45 * time.Second,
	"navigate_to_meet":      45 * time.Second,
	"join_meet_call":        3 * time.Minute,
	"start_screen_share":    2 * time.Minute,
	"wait_for_instructions": 5 * time.Minute,
}

// StepTimeout returns the attempt timeout for a stock step, defaulting to one
// minute for unknown steps.
func StepTimeout(name string) time.Duration {
	if d, ok := stepTimeouts[name]; ok {
		return d
	}
	return time.Minute
}

// SetupParams validates the workflow inputs and returns them as Params.
func SetupParams(githubURL, meetURL string) (Params, error) {
	if err := ValidateGitHubURL(githubURL); err != nil {
		return nil, err
	}
	if err := ValidateMeetURL(meetURL); err != nil {
		return nil, err
	}
	return Params{
		ParamGitHubURL: githubURL,
		ParamMeetURL:   meetURL,
	}, nil
}

// InteractiveSetupWorkflow is the full eight-step variant: every step goes
// through the decision oracle. Cloning and joining the call are critical, and
// the final wait step is terminal.
func InteractiveSetupWorkflow() WorkflowDefinition {
	b := NewWorkflow("interactive-setup").
		Step("open_terminal", "Open a terminal application").
		WithTimeout(StepTimeout("open_terminal")).
		StepFn("clone_repository", func(p api.Params) string {
			return fmt.Sprintf("Clone the repository %s using git in the terminal", p.Get(ParamGitHubURL))
		}).
		Critical().
		WithTimeout(StepTimeout("clone_repository")).
		StepFn("navigate_to_repo", func(p api.Params) string {
			return fmt.Sprintf("Change into the %s directory in the terminal", RepoName(p.Get(ParamGitHubURL)))
		}).
		WithTimeout(StepTimeout("navigate_to_repo")).
		Step("open_code_viewer", "Open the repository in a code viewer, VS Code if available, otherwise list the files").
		WithTimeout(StepTimeout("open_code_viewer")).
		Step("open_browser", "Open a web browser").
		WithTimeout(StepTimeout("open_browser")).
		StepFn("join_meet_call", func(p api.Params) string {
			return fmt.Sprintf("Join the Google Meet call at %s as a guest", p.Get(ParamMeetURL))
		}).
		Critical().
		WithTimeout(StepTimeout("join_meet_call")).
		Step("start_screen_share", "Start sharing the screen in the meeting").
		WithTimeout(StepTimeout("start_screen_share")).
		WaitStep("wait_for_instructions", "Wait for further instructions").
		WithTimeout(StepTimeout("wait_for_instructions"))
	return b.Definition()
}

// ScriptedSetupWorkflow is the five-step variant: repository setup runs as a
// script straight against the tool executor, only the in-browser steps go
// through the oracle.
func ScriptedSetupWorkflow() WorkflowDefinition {
	b := NewWorkflow("scripted-setup").
		ScriptedStep("run_setup_script", SetupScript()).
		WithTimeout(StepTimeout("clone_repository")).
		StepFn("navigate_to_meet", func(p api.Params) string {
			return fmt.Sprintf("Open a web browser and navigate to %s", p.Get(ParamMeetURL))
		}).
		WithTimeout(StepTimeout("navigate_to_meet")).
		Step("join_meet_call", "Join the Google Meet call as a guest").
		Critical().
		WithTimeout(StepTimeout("join_meet_call")).
		Step("start_screen_share", "Start sharing the screen in the meeting").
		WithTimeout(StepTimeout("start_screen_share")).
		WaitStep("wait_for_instructions", "Wait for further instructions").
		WithTimeout(StepTimeout("wait_for_instructions"))
	return b.Definition()
}
