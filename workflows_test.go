package deskflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetupParams(t *testing.T) {
	params, err := SetupParams("https://github.com/acme/widget", "https://meet.google.com/abc-defg-hij")
	require.NoError(t, err)
	require.Equal(t, "https://github.com/acme/widget", params.Get(ParamGitHubURL))
	require.Equal(t, "https://meet.google.com/abc-defg-hij", params.Get(ParamMeetURL))

	_, err = SetupParams("http://github.com/acme/widget", "https://meet.google.com/abc-defg-hij")
	require.ErrorContains(t, err, "invalid GitHub repository URL")

	_, err = SetupParams("https://github.com/acme/widget", "https://meet.google.com/not-a-code")
	require.ErrorContains(t, err, "invalid Google Meet URL")
}

func TestValidateGitHubURL(t *testing.T) {
	valid := []string{
		"https://github.com/acme/widget",
		"https://github.com/acme/widget.git",
		"https://github.com/acme/widget/",
		"https://github.com/a-b.c/d_e",
	}
	for _, u := range valid {
		require.NoError(t, ValidateGitHubURL(u), u)
	}

	invalid := []string{
		"https://gitlab.com/acme/widget",
		"https://github.com/acme",
		"git@github.com:acme/widget.git",
		"https://github.com/acme/widget/tree/main",
	}
	for _, u := range invalid {
		require.Error(t, ValidateGitHubURL(u), u)
	}
}

func TestRepoName(t *testing.T) {
	require.Equal(t, "widget", RepoName("https://github.com/acme/widget"))
	require.Equal(t, "widget", RepoName("https://github.com/acme/widget.git"))
	require.Equal(t, "widget", RepoName("https://github.com/acme/widget/"))
}

func TestInteractiveSetupWorkflowShape(t *testing.T) {
	def := InteractiveSetupWorkflow()
	require.Equal(t, "interactive-setup", def.Name)

	names := make([]string, 0, len(def.Steps))
	for _, s := range def.Steps {
		names = append(names, s.Name)
	}
	require.Equal(t, []string{
		"open_terminal", "clone_repository", "navigate_to_repo",
		"open_code_viewer", "open_browser", "join_meet_call",
		"start_screen_share", "wait_for_instructions",
	}, names)

	byName := map[string]StepDefinition{}
	for _, s := range def.Steps {
		byName[s.Name] = s
	}
	require.True(t, byName["clone_repository"].Critical)
	require.True(t, byName["join_meet_call"].Critical)
	require.False(t, byName["open_browser"].Critical)
	require.True(t, byName["wait_for_instructions"].Terminal)
	require.Equal(t, 2*time.Minute, byName["clone_repository"].Timeout)
	require.Equal(t, 3*time.Minute, byName["join_meet_call"].Timeout)

	params := Params{ParamGitHubURL: "https://github.com/acme/widget", ParamMeetURL: "https://meet.google.com/abc-defg-hij"}
	require.Contains(t, byName["clone_repository"].Instruction(params), "https://github.com/acme/widget")
	require.Contains(t, byName["navigate_to_repo"].Instruction(params), "widget")
	require.Contains(t, byName["join_meet_call"].Instruction(params), "https://meet.google.com/abc-defg-hij")
}

func TestScriptedSetupWorkflowShape(t *testing.T) {
	def := ScriptedSetupWorkflow()
	require.Equal(t, "scripted-setup", def.Name)
	require.Len(t, def.Steps, 5)

	require.Equal(t, "run_setup_script", def.Steps[0].Name)
	require.NotNil(t, def.Steps[0].Script)
	require.True(t, def.Steps[2].Critical)
	require.Equal(t, "join_meet_call", def.Steps[2].Name)
	require.True(t, def.Steps[4].Terminal)
}

func TestStepTimeoutDefault(t *testing.T) {
	require.Equal(t, time.Minute, StepTimeout("unknown_step"))
	require.Equal(t, 5*time.Minute, StepTimeout("wait_for_instructions"))
}

func TestSetupScript(t *testing.T) {
	var commands []string
	cloned := false
	exec := ToolExecutorFunc(func(ctx context.Context, name string, params map[string]any) (string, error) {
		require.Equal(t, ActionRunCommand, name)
		cmd := params["command"].(string)
		commands = append(commands, cmd)
		switch {
		case strings.HasPrefix(cmd, "ls"):
			if cloned {
				return "total 12\nwidget", nil
			}
			return "total 0", nil
		case strings.HasPrefix(cmd, "git clone"):
			cloned = true
			return "Cloning into 'widget'...", nil
		default:
			return "README.md  go.mod", nil
		}
	})

	params := Params{ParamGitHubURL: "https://github.com/acme/widget"}
	out, err := SetupScript()(context.Background(), exec, params)
	require.NoError(t, err)

	require.True(t, out.Completed)
	require.Equal(t, []string{
		"ls -la",
		"git clone https://github.com/acme/widget",
		"ls -la",
		"cd widget && code . 2>/dev/null || ls -la",
	}, commands)
}

func TestSetupScriptRemovesStaleCheckout(t *testing.T) {
	var commands []string
	exec := ToolExecutorFunc(func(ctx context.Context, name string, params map[string]any) (string, error) {
		cmd := params["command"].(string)
		commands = append(commands, cmd)
		if strings.HasPrefix(cmd, "ls") {
			return "total 12\nwidget", nil
		}
		return "ok", nil
	})

	params := Params{ParamGitHubURL: "https://github.com/acme/widget"}
	out, err := SetupScript()(context.Background(), exec, params)
	require.NoError(t, err)
	require.True(t, out.Completed)
	require.Equal(t, "rm -rf widget", commands[1])
}

func TestSetupScriptFailures(t *testing.T) {
	t.Run("bad url", func(t *testing.T) {
		_, err := SetupScript()(context.Background(), nil, Params{ParamGitHubURL: "ftp://nope"})
		require.Error(t, err)
	})

	t.Run("command fails", func(t *testing.T) {
		exec := ToolExecutorFunc(func(ctx context.Context, name string, params map[string]any) (string, error) {
			return "", errors.New("network unreachable")
		})
		params := Params{ParamGitHubURL: "https://github.com/acme/widget"}
		_, err := SetupScript()(context.Background(), exec, params)
		require.ErrorContains(t, err, "setup command")
	})

	t.Run("clone not verified", func(t *testing.T) {
		exec := ToolExecutorFunc(func(ctx context.Context, name string, params map[string]any) (string, error) {
			return "total 0", nil
		})
		params := Params{ParamGitHubURL: "https://github.com/acme/widget"}
		out, err := SetupScript()(context.Background(), exec, params)
		require.NoError(t, err)
		require.False(t, out.Completed)
		require.Contains(t, out.Result, "clone verification failed")
	})
}

func TestDefaultValidators(t *testing.T) {
	reg := DefaultValidators()

	ok := reg.Validate("open_terminal", Outcome{Action: ActionRunCommand, Result: "user@sandbox:~$"})
	require.True(t, ok)

	ok = reg.Validate("clone_repository", Outcome{
		Action:     ActionRunCommand,
		Parameters: map[string]any{"command": "git clone https://github.com/acme/widget"},
		Result:     "Receiving objects: 100%",
	})
	require.True(t, ok)

	// Failure markers veto the command-family match.
	ok = reg.Validate("clone_repository", Outcome{
		Action:     ActionRunCommand,
		Parameters: map[string]any{"command": "git clone https://github.com/acme/widget"},
		Result:     "fatal: repository not found",
	})
	require.False(t, ok)

	ok = reg.Validate("join_meet_call", Outcome{Action: "type_text", Result: "Asking to join the meeting..."})
	require.True(t, ok)

	// Unknown steps fall back to the generic keyword scan.
	require.True(t, reg.Validate("custom_step", Outcome{Result: "task finished successfully"}))
	require.False(t, reg.Validate("custom_step", Outcome{Result: "nothing conclusive happened"}))
}
