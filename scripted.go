package deskflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jlaakso/deskflow/pkg/api"
)

// SetupScript returns a script that prepares the repository without involving
// the decision oracle: it removes any stale checkout, clones the repository,
// verifies the checkout exists, and opens a code viewer (falling back to a
// file listing) so the desktop is ready for screen sharing.
//
// The outcome is marked completed only when the clone was verified.
func SetupScript() ScriptFunc {
	return func(ctx context.Context, exec ToolExecutor, params api.Params) (Outcome, error) {
		githubURL := params.Get(ParamGitHubURL)
		if err := ValidateGitHubURL(githubURL); err != nil {
			return Outcome{}, err
		}
		repo := RepoName(githubURL)

		run := func(cmd string) (string, error) {
			result, err := exec.Execute(ctx, ActionRunCommand, map[string]any{"command": cmd})
			if err != nil {
				return "", fmt.Errorf("setup command %q: %w", cmd, err)
			}
			return result, nil
		}

		// Stale checkouts from a previous session would make git clone fail.
		listing, err := run("ls -la")
		if err != nil {
			return Outcome{}, err
		}
		if strings.Contains(listing, repo) {
			if _, err := run(fmt.Sprintf("rm -rf %s", repo)); err != nil {
				return Outcome{}, err
			}
		}

		if _, err := run(fmt.Sprintf("git clone %s", githubURL)); err != nil {
			return Outcome{}, err
		}

		listing, err = run("ls -la")
		if err != nil {
			return Outcome{}, err
		}
		if !strings.Contains(listing, repo) {
			return Outcome{
				Action:     ActionRunCommand,
				Parameters: map[string]any{"command": "git clone " + githubURL},
				Result:     fmt.Sprintf("clone verification failed: %s not present after clone", repo),
				Timestamp:  time.Now(),
			}, nil
		}

		viewerCmd := fmt.Sprintf("cd %s && code . 2>/dev/null || ls -la", repo)
		result, err := run(viewerCmd)
		if err != nil {
			return Outcome{}, err
		}

		return Outcome{
			Action:     ActionRunCommand,
			Parameters: map[string]any{"command": viewerCmd},
			Result:     result,
			Completed:  true,
			Timestamp:  time.Now(),
		}, nil
	}
}
