package deskflow

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	githubURLPattern = regexp.MustCompile(`^https://github\.com/[\w.-]+/[\w.-]+(\.git)?/?$`)
	meetURLPattern   = regexp.MustCompile(`^https://meet\.google\.com/[a-z]{3}-[a-z]{4}-[a-z]{3}$`)
)

// ValidateGitHubURL checks that u is an https GitHub repository URL.
func ValidateGitHubURL(u string) error {
	if !githubURLPattern.MatchString(u) {
		return fmt.Errorf("invalid GitHub repository URL: %q", u)
	}
	return nil
}

// ValidateMeetURL checks that u is an https Google Meet link
// (https://meet.google.com/xxx-yyyy-zzz).
func ValidateMeetURL(u string) error {
	if !meetURLPattern.MatchString(u) {
		return fmt.Errorf("invalid Google Meet URL: %q", u)
	}
	return nil
}

// RepoName extracts the repository name from a GitHub URL:
// https://github.com/owner/repo.git yields "repo".
func RepoName(u string) string {
	trimmed := strings.TrimSuffix(u, "/")
	trimmed = strings.TrimSuffix(trimmed, ".git")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
