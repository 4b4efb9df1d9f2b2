package deskflow

// DefaultValidators returns a registry preloaded with heuristics for the
// stock workflow steps. The indicator lists are deliberately broad: desktop
// tool output is noisy and the retry loop catches false negatives, so missing
// a real success is worse than an occasional extra keyword.
func DefaultValidators() *ValidatorRegistry {
	reg := NewValidatorRegistry()

	reg.Register("open_terminal", KeywordValidator(
		"terminal", "command prompt", "shell", "$", "user@", "opened",
	))
	reg.Register("clone_repository", AnyValidator(
		CommandValidator("git clone"),
		KeywordValidator("cloning into", "receiving objects", "resolving deltas", "clone", "done", "complete", "success"),
	))
	reg.Register("navigate_to_repo", AnyValidator(
		CommandValidator("cd "),
		KeywordValidator("changed", "directory", "moved", "cd"),
	))
	reg.Register("open_code_viewer", KeywordValidator(
		"code", "vs code", "vscode", "opened", "files", "listed", "editor",
	))
	reg.Register("open_browser", KeywordValidator(
		"browser", "firefox", "chrome", "opened", "launched", "web",
	))
	reg.Register("navigate_to_meet", KeywordValidator(
		"meet.google.com", "google meet", "join", "meeting", "navigated", "loaded",
	))
	reg.Register("join_meet_call", KeywordValidator(
		"meet", "joined", "call", "connected", "guest", "video",
		"meeting", "participants", "in call", "camera", "microphone",
	))
	reg.Register("start_screen_share", KeywordValidator(
		"screen", "sharing", "present", "share", "started", "presenting", "shared",
	))
	reg.Register("wait_for_instructions", KeywordValidator(
		"waiting", "ready", "standing by", "complete", "idle",
	))

	return reg
}
