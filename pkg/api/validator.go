package api

import (
	"fmt"
	"strings"
	"sync"
)

// Validator classifies one step outcome as success or failure. Validators are
// best-effort text classifiers, not ground-truth verification of the remote
// environment.
type Validator func(stepName string, out Outcome) bool

// failureMarkers are command-output fragments that always veto a
// command-family success classification.
var failureMarkers = []string{
	"error",
	"failed",
	"fatal",
	"not found",
	"command not found",
	"permission denied",
}

// defaultSuccessKeywords is the generic fallback keyword set used when a step
// has no registered validator.
var defaultSuccessKeywords = []string{
	"success",
	"complete",
	"done",
	"finished",
	"opened",
	"started",
}

// KeywordValidator returns a Validator that succeeds when any keyword is a
// substring of the lowercased result text.
func KeywordValidator(keywords ...string) Validator {
	return func(_ string, out Outcome) bool {
		text := strings.ToLower(out.Result)
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				return true
			}
		}
		return false
	}
}

// CommandValidator returns a Validator for command-issuing steps: it succeeds
// when the expected command family ran through the shell tool and the result
// text lacks recognized failure markers.
func CommandValidator(command string) Validator {
	return func(_ string, out Outcome) bool {
		if out.Action != ActionRunCommand {
			return false
		}
		if !strings.Contains(strings.ToLower(fmt.Sprint(out.Parameters)), command) {
			return false
		}
		text := strings.ToLower(out.Result)
		for _, marker := range failureMarkers {
			if strings.Contains(text, marker) {
				return false
			}
		}
		return true
	}
}

// AnyValidator returns a Validator that succeeds when any of the given
// validators succeeds.
func AnyValidator(validators ...Validator) Validator {
	return func(stepName string, out Outcome) bool {
		for _, v := range validators {
			if v != nil && v(stepName, out) {
				return true
			}
		}
		return false
	}
}

// ValidatorRegistry maps step names to validators, with a keyword-scan
// fallback for unregistered steps.
//
// Validate declares success when the outcome already reports Completed, when
// the step's registered validator accepts it, or - for unregistered steps -
// when the fallback keyword scan matches. Absence of a failure signal is not
// treated as success: when nothing matches, the step is considered not yet
// succeeded and will be retried.
type ValidatorRegistry struct {
	mu       sync.RWMutex
	byStep   map[string]Validator
	fallback Validator
}

// NewValidatorRegistry returns a registry whose fallback is the generic
// case-insensitive keyword scan.
func NewValidatorRegistry() *ValidatorRegistry {
	return &ValidatorRegistry{
		byStep:   make(map[string]Validator),
		fallback: KeywordValidator(defaultSuccessKeywords...),
	}
}

// Register installs a validator for the given step name, replacing any
// previous registration.
func (r *ValidatorRegistry) Register(stepName string, v Validator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byStep[stepName] = v
}

// SetFallback replaces the registry's fallback validator.
func (r *ValidatorRegistry) SetFallback(v Validator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = v
}

// Validate classifies the outcome for the named step.
func (r *ValidatorRegistry) Validate(stepName string, out Outcome) bool {
	if out.Completed {
		return true
	}

	r.mu.RLock()
	v, ok := r.byStep[stepName]
	fallback := r.fallback
	r.mu.RUnlock()

	if ok && v != nil {
		return v(stepName, out)
	}
	if fallback != nil {
		return fallback(stepName, out)
	}
	return false
}
