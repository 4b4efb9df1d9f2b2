package deskflow

import (
	"fmt"
	"time"
)

// WorkflowBuilder provides a fluent API for defining workflows:
//
//	flow := deskflow.NewWorkflow("repo-setup").
//	    Step("open_terminal", "Open a terminal application").
//	    CriticalStep("clone_repository", "Clone the repository "+repoURL).
//	    WaitStep("wait_for_instructions", "Wait for further instructions")
//
//	summary, err := eng.RunWorkflow(ctx, flow.Definition(), params)
type WorkflowBuilder struct {
	def WorkflowDefinition
}

// NewWorkflow creates a new workflow builder with the given name.
func NewWorkflow(name string) *WorkflowBuilder {
	return &WorkflowBuilder{
		def: WorkflowDefinition{
			Name:  name,
			Steps: make([]StepDefinition, 0),
		},
	}
}

// Name returns the workflow name.
func (b *WorkflowBuilder) Name() string {
	return b.def.Name
}

// Definition returns the underlying WorkflowDefinition.
func (b *WorkflowBuilder) Definition() WorkflowDefinition {
	return b.def
}

// Step appends a step with a fixed instruction.
func (b *WorkflowBuilder) Step(name, instruction string) *WorkflowBuilder {
	return b.StepFn(name, StaticInstruction(instruction))
}

// StepFn appends a step whose instruction is computed from the workflow
// parameters at run time.
func (b *WorkflowBuilder) StepFn(name string, fn InstructionFunc) *WorkflowBuilder {
	if name == "" {
		panic("deskflow: step name must not be empty")
	}
	if fn == nil {
		panic(fmt.Sprintf("deskflow: step %q has nil instruction", name))
	}
	b.def.Steps = append(b.def.Steps, StepDefinition{
		Name:        name,
		Instruction: fn,
	})
	return b
}

// ScriptedStep appends a step that bypasses the decision oracle and drives the
// tool executor directly.
func (b *WorkflowBuilder) ScriptedStep(name string, fn ScriptFunc) *WorkflowBuilder {
	if name == "" {
		panic("deskflow: step name must not be empty")
	}
	if fn == nil {
		panic(fmt.Sprintf("deskflow: step %q has nil script", name))
	}
	b.def.Steps = append(b.def.Steps, StepDefinition{
		Name:   name,
		Script: fn,
	})
	return b
}

// CriticalStep appends a step whose failure aborts the workflow.
func (b *WorkflowBuilder) CriticalStep(name, instruction string) *WorkflowBuilder {
	b.Step(name, instruction)
	b.lastStep().Critical = true
	return b
}

// WaitStep appends a terminal step: once it succeeds the workflow ends, even
// if steps follow it.
func (b *WorkflowBuilder) WaitStep(name, instruction string) *WorkflowBuilder {
	b.Step(name, instruction)
	b.lastStep().Terminal = true
	return b
}

// WithValidator attaches a validator to the most recently added step.
func (b *WorkflowBuilder) WithValidator(v Validator) *WorkflowBuilder {
	if v == nil {
		panic("deskflow: nil validator")
	}
	b.lastStep().Validator = v
	return b
}

// WithRetry sets the retry policy of the most recently added step.
func (b *WorkflowBuilder) WithRetry(retry RetryPolicy) *WorkflowBuilder {
	// Copy so callers can mutate their RetryPolicy after the call without
	// affecting the stored definition.
	r := retry
	b.lastStep().Retry = &r
	return b
}

// WithTimeout bounds each attempt of the most recently added step.
func (b *WorkflowBuilder) WithTimeout(d time.Duration) *WorkflowBuilder {
	b.lastStep().Timeout = d
	return b
}

// Critical marks the most recently added step critical.
func (b *WorkflowBuilder) Critical() *WorkflowBuilder {
	b.lastStep().Critical = true
	return b
}

// Add appends a fully specified step definition.
func (b *WorkflowBuilder) Add(def StepDefinition) *WorkflowBuilder {
	if def.Name == "" {
		panic("deskflow: step name must not be empty")
	}
	if def.Instruction == nil && def.Script == nil {
		panic(fmt.Sprintf("deskflow: step %q needs an instruction or a script", def.Name))
	}
	b.def.Steps = append(b.def.Steps, def)
	return b
}

func (b *WorkflowBuilder) lastStep() *StepDefinition {
	if len(b.def.Steps) == 0 {
		panic("deskflow: no step to modify")
	}
	return &b.def.Steps[len(b.def.Steps)-1]
}
