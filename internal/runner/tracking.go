package runner

import (
	"context"
	"sync"
	"time"

	"github.com/jlaakso/deskflow/pkg/api"
)

// trackingExecutor wraps a ToolExecutor and records an outcome for every
// Execute call, successful or not. Recording happens at the Execute boundary
// so scripted helpers that call the executor directly are tracked too.
type trackingExecutor struct {
	inner api.ToolExecutor
	clock func() time.Time

	mu       sync.Mutex
	outcomes []api.Outcome
}

func newTrackingExecutor(inner api.ToolExecutor, clock func() time.Time) *trackingExecutor {
	return &trackingExecutor{inner: inner, clock: clock}
}

func (t *trackingExecutor) Execute(ctx context.Context, name string, params map[string]any) (string, error) {
	result, err := t.inner.Execute(ctx, name, params)
	if err != nil {
		t.record(api.Outcome{
			Action:     api.ActionError,
			Parameters: map[string]any{"action": name},
			Result:     err.Error(),
			Timestamp:  t.clock(),
		})
		return "", err
	}
	t.record(api.Outcome{
		Action:     name,
		Parameters: params,
		Result:     result,
		Timestamp:  t.clock(),
	})
	return result, nil
}

func (t *trackingExecutor) record(out api.Outcome) {
	t.mu.Lock()
	t.outcomes = append(t.outcomes, out)
	t.mu.Unlock()
}

// Outcomes returns the recorded outcomes in execution order.
func (t *trackingExecutor) Outcomes() []api.Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]api.Outcome(nil), t.outcomes...)
}
