package services

import (
	"context"

	"worktyhub/backend/pkg/models"
)

// Caller identifies the authenticated account a request acts on behalf of.
// Admin widens ownership scoping and unlocks state transitions.
type Caller struct {
	AccountID string
	Admin     bool
}

// ExecutionHook is the external engine the run/pause/stop endpoints hand a
// workflow to. The marketplace core never executes steps itself.
type ExecutionHook interface {
	Run(ctx context.Context, workflow *models.Workflow) error
	Pause(ctx context.Context, workflow *models.Workflow) error
	Stop(ctx context.Context, workflow *models.Workflow) error
}

// NopExecutionHook accepts every control request without doing anything.
type NopExecutionHook struct{}

func (NopExecutionHook) Run(context.Context, *models.Workflow) error   { return nil }
func (NopExecutionHook) Pause(context.Context, *models.Workflow) error { return nil }
func (NopExecutionHook) Stop(context.Context, *models.Workflow) error  { return nil }

// Logger is the logging interface the services need.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}
