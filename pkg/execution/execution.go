package execution

import (
	"context"
	"time"

	"github.com/google/uuid"

	shared "github.com/pacemate/server/src/go/pkg"
	"github.com/pacemate/server/src/go/pkg/types"
)

// ExecutionOptions carries optional metadata for an execution record.
type ExecutionOptions struct {
	UserID      string
	TestRunID   string
	TriggerType string
}

// LogStart writes a STATUS_STARTED execution record and returns its ID.
func LogStart(ctx context.Context, db shared.Database, serviceName string, opts ExecutionOptions) (string, error) {
	execID := uuid.NewString()

	record := &types.ExecutionRecord{
		ExecutionID: execID,
		Service:     serviceName,
		UserID:      opts.UserID,
		TestRunID:   opts.TestRunID,
		TriggerType: opts.TriggerType,
		Status:      types.StatusStarted,
		StartedAt:   time.Now().UTC(),
	}

	if err := db.SetExecution(ctx, record); err != nil {
		return execID, err
	}
	return execID, nil
}

func LogSuccess(ctx context.Context, db shared.Database, userID, execID string, outputs interface{}) error {
	return LogExecutionStatus(ctx, db, userID, execID, types.StatusSuccess, outputs)
}

func LogFailure(ctx context.Context, db shared.Database, userID, execID string, cause error, outputs interface{}) error {
	update := finishUpdate(types.StatusFailure, outputs)
	if cause != nil {
		update["error"] = cause.Error()
	}
	return db.UpdateExecution(ctx, userID, execID, update)
}

// LogExecutionStatus closes the execution record with an explicit status.
// Handlers that skip work report StatusSkipped through this.
func LogExecutionStatus(ctx context.Context, db shared.Database, userID, execID string, status types.ExecutionStatus, outputs interface{}) error {
	return db.UpdateExecution(ctx, userID, execID, finishUpdate(status, outputs))
}

func finishUpdate(status types.ExecutionStatus, outputs interface{}) map[string]interface{} {
	update := map[string]interface{}{
		"status":      string(status),
		"finished_at": time.Now().UTC(),
	}
	if outputs != nil {
		update["outputs"] = outputs
	}
	return update
}
