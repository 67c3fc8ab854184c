package commands

import (
	"context"
	"log/slog"
	"strings"

	application "adboost/contexts/ad-delivery/task-service/application"
	"adboost/contexts/ad-delivery/task-service/domain/entities"
	domainerrors "adboost/contexts/ad-delivery/task-service/domain/errors"
	"adboost/contexts/ad-delivery/task-service/ports"
)

type CancelTaskCommand struct {
	UserID string
	TaskID string
}

type CancelTaskUseCase struct {
	Tasks  ports.TaskRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

// Execute honors cancellation only while the task is still waiting. A task
// already handed to the platform is never cancelled here; the caller gets an
// explicit error instead of a silent no-op.
func (uc CancelTaskUseCase) Execute(ctx context.Context, cmd CancelTaskCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	task, err := uc.Tasks.GetOwnedTask(ctx, strings.TrimSpace(cmd.TaskID), strings.TrimSpace(cmd.UserID))
	if err != nil {
		return err
	}
	if !task.CanCancel() {
		return domainerrors.ErrTaskNotCancellable
	}

	task.Status = entities.TaskStatusCancelled
	task.UpdatedAt = uc.Clock.Now().UTC()
	if _, err := uc.Tasks.UpdateTask(ctx, task); err != nil {
		return err
	}

	logger.Info("task cancelled",
		"event", "task_cancelled",
		"module", "ad-delivery/task-service",
		"layer", "application",
		"task_id", task.TaskID,
		"user_id", task.UserID,
	)
	return nil
}
