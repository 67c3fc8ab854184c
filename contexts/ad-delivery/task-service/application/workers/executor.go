package workers

import (
	"context"
	"log/slog"

	application "adboost/contexts/ad-delivery/task-service/application"
	"adboost/contexts/ad-delivery/task-service/domain/entities"
	domainerrors "adboost/contexts/ad-delivery/task-service/domain/errors"
	"adboost/contexts/ad-delivery/task-service/ports"
	"adboost/internal/shared/events"

	"github.com/shopspring/decimal"
)

// Executor drives due WAIT tasks through the platform's order-creation API.
// One RunOnce call is one tick: a bounded batch executed sequentially, each
// task isolated so a failure never aborts the rest of the batch. The caller
// owns the ticker and must not start a tick while one is in flight.
type Executor struct {
	Tasks     ports.TaskRepository
	Accounts  ports.AccountDirectory
	Codec     ports.CredentialCodec
	Platform  ports.AdPlatformClient
	Events    ports.EventPublisher
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	BatchSize int
	Logger    *slog.Logger
}

func (e Executor) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(e.Logger)
	limit := e.BatchSize
	if limit <= 0 {
		limit = 10
	}

	due, err := e.Tasks.ListDueTasks(ctx, e.Clock.Now().UTC(), limit)
	if err != nil {
		logger.Error("due task listing failed",
			"event", "task_executor_list_failed",
			"module", "ad-delivery/task-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(due) == 0 {
		return nil
	}

	logger.Info("executing due tasks",
		"event", "task_executor_tick",
		"module", "ad-delivery/task-service",
		"layer", "worker",
		"task_count", len(due),
	)

	for _, task := range due {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.executeOne(ctx, task)
	}
	return nil
}

func (e Executor) executeOne(ctx context.Context, task entities.Task) {
	logger := application.ResolveLogger(e.Logger)

	// RUNNING is stamped before the remote call so a crash mid-call leaves a
	// diagnosable row instead of a silent WAIT.
	task.MarkRunning(e.Clock.Now())
	task, err := e.Tasks.UpdateTask(ctx, task)
	if err != nil {
		logger.Error("mark running failed",
			"event", "task_executor_mark_running_failed",
			"module", "ad-delivery/task-service",
			"layer", "worker",
			"task_id", task.TaskID,
			"error", err.Error(),
		)
		return
	}

	credential, err := e.resolveCredential(ctx, task.AccountID)
	if err != nil {
		e.recordFailure(ctx, task, err)
		return
	}

	result, err := e.Platform.CreateOrder(ctx, credential, ports.CreateOrderInput{
		ItemID:        task.ItemID,
		BudgetMinor:   majorToMinor(task.Budget),
		DurationHours: task.DurationHours,
		TargetingMode: task.Targeting,
		TargetConfig:  task.TargetConfig,
	})
	if err != nil {
		e.recordFailure(ctx, task, err)
		return
	}

	task.MarkSuccess(result.OrderID, result.ExpectedExposure, e.Clock.Now())
	if _, err := e.Tasks.UpdateTask(ctx, task); err != nil {
		logger.Error("mark success failed",
			"event", "task_executor_mark_success_failed",
			"module", "ad-delivery/task-service",
			"layer", "worker",
			"task_id", task.TaskID,
			"order_id", result.OrderID,
			"error", err.Error(),
		)
		return
	}

	e.publish(ctx, events.TypeTaskSucceeded, task)
	logger.Info("task executed",
		"event", "task_executed",
		"module", "ad-delivery/task-service",
		"layer", "worker",
		"task_id", task.TaskID,
		"order_id", result.OrderID,
	)
}

func (e Executor) resolveCredential(ctx context.Context, accountID string) (string, error) {
	account, err := e.Accounts.GetAccount(ctx, accountID)
	if err != nil {
		return "", err
	}
	if !account.Active {
		return "", domainerrors.ErrCredentialUnavailable
	}
	credential, err := e.Codec.Decrypt(account.EncryptedAccessToken)
	if err != nil {
		return "", domainerrors.ErrCredentialUnavailable
	}
	return credential, nil
}

// recordFailure walks the state machine's retry edge and keeps the error
// message verbatim for operator diagnosis.
func (e Executor) recordFailure(ctx context.Context, task entities.Task, cause error) {
	logger := application.ResolveLogger(e.Logger)
	terminal := task.ApplyFailure(cause.Error(), e.Clock.Now())
	if _, err := e.Tasks.UpdateTask(ctx, task); err != nil {
		logger.Error("record failure update failed",
			"event", "task_executor_record_failure_failed",
			"module", "ad-delivery/task-service",
			"layer", "worker",
			"task_id", task.TaskID,
			"error", err.Error(),
		)
		return
	}

	if terminal {
		e.publish(ctx, events.TypeTaskFailed, task)
	}
	logger.Warn("task attempt failed",
		"event", "task_attempt_failed",
		"module", "ad-delivery/task-service",
		"layer", "worker",
		"task_id", task.TaskID,
		"retry_count", task.RetryCount,
		"max_retry", task.MaxRetry,
		"terminal", terminal,
		"error", cause.Error(),
	)
}

// publish mints a fresh event id per envelope; the task id travels in the
// payload so repeated events for one task stay distinguishable.
func (e Executor) publish(ctx context.Context, eventType string, task entities.Task) {
	if e.Events == nil || e.IDGen == nil {
		return
	}
	eventID, err := e.IDGen.NewID(ctx)
	if err != nil {
		return
	}
	envelope, err := events.New(eventID, eventType, task.UserID, e.Clock.Now(), map[string]any{
		"task_id":     task.TaskID,
		"account_id":  task.AccountID,
		"order_id":    task.OrderID,
		"status":      string(task.Status),
		"retry_count": task.RetryCount,
	})
	if err != nil {
		return
	}
	_ = e.Events.Publish(ctx, eventType, envelope)
}

func majorToMinor(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}
