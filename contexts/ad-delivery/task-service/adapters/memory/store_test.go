package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"adboost/contexts/ad-delivery/task-service/domain/entities"
	domainerrors "adboost/contexts/ad-delivery/task-service/domain/errors"

	"github.com/shopspring/decimal"
)

func storedTask(taskID string, status entities.TaskStatus) entities.Task {
	now := time.Now().UTC()
	return entities.Task{
		TaskID:        taskID,
		UserID:        "user-1",
		AccountID:     "acct-1",
		ItemID:        "item-1",
		Budget:        decimal.NewFromInt(100),
		Status:        status,
		MaxRetry:      3,
		ScheduledTime: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestUpdateTaskRejectsStaleVersion(t *testing.T) {
	store := NewStore([]entities.Task{storedTask("t-1", entities.TaskStatusWait)})
	ctx := context.Background()

	task, err := store.GetTask(ctx, "t-1")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}

	stale := task
	task.Status = entities.TaskStatusRunning
	updated, err := store.UpdateTask(ctx, task)
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	if updated.Version != task.Version+1 {
		t.Fatalf("expected version bump, got %d", updated.Version)
	}

	stale.Status = entities.TaskStatusCancelled
	if _, err := store.UpdateTask(ctx, stale); !errors.Is(err, domainerrors.ErrConcurrentUpdate) {
		t.Fatalf("expected concurrent update rejection, got %v", err)
	}

	current, err := store.GetTask(ctx, "t-1")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if current.Status != entities.TaskStatusRunning {
		t.Fatalf("stale write must not land, got %s", current.Status)
	}
}

func TestUpdateTaskReturnsRowUsableForChainedWrites(t *testing.T) {
	store := NewStore([]entities.Task{storedTask("t-1", entities.TaskStatusWait)})
	ctx := context.Background()

	task, err := store.GetTask(ctx, "t-1")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}

	task.Status = entities.TaskStatusRunning
	next, err := store.UpdateTask(ctx, task)
	if err != nil {
		t.Fatalf("first update: %v", err)
	}

	next.Status = entities.TaskStatusSuccess
	if _, err := store.UpdateTask(ctx, next); err != nil {
		t.Fatalf("chained update: %v", err)
	}
}

func TestCreateTasksRejectsDuplicateIDsAtomically(t *testing.T) {
	store := NewStore([]entities.Task{storedTask("t-1", entities.TaskStatusWait)})
	ctx := context.Background()

	batch := []entities.Task{
		storedTask("t-2", entities.TaskStatusWait),
		storedTask("t-1", entities.TaskStatusWait),
	}
	if err := store.CreateTasks(ctx, batch); !errors.Is(err, domainerrors.ErrInvalidTaskInput) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
	if _, err := store.GetTask(ctx, "t-2"); !errors.Is(err, domainerrors.ErrTaskNotFound) {
		t.Fatalf("expected no partial insert, got %v", err)
	}
}

func TestBudgetSumsSkipReleasedSpend(t *testing.T) {
	day := time.Now().UTC()
	waiting := storedTask("t-1", entities.TaskStatusWait)
	succeeded := storedTask("t-2", entities.TaskStatusSuccess)
	cancelled := storedTask("t-3", entities.TaskStatusCancelled)
	failed := storedTask("t-4", entities.TaskStatusFail)
	yesterday := storedTask("t-5", entities.TaskStatusWait)
	yesterday.CreatedAt = day.Add(-24 * time.Hour)

	store := NewStore([]entities.Task{waiting, succeeded, cancelled, failed, yesterday})

	sum, err := store.SumAccountBudgetForDay(context.Background(), "acct-1", day)
	if err != nil {
		t.Fatalf("sum budget: %v", err)
	}
	if !sum.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected 200 committed today, got %s", sum)
	}
}
