package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	accountentities "adboost/contexts/ad-delivery/account-service/domain/entities"
	taskentities "adboost/contexts/ad-delivery/task-service/domain/entities"
	taskports "adboost/contexts/ad-delivery/task-service/ports"
)

func TestExecutorMarksSuccessAndRecordsOrder(t *testing.T) {
	fx := newFixture(
		[]accountentities.Account{activeAccount("acct-1", "user-1")},
		[]taskentities.Task{seededTask("t-1", "user-1", "acct-1", 100, taskentities.TaskStatusWait)},
	)
	fx.Platform.CreateOrderFn = func(in taskports.CreateOrderInput) (taskports.CreateOrderResult, error) {
		if in.BudgetMinor != 10000 {
			t.Fatalf("expected budget in minor units, got %d", in.BudgetMinor)
		}
		return taskports.CreateOrderResult{OrderID: "order-1", ExpectedExposure: 5000}, nil
	}

	if err := fx.Tasks.Executor.RunOnce(context.Background()); err != nil {
		t.Fatalf("executor tick failed: %v", err)
	}

	task, err := fx.Tasks.Store.GetTask(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("get task failed: %v", err)
	}
	if task.Status != taskentities.TaskStatusSuccess {
		t.Fatalf("expected SUCCESS, got %s", task.Status)
	}
	if task.OrderID != "order-1" {
		t.Fatalf("expected order id recorded, got %q", task.OrderID)
	}
	if task.ExpectedExposure != 5000 {
		t.Fatalf("expected exposure recorded, got %d", task.ExpectedExposure)
	}
	if task.ExecutedTime == nil || task.CompletedTime == nil {
		t.Fatalf("expected execution timestamps to be set")
	}
}

func TestExecutorRetriesThenSettlesInFail(t *testing.T) {
	fx := newFixture(
		[]accountentities.Account{activeAccount("acct-1", "user-1")},
		[]taskentities.Task{seededTask("t-1", "user-1", "acct-1", 100, taskentities.TaskStatusWait)},
	)
	fx.Platform.CreateOrderFn = func(taskports.CreateOrderInput) (taskports.CreateOrderResult, error) {
		return taskports.CreateOrderResult{}, errors.New("order create rejected")
	}

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		if err := fx.Tasks.Executor.RunOnce(ctx); err != nil {
			t.Fatalf("tick %d failed: %v", i, err)
		}
	}

	task, err := fx.Tasks.Store.GetTask(ctx, "t-1")
	if err != nil {
		t.Fatalf("get task failed: %v", err)
	}
	if task.Status != taskentities.TaskStatusFail {
		t.Fatalf("expected FAIL after exhausting retries, got %s", task.Status)
	}
	if task.RetryCount != 3 {
		t.Fatalf("expected retry count 3, got %d", task.RetryCount)
	}
	if task.ErrorMsg != "order create rejected" {
		t.Fatalf("expected last error retained, got %q", task.ErrorMsg)
	}
	// The fourth tick must not re-attempt a settled task.
	if fx.Platform.CreateCalls != 3 {
		t.Fatalf("expected 3 remote attempts, got %d", fx.Platform.CreateCalls)
	}
}

func TestExecutorFailsTaskOnDisabledAccountCredential(t *testing.T) {
	account := activeAccount("acct-1", "user-1")
	account.Status = accountentities.StatusDisabled

	fx := newFixture(
		[]accountentities.Account{account},
		[]taskentities.Task{seededTask("t-1", "user-1", "acct-1", 100, taskentities.TaskStatusWait)},
	)

	if err := fx.Tasks.Executor.RunOnce(context.Background()); err != nil {
		t.Fatalf("executor tick failed: %v", err)
	}

	task, err := fx.Tasks.Store.GetTask(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("get task failed: %v", err)
	}
	if task.Status != taskentities.TaskStatusWait {
		t.Fatalf("expected retry edge back to WAIT, got %s", task.Status)
	}
	if task.RetryCount != 1 {
		t.Fatalf("expected one burned attempt, got %d", task.RetryCount)
	}
	if fx.Platform.CreateCalls != 0 {
		t.Fatalf("expected no remote call without a credential, got %d", fx.Platform.CreateCalls)
	}
}

func TestExecutorSkipsFutureScheduledTasks(t *testing.T) {
	future := seededTask("t-future", "user-1", "acct-1", 100, taskentities.TaskStatusWait)
	future.ScheduledTime = future.ScheduledTime.Add(48 * time.Hour)

	fx := newFixture(
		[]accountentities.Account{activeAccount("acct-1", "user-1")},
		[]taskentities.Task{future},
	)

	if err := fx.Tasks.Executor.RunOnce(context.Background()); err != nil {
		t.Fatalf("executor tick failed: %v", err)
	}
	if fx.Platform.CreateCalls != 0 {
		t.Fatalf("expected future task to stay queued, got %d remote calls", fx.Platform.CreateCalls)
	}

	task, err := fx.Tasks.Store.GetTask(context.Background(), "t-future")
	if err != nil {
		t.Fatalf("get task failed: %v", err)
	}
	if task.Status != taskentities.TaskStatusWait {
		t.Fatalf("expected WAIT, got %s", task.Status)
	}
}
