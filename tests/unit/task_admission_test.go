package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	accountentities "adboost/contexts/ad-delivery/account-service/domain/entities"
	taskentities "adboost/contexts/ad-delivery/task-service/domain/entities"
	taskerrors "adboost/contexts/ad-delivery/task-service/domain/errors"
	taskhttp "adboost/contexts/ad-delivery/task-service/transport/http"

	"github.com/shopspring/decimal"
)

func taskRequest(accountID, itemID, budget string) taskhttp.CreateTaskRequest {
	return taskhttp.CreateTaskRequest{
		AccountID:      accountID,
		ItemID:         itemID,
		Budget:         budget,
		InvestPassword: "pass-1",
	}
}

func seededTask(taskID, userID, accountID string, budget int64, status taskentities.TaskStatus) taskentities.Task {
	now := time.Now().UTC()
	return taskentities.Task{
		TaskID:        taskID,
		UserID:        userID,
		AccountID:     accountID,
		ItemID:        "item-" + taskID,
		Budget:        decimal.NewFromInt(budget),
		Source:        taskentities.TaskSourceLocal,
		Status:        status,
		MaxRetry:      3,
		ScheduledTime: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestCreateTasksRejectsBudgetOverSingleLimit(t *testing.T) {
	fx := newFixture([]accountentities.Account{activeAccount("acct-1", "user-1")}, nil)
	ctx := context.Background()

	_, err := fx.Tasks.Handler.CreateTasksHandler(ctx, "user-1", []taskhttp.CreateTaskRequest{
		taskRequest("acct-1", "item-1", "6000"),
	})
	if !errors.Is(err, taskerrors.ErrBudgetExceedsSingleLimit) {
		t.Fatalf("expected single limit rejection, got %v", err)
	}

	listed, err := fx.Tasks.Handler.ListTasksHandler(ctx, "user-1", "", "", 1, 20)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if listed.TotalCount != 0 {
		t.Fatalf("expected nothing persisted, got %d tasks", listed.TotalCount)
	}
}

func TestCreateTasksRejectsOverAccountDailyLimit(t *testing.T) {
	limit := decimal.NewFromInt(1000)
	account := activeAccount("acct-1", "user-1")
	account.DailyLimit = &limit

	fx := newFixture(
		[]accountentities.Account{account},
		[]taskentities.Task{seededTask("t-prior", "user-1", "acct-1", 900, taskentities.TaskStatusWait)},
	)
	ctx := context.Background()

	_, err := fx.Tasks.Handler.CreateTasksHandler(ctx, "user-1", []taskhttp.CreateTaskRequest{
		taskRequest("acct-1", "item-1", "200"),
	})
	if !errors.Is(err, taskerrors.ErrAccountDailyLimitExceeded) {
		t.Fatalf("expected account daily limit rejection, got %v", err)
	}

	var limitErr *taskerrors.DailyLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected usage figures on the error, got %T", err)
	}
	if !limitErr.Used.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("expected used 900, got %s", limitErr.Used)
	}
	if !limitErr.Limit.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected limit 1000, got %s", limitErr.Limit)
	}
}

func TestCreateTasksCancelledSpendDoesNotCountAgainstLimit(t *testing.T) {
	limit := decimal.NewFromInt(1000)
	account := activeAccount("acct-1", "user-1")
	account.DailyLimit = &limit

	fx := newFixture(
		[]accountentities.Account{account},
		[]taskentities.Task{seededTask("t-cancelled", "user-1", "acct-1", 900, taskentities.TaskStatusCancelled)},
	)

	resp, err := fx.Tasks.Handler.CreateTasksHandler(context.Background(), "user-1", []taskhttp.CreateTaskRequest{
		taskRequest("acct-1", "item-1", "200"),
	})
	if err != nil {
		t.Fatalf("expected admission to pass, got %v", err)
	}
	if len(resp.Tasks) != 1 {
		t.Fatalf("expected 1 admitted task, got %d", len(resp.Tasks))
	}
}

func TestCreateTasksBatchIsAtomic(t *testing.T) {
	fx := newFixture([]accountentities.Account{activeAccount("acct-1", "user-1")}, nil)
	ctx := context.Background()

	_, err := fx.Tasks.Handler.CreateTasksHandler(ctx, "user-1", []taskhttp.CreateTaskRequest{
		taskRequest("acct-1", "item-1", "100"),
		taskRequest("acct-1", "", "100"),
	})
	if !errors.Is(err, taskerrors.ErrInvalidTaskInput) {
		t.Fatalf("expected invalid input rejection, got %v", err)
	}

	listed, err := fx.Tasks.Handler.ListTasksHandler(ctx, "user-1", "", "", 1, 20)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if listed.TotalCount != 0 {
		t.Fatalf("expected an all-or-nothing batch, got %d persisted tasks", listed.TotalCount)
	}
}

func TestCreateTasksBatchBudgetsAccumulateAgainstCeiling(t *testing.T) {
	limit := decimal.NewFromInt(7000)
	account := activeAccount("acct-1", "user-1")
	account.DailyLimit = &limit

	fx := newFixture([]accountentities.Account{account}, nil)
	ctx := context.Background()

	// Each request alone clears the 7000 ceiling; together they do not.
	_, err := fx.Tasks.Handler.CreateTasksHandler(ctx, "user-1", []taskhttp.CreateTaskRequest{
		taskRequest("acct-1", "item-1", "4000"),
		taskRequest("acct-1", "item-2", "4000"),
	})
	if !errors.Is(err, taskerrors.ErrAccountDailyLimitExceeded) {
		t.Fatalf("expected in-batch accumulation to trip the ceiling, got %v", err)
	}

	listed, err := fx.Tasks.Handler.ListTasksHandler(ctx, "user-1", "", "", 1, 20)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if listed.TotalCount != 0 {
		t.Fatalf("expected nothing persisted, got %d tasks", listed.TotalCount)
	}
}

func TestCreateTasksRejectsWrongInvestPassword(t *testing.T) {
	fx := newFixture([]accountentities.Account{activeAccount("acct-1", "user-1")}, nil)

	req := taskRequest("acct-1", "item-1", "100")
	req.InvestPassword = "wrong"
	_, err := fx.Tasks.Handler.CreateTasksHandler(context.Background(), "user-1", []taskhttp.CreateTaskRequest{req})
	if !errors.Is(err, taskerrors.ErrInvestPasswordMismatch) {
		t.Fatalf("expected invest password mismatch, got %v", err)
	}
}

func TestCreateTasksRejectsDisabledAccount(t *testing.T) {
	account := activeAccount("acct-1", "user-1")
	account.Status = accountentities.StatusDisabled

	fx := newFixture([]accountentities.Account{account}, nil)

	_, err := fx.Tasks.Handler.CreateTasksHandler(context.Background(), "user-1", []taskhttp.CreateTaskRequest{
		taskRequest("acct-1", "item-1", "100"),
	})
	if !errors.Is(err, taskerrors.ErrAccountNotAuthorized) {
		t.Fatalf("expected unauthorized account rejection, got %v", err)
	}
}

func TestCreateTasksAppliesIntentDefaults(t *testing.T) {
	fx := newFixture([]accountentities.Account{activeAccount("acct-1", "user-1")}, nil)

	resp, err := fx.Tasks.Handler.CreateTasksHandler(context.Background(), "user-1", []taskhttp.CreateTaskRequest{
		taskRequest("acct-1", "item-1", "100"),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	task := resp.Tasks[0]
	if task.WantType != taskentities.DefaultWantType {
		t.Fatalf("expected default want type, got %q", task.WantType)
	}
	if task.DurationHours != taskentities.DefaultDurationHours {
		t.Fatalf("expected default duration, got %d", task.DurationHours)
	}
	if task.Status != string(taskentities.TaskStatusWait) {
		t.Fatalf("expected WAIT status, got %q", task.Status)
	}
}
