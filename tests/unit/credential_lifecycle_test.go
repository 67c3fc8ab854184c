package unit

import (
	"context"
	"fmt"
	"testing"
	"time"

	accountentities "adboost/contexts/ad-delivery/account-service/domain/entities"
	accounterrors "adboost/contexts/ad-delivery/account-service/domain/errors"
	accountports "adboost/contexts/ad-delivery/account-service/ports"
	taskentities "adboost/contexts/ad-delivery/task-service/domain/entities"
)

// A dead refresh token disables the account, and a queued task on that
// account then burns a delivery attempt without ever reaching the platform.
func TestDeadRefreshTokenStallsQueuedDelivery(t *testing.T) {
	account := activeAccount("acct-1", "user-1")
	account.TokenExpiresAt = time.Now().UTC().Add(time.Hour)

	fx := newFixture(
		[]accountentities.Account{account},
		[]taskentities.Task{seededTask("t-1", "user-1", "acct-1", 100, taskentities.TaskStatusWait)},
	)
	fx.Platform.RefreshFn = func(string) (accountports.TokenRefresh, error) {
		return accountports.TokenRefresh{}, fmt.Errorf("%w: code 10010", accounterrors.ErrRefreshTokenExpired)
	}

	ctx := context.Background()
	if err := fx.Accounts.Refresher.RunOnce(ctx); err != nil {
		t.Fatalf("refresh tick failed: %v", err)
	}
	if err := fx.Tasks.Executor.RunOnce(ctx); err != nil {
		t.Fatalf("executor tick failed: %v", err)
	}

	task, err := fx.Tasks.Store.GetTask(ctx, "t-1")
	if err != nil {
		t.Fatalf("get task failed: %v", err)
	}
	if task.Status != taskentities.TaskStatusWait {
		t.Fatalf("expected task still queued, got %s", task.Status)
	}
	if task.RetryCount != 1 {
		t.Fatalf("expected one burned attempt, got %d", task.RetryCount)
	}
	if fx.Platform.CreateCalls != 0 {
		t.Fatalf("expected no order creation with a disabled account, got %d calls", fx.Platform.CreateCalls)
	}
}
