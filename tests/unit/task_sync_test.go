package unit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	accountentities "adboost/contexts/ad-delivery/account-service/domain/entities"
	"adboost/contexts/ad-delivery/task-service/application/commands"
	taskentities "adboost/contexts/ad-delivery/task-service/domain/entities"
	taskerrors "adboost/contexts/ad-delivery/task-service/domain/errors"
	taskports "adboost/contexts/ad-delivery/task-service/ports"
	"adboost/internal/platform/syncguard"

	"github.com/shopspring/decimal"
)

func remoteOrder(orderID string) taskports.RemoteOrder {
	return taskports.RemoteOrder{
		OrderID:       orderID,
		ItemID:        "item-" + orderID,
		Status:        "DELIVERING",
		BudgetMinor:   10000,
		CostMinor:     2500,
		DurationHours: 24,
		PlayCount:     100,
		LikeCount:     10,
		OwnerNickname: "creator",
		CreateTime:    "2026-08-01 12:00:00",
	}
}

func pagedOrders(counts map[int]int) func(page, pageSize int) (taskports.OrderPage, error) {
	return func(page, pageSize int) (taskports.OrderPage, error) {
		count := counts[page]
		items := make([]taskports.RemoteOrder, 0, count)
		for i := 0; i < count; i++ {
			items = append(items, remoteOrder(fmt.Sprintf("order-%d-%d", page, i)))
		}
		return taskports.OrderPage{Items: items, TotalCount: 60}, nil
	}
}

func TestSyncStopsAfterPartialPage(t *testing.T) {
	fx := newFixture([]accountentities.Account{activeAccount("acct-1", "user-1")}, nil)
	fx.Platform.ListOrdersFn = pagedOrders(map[int]int{1: 50, 2: 10})

	resp, err := fx.Tasks.Handler.SyncOrdersHandler(context.Background(), "user-1", "acct-1")
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if resp.ImportedCount != 60 {
		t.Fatalf("expected 60 imported orders, got %d", resp.ImportedCount)
	}
	for _, page := range fx.Platform.ListedPages {
		if page > 2 {
			t.Fatalf("expected listing to stop after the partial page, requested page %d", page)
		}
	}
}

func TestSyncIsIdempotentByOrderID(t *testing.T) {
	fx := newFixture([]accountentities.Account{activeAccount("acct-1", "user-1")}, nil)
	fx.Platform.ListOrdersFn = pagedOrders(map[int]int{1: 10})
	ctx := context.Background()

	first, err := fx.Tasks.Handler.SyncOrdersHandler(ctx, "user-1", "acct-1")
	if err != nil {
		t.Fatalf("first sync failed: %v", err)
	}
	if first.ImportedCount != 10 {
		t.Fatalf("expected 10 imported, got %d", first.ImportedCount)
	}

	second, err := fx.Tasks.Handler.SyncOrdersHandler(ctx, "user-1", "acct-1")
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}
	if second.ImportedCount != 0 {
		t.Fatalf("expected re-sync to import nothing, got %d", second.ImportedCount)
	}

	listed, err := fx.Tasks.Handler.ListTasksHandler(ctx, "user-1", "", "", 1, 100)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if listed.TotalCount != 10 {
		t.Fatalf("expected 10 stored tasks, got %d", listed.TotalCount)
	}
}

func TestSyncImportsRemoteOrderAsSyncedTask(t *testing.T) {
	fx := newFixture([]accountentities.Account{activeAccount("acct-1", "user-1")}, nil)
	fx.Platform.ListOrdersFn = pagedOrders(map[int]int{1: 1})
	ctx := context.Background()

	if _, err := fx.Tasks.Handler.SyncOrdersHandler(ctx, "user-1", "acct-1"); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	listed, err := fx.Tasks.Handler.ListTasksHandler(ctx, "user-1", "acct-1", "", 1, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	task := listed.Tasks[0]
	if task.Source != string(taskentities.TaskSourceSynced) {
		t.Fatalf("expected synced source, got %q", task.Source)
	}
	if task.Status != string(taskentities.TaskStatusDelivering) {
		t.Fatalf("expected mapped DELIVERING status, got %q", task.Status)
	}
	if task.Budget != "100.00" {
		t.Fatalf("expected minor units converted to 100.00, got %q", task.Budget)
	}
	if task.ActualCost != "25.00" {
		t.Fatalf("expected cost 25.00, got %q", task.ActualCost)
	}
}

func TestSyncReturnsPartialCountWhenPagingAborts(t *testing.T) {
	fx := newFixture([]accountentities.Account{activeAccount("acct-1", "user-1")}, nil)
	fx.Platform.ListOrdersFn = func(page, pageSize int) (taskports.OrderPage, error) {
		if page == 1 {
			return pagedOrders(map[int]int{1: 50})(page, pageSize)
		}
		return taskports.OrderPage{}, errors.New("listing unavailable")
	}

	resp, err := fx.Tasks.Handler.SyncOrdersHandler(context.Background(), "user-1", "acct-1")
	if err != nil {
		t.Fatalf("expected partial result without error, got %v", err)
	}
	if resp.ImportedCount != 50 {
		t.Fatalf("expected the first durable page to be kept, got %d", resp.ImportedCount)
	}
}

func TestSyncReportMergeNeverRegressesMetrics(t *testing.T) {
	seed := seededTask("t-1", "user-1", "acct-1", 100, taskentities.TaskStatusSuccess)
	seed.OrderID = "order-1"
	seed.PlayCount = 100
	seed.LikeCount = 5
	seed.ActualCost = decimal.NewFromInt(40)

	fx := newFixture([]accountentities.Account{activeAccount("acct-1", "user-1")}, []taskentities.Task{seed})
	fx.Platform.ListOrdersFn = pagedOrders(nil)
	fx.Platform.ReportFn = func(_, _ time.Time) (map[string]taskports.OrderReport, error) {
		return map[string]taskports.OrderReport{
			"order-1": {LikeCount: 9},
		}, nil
	}

	ctx := context.Background()
	if _, err := fx.Tasks.Handler.SyncOrdersHandler(ctx, "user-1", "acct-1"); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	task, err := fx.Tasks.Store.GetTask(ctx, "t-1")
	if err != nil {
		t.Fatalf("get task failed: %v", err)
	}
	if task.LikeCount != 9 {
		t.Fatalf("expected like count overlaid to 9, got %d", task.LikeCount)
	}
	if task.PlayCount != 100 {
		t.Fatalf("expected play count preserved, got %d", task.PlayCount)
	}
	if !task.ActualCost.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected cost preserved, got %s", task.ActualCost)
	}
}

func TestSyncRejectsConcurrentRunForSameUser(t *testing.T) {
	guard := syncguard.New()
	if !guard.TryAcquire("user-1") {
		t.Fatalf("expected first acquire to succeed")
	}

	uc := commands.SyncOrdersUseCase{Guard: guard}
	if _, err := uc.Execute(context.Background(), "user-1", "acct-1"); !errors.Is(err, taskerrors.ErrSyncInProgress) {
		t.Fatalf("expected sync-in-progress rejection, got %v", err)
	}

	guard.Release("user-1")
}

func TestSyncRequiresActorID(t *testing.T) {
	account := activeAccount("acct-1", "user-1")
	account.ActorID = ""

	fx := newFixture([]accountentities.Account{account}, nil)
	_, err := fx.Tasks.Handler.SyncOrdersHandler(context.Background(), "user-1", "acct-1")
	if !errors.Is(err, taskerrors.ErrMissingActorID) {
		t.Fatalf("expected missing actor id rejection, got %v", err)
	}
}
