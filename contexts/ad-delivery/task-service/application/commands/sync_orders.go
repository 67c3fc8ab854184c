package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "adboost/contexts/ad-delivery/task-service/application"
	"adboost/contexts/ad-delivery/task-service/domain/entities"
	domainerrors "adboost/contexts/ad-delivery/task-service/domain/errors"
	"adboost/contexts/ad-delivery/task-service/ports"

	"github.com/avast/retry-go"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const remoteTimeLayout = "2006-01-02 15:04:05"

// SyncOrdersUseCase imports the platform's own order history and merges its
// performance report into the local task rows. Listing is deliberately not one
// transaction: each page's upserts are durable even if a later page fails, and
// after maxPageFailures consecutive failures the partial count is returned.
type SyncOrdersUseCase struct {
	Tasks            ports.TaskRepository
	Accounts         ports.AccountDirectory
	Codec            ports.CredentialCodec
	Platform         ports.AdPlatformClient
	Guard            ports.SyncGuard
	Slots            *semaphore.Weighted
	Limiter          *rate.Limiter
	Clock            ports.Clock
	IDGen            ports.IDGenerator
	PageSize         int
	ReportWindowDays int
	Logger           *slog.Logger
}

const maxPageFailures = 3

// Execute syncs a single account and returns the number of newly imported
// tasks. A second call for the same user while one is running fails fast with
// ErrSyncInProgress.
func (uc SyncOrdersUseCase) Execute(ctx context.Context, userID, accountID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if !uc.Guard.TryAcquire(userID) {
		return 0, domainerrors.ErrSyncInProgress
	}
	defer uc.Guard.Release(userID)

	if uc.Slots != nil {
		if err := uc.Slots.Acquire(ctx, 1); err != nil {
			return 0, err
		}
		defer uc.Slots.Release(1)
	}

	return uc.syncAccount(ctx, userID, strings.TrimSpace(accountID))
}

// ExecuteAll syncs every linked account of the user sequentially, accumulating
// totals and continuing past per-account failures.
func (uc SyncOrdersUseCase) ExecuteAll(ctx context.Context, userID string) (int, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID = strings.TrimSpace(userID)
	if !uc.Guard.TryAcquire(userID) {
		return 0, domainerrors.ErrSyncInProgress
	}
	defer uc.Guard.Release(userID)

	if uc.Slots != nil {
		if err := uc.Slots.Acquire(ctx, 1); err != nil {
			return 0, err
		}
		defer uc.Slots.Release(1)
	}

	accounts, err := uc.Accounts.ListUserAccounts(ctx, userID)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, account := range accounts {
		imported, err := uc.syncAccount(ctx, userID, account.AccountID)
		total += imported
		if err != nil {
			logger.Warn("account sync failed, continuing",
				"event", "order_sync_account_failed",
				"module", "ad-delivery/task-service",
				"layer", "application",
				"user_id", userID,
				"account_id", account.AccountID,
				"error", err.Error(),
			)
		}
	}
	return total, nil
}

func (uc SyncOrdersUseCase) syncAccount(ctx context.Context, userID, accountID string) (int, error) {
	logger := application.ResolveLogger(uc.Logger)

	account, err := uc.Accounts.GetOwnedAccount(ctx, accountID, userID)
	if err != nil {
		return 0, err
	}
	if !account.Active {
		return 0, domainerrors.ErrAccountNotAuthorized
	}
	if strings.TrimSpace(account.ActorID) == "" {
		return 0, domainerrors.ErrMissingActorID
	}

	credential, err := uc.Codec.Decrypt(account.EncryptedAccessToken)
	if err != nil {
		return 0, domainerrors.ErrCredentialUnavailable
	}

	pageSize := uc.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	imported := 0
	page := 1
	for {
		if err := uc.waitTurn(ctx); err != nil {
			return imported, err
		}

		var result ports.OrderPage
		err := retry.Do(
			func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				var fetchErr error
				result, fetchErr = uc.Platform.ListOrders(ctx, credential, account.ActorID, page, pageSize)
				return fetchErr
			},
			retry.Attempts(maxPageFailures),
			retry.Delay(time.Second),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			logger.Error("order page listing aborted, returning partial count",
				"event", "order_sync_page_aborted",
				"module", "ad-delivery/task-service",
				"layer", "application",
				"account_id", account.AccountID,
				"page", page,
				"imported", imported,
				"error", err.Error(),
			)
			return imported, nil
		}

		if len(result.Items) == 0 {
			break
		}

		for _, order := range result.Items {
			created, err := uc.upsertRemoteOrder(ctx, userID, account.AccountID, order)
			if err != nil {
				logger.Warn("remote order upsert failed",
					"event", "order_sync_upsert_failed",
					"module", "ad-delivery/task-service",
					"layer", "application",
					"order_id", order.OrderID,
					"error", err.Error(),
				)
				continue
			}
			if created {
				imported++
			}
		}

		if len(result.Items) < pageSize {
			break
		}
		page++
	}

	if err := uc.mergeReport(ctx, userID, account, credential); err != nil {
		logger.Error("order report merge failed",
			"event", "order_sync_report_failed",
			"module", "ad-delivery/task-service",
			"layer", "application",
			"account_id", account.AccountID,
			"error", err.Error(),
		)
	}

	logger.Info("order sync completed",
		"event", "order_sync_completed",
		"module", "ad-delivery/task-service",
		"layer", "application",
		"user_id", userID,
		"account_id", account.AccountID,
		"imported", imported,
	)
	return imported, nil
}

// upsertRemoteOrder never duplicates by order id: existing rows get their
// mutable stat fields refreshed in place, unknown orders become synced tasks.
func (uc SyncOrdersUseCase) upsertRemoteOrder(
	ctx context.Context,
	userID, accountID string,
	order ports.RemoteOrder,
) (bool, error) {
	existing, found, err := uc.Tasks.GetTaskByOrderID(ctx, order.OrderID)
	if err != nil {
		return false, err
	}

	if found {
		existing.ActualCost = minorToMajor(order.CostMinor)
		existing.PlayCount = order.PlayCount
		existing.LikeCount = order.LikeCount
		existing.CommentCount = order.CommentCount
		existing.ShareCount = order.ShareCount
		existing.FollowCount = order.FollowCount
		existing.ClickCount = order.ClickCount
		existing.Status = entities.StatusFromRemote(order.Status)
		if order.VideoTitle != "" {
			existing.VideoTitle = order.VideoTitle
		}
		if order.VideoCoverURL != "" {
			existing.VideoCoverURL = order.VideoCoverURL
		}
		existing.UpdatedAt = uc.Clock.Now().UTC()
		_, err := uc.Tasks.UpdateTask(ctx, existing)
		return false, err
	}

	taskID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return false, err
	}
	task := uc.newSyncedTask(taskID, userID, accountID, order)
	if err := uc.Tasks.CreateTasks(ctx, []entities.Task{task}); err != nil {
		return false, err
	}
	return true, nil
}

func (uc SyncOrdersUseCase) newSyncedTask(taskID, userID, accountID string, order ports.RemoteOrder) entities.Task {
	now := uc.Clock.Now().UTC()
	duration := order.DurationHours
	if duration <= 0 {
		duration = entities.DefaultDurationHours
	}

	task := entities.Task{
		TaskID:           taskID,
		UserID:           userID,
		AccountID:        accountID,
		ItemID:           order.ItemID,
		Kind:             entities.TaskKindVideo,
		Targeting:        entities.TargetingSystem,
		DurationHours:    duration,
		Budget:           minorToMajor(order.BudgetMinor),
		ActualCost:       minorToMajor(order.CostMinor),
		ActualExposure:   order.PlayCount,
		PlayCount:        order.PlayCount,
		LikeCount:        order.LikeCount,
		CommentCount:     order.CommentCount,
		ShareCount:       order.ShareCount,
		FollowCount:      order.FollowCount,
		ClickCount:       order.ClickCount,
		Source:           entities.TaskSourceSynced,
		Status:           entities.StatusFromRemote(order.Status),
		OwnerNickname:    order.OwnerNickname,
		OwnerAvatar:      order.OwnerAvatar,
		VideoTitle:       order.VideoTitle,
		VideoCoverURL:    order.VideoCoverURL,
		OrderID:          order.OrderID,
		RetryCount:       0,
		MaxRetry:         0,
		ScheduledTime:    now,
		CreatedAt:        now,
		UpdatedAt:        now,
		ExpectedExposure: 0,
	}

	if created, err := time.Parse(remoteTimeLayout, order.CreateTime); err == nil {
		task.ScheduledTime = created.UTC()
		task.CreatedAt = created.UTC()
	}
	if started, err := time.Parse(remoteTimeLayout, order.StartTime); err == nil {
		executed := started.UTC()
		task.ExecutedTime = &executed
	}
	if ended, err := time.Parse(remoteTimeLayout, order.EndTime); err == nil {
		completed := ended.UTC()
		task.CompletedTime = &completed
	}
	return task
}

// mergeReport overlays the trailing-window performance report. A populated
// local metric is never regressed to zero by a report that omits it.
func (uc SyncOrdersUseCase) mergeReport(
	ctx context.Context,
	userID string,
	account ports.PayingAccount,
	credential string,
) error {
	tasks, err := uc.Tasks.ListTasksWithOrder(ctx, userID, account.AccountID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}

	byOrder := make(map[string]entities.Task, len(tasks))
	for _, task := range tasks {
		if task.OrderID != "" {
			byOrder[task.OrderID] = task
		}
	}

	if err := uc.waitTurn(ctx); err != nil {
		return err
	}

	windowDays := uc.ReportWindowDays
	if windowDays <= 0 {
		windowDays = 90
	}
	end := uc.Clock.Now().UTC()
	begin := end.AddDate(0, 0, -windowDays)

	report, err := uc.Platform.GetOrderReport(ctx, credential, account.ActorID, begin, end)
	if err != nil {
		return err
	}

	for orderID, stats := range report {
		task, ok := byOrder[orderID]
		if !ok {
			continue
		}
		if !applyReport(&task, stats) {
			continue
		}
		task.UpdatedAt = uc.Clock.Now().UTC()
		if _, err := uc.Tasks.UpdateTask(ctx, task); err != nil {
			return err
		}
	}
	return nil
}

func applyReport(task *entities.Task, stats ports.OrderReport) bool {
	updated := false
	if stats.CostMinor > 0 {
		task.ActualCost = minorToMajor(stats.CostMinor)
		updated = true
	}
	if stats.PlayCount > 0 {
		task.PlayCount = stats.PlayCount
		task.ActualExposure = stats.PlayCount
		updated = true
	}
	if stats.LikeCount > 0 {
		task.LikeCount = stats.LikeCount
		updated = true
	}
	if stats.CommentCount > 0 {
		task.CommentCount = stats.CommentCount
		updated = true
	}
	if stats.ShareCount > 0 {
		task.ShareCount = stats.ShareCount
		updated = true
	}
	if stats.FollowCount > 0 {
		task.FollowCount = stats.FollowCount
		updated = true
	}
	if stats.ClickCount > 0 {
		task.ClickCount = stats.ClickCount
		updated = true
	}
	return updated
}

func (uc SyncOrdersUseCase) waitTurn(ctx context.Context) error {
	if uc.Limiter == nil {
		return nil
	}
	return uc.Limiter.Wait(ctx)
}

func minorToMajor(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(100))
}
