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
	"adboost/internal/shared/events"

	"github.com/shopspring/decimal"
)

type TaskRequest struct {
	AccountID       string
	TargetAccountID string
	ItemID          string
	Kind            entities.TaskKind
	Targeting       entities.TargetingMode
	WantType        string
	Objective       string
	Strategy        string
	DurationHours   int
	Budget          decimal.Decimal
	Count           int
	ScheduledTime   *time.Time
	TargetConfig    string
	InvestPassword  string
}

type CreateTasksCommand struct {
	UserID   string
	Requests []TaskRequest
}

// CreateTasksUseCase is the admission gate: nothing is persisted until every
// request in the batch has passed validation and every spend ceiling.
type CreateTasksUseCase struct {
	Tasks            ports.TaskRepository
	Accounts         ports.AccountDirectory
	SecondFactor     ports.SecondFactorVerifier
	Events           ports.EventPublisher
	Clock            ports.Clock
	IDGen            ports.IDGenerator
	MaxSingleAmount  decimal.Decimal
	SystemDailyLimit decimal.Decimal
	DefaultMaxRetry  int
	Logger           *slog.Logger
}

func (uc CreateTasksUseCase) Execute(ctx context.Context, cmd CreateTasksCommand) ([]entities.Task, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" || len(cmd.Requests) == 0 {
		return nil, domainerrors.ErrInvalidTaskInput
	}

	now := uc.Clock.Now().UTC()
	admitted := make([]entities.Task, 0, len(cmd.Requests))

	// Budgets admitted earlier in this batch count against later requests,
	// otherwise a batch could overshoot a ceiling its requests individually
	// respect.
	pendingByAccount := make(map[string]decimal.Decimal)
	pendingByUser := decimal.Zero

	for _, req := range cmd.Requests {
		ok, err := uc.SecondFactor.VerifyInvestPassword(ctx, userID, req.InvestPassword)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domainerrors.ErrInvestPasswordMismatch
		}

		account, err := uc.Accounts.GetOwnedAccount(ctx, strings.TrimSpace(req.AccountID), userID)
		if err != nil {
			return nil, err
		}
		if !account.Active {
			return nil, domainerrors.ErrAccountNotAuthorized
		}

		if strings.TrimSpace(req.ItemID) == "" || !req.Budget.IsPositive() {
			return nil, domainerrors.ErrInvalidTaskInput
		}
		count := req.Count
		if count <= 0 {
			count = 1
		}

		if req.Budget.GreaterThan(uc.MaxSingleAmount) {
			return nil, domainerrors.ErrBudgetExceedsSingleLimit
		}

		total := req.Budget.Mul(decimal.NewFromInt(int64(count)))

		accountUsed, err := uc.Tasks.SumAccountBudgetForDay(ctx, account.AccountID, now)
		if err != nil {
			return nil, err
		}
		accountUsed = accountUsed.Add(pendingByAccount[account.AccountID])
		accountLimit := uc.SystemDailyLimit
		if account.DailyLimit != nil {
			accountLimit = *account.DailyLimit
		}
		if accountUsed.Add(total).GreaterThan(accountLimit) {
			return nil, domainerrors.NewAccountDailyLimitError(accountUsed, accountLimit)
		}

		userUsed, err := uc.Tasks.SumUserBudgetForDay(ctx, userID, now)
		if err != nil {
			return nil, err
		}
		userUsed = userUsed.Add(pendingByUser)
		if userUsed.Add(total).GreaterThan(uc.SystemDailyLimit) {
			return nil, domainerrors.NewUserDailyLimitError(userUsed, uc.SystemDailyLimit)
		}

		pendingByAccount[account.AccountID] = pendingByAccount[account.AccountID].Add(total)
		pendingByUser = pendingByUser.Add(total)

		for i := 0; i < count; i++ {
			taskID, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return nil, err
			}
			admitted = append(admitted, uc.buildTask(taskID, userID, account, req, now))
		}
	}

	if err := uc.Tasks.CreateTasks(ctx, admitted); err != nil {
		return nil, err
	}

	for _, task := range admitted {
		uc.publishAdmitted(ctx, task)
	}

	logger.Info("tasks admitted",
		"event", "task_batch_admitted",
		"module", "ad-delivery/task-service",
		"layer", "application",
		"user_id", userID,
		"task_count", len(admitted),
	)
	return admitted, nil
}

func (uc CreateTasksUseCase) buildTask(
	taskID string,
	userID string,
	account ports.PayingAccount,
	req TaskRequest,
	now time.Time,
) entities.Task {
	kind := req.Kind
	if kind == 0 {
		kind = entities.TaskKindVideo
	}
	targeting := req.Targeting
	if targeting == 0 {
		targeting = entities.TargetingSystem
	}
	want := strings.TrimSpace(req.WantType)
	if want == "" {
		want = entities.DefaultWantType
	}
	objective := strings.TrimSpace(req.Objective)
	if objective == "" {
		objective = entities.DefaultObjective
	}
	strategy := strings.TrimSpace(req.Strategy)
	if strategy == "" {
		strategy = entities.DefaultStrategy
	}
	duration := req.DurationHours
	if duration <= 0 {
		duration = entities.DefaultDurationHours
	}
	scheduled := now
	if req.ScheduledTime != nil {
		scheduled = req.ScheduledTime.UTC()
	}

	return entities.Task{
		TaskID:          taskID,
		UserID:          userID,
		AccountID:       account.AccountID,
		TargetAccountID: strings.TrimSpace(req.TargetAccountID),
		ItemID:          strings.TrimSpace(req.ItemID),
		Kind:            kind,
		Targeting:       targeting,
		WantType:        want,
		Objective:       objective,
		Strategy:        strategy,
		DurationHours:   duration,
		TargetConfig:    strings.TrimSpace(req.TargetConfig),
		Budget:          req.Budget,
		ActualCost:      decimal.Zero,
		Source:          entities.TaskSourceLocal,
		Status:          entities.TaskStatusWait,
		OwnerNickname:   account.Nickname,
		RetryCount:      0,
		MaxRetry:        uc.DefaultMaxRetry,
		ScheduledTime:   scheduled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (uc CreateTasksUseCase) publishAdmitted(ctx context.Context, task entities.Task) {
	if uc.Events == nil {
		return
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return
	}
	envelope, err := events.New(eventID, events.TypeTaskAdmitted, task.UserID, task.CreatedAt, map[string]any{
		"task_id":    task.TaskID,
		"account_id": task.AccountID,
		"item_id":    task.ItemID,
		"budget":     task.Budget.String(),
	})
	if err != nil {
		return
	}
	_ = uc.Events.Publish(ctx, events.TypeTaskAdmitted, envelope)
}
