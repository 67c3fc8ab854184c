package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"adboost/contexts/ad-delivery/task-service/application/commands"
	"adboost/contexts/ad-delivery/task-service/application/queries"
	"adboost/contexts/ad-delivery/task-service/domain/entities"
	domainerrors "adboost/contexts/ad-delivery/task-service/domain/errors"
	httptransport "adboost/contexts/ad-delivery/task-service/transport/http"

	"github.com/shopspring/decimal"
)

type Handler struct {
	CreateTasks commands.CreateTasksUseCase
	CancelTask  commands.CancelTaskUseCase
	SyncOrders  commands.SyncOrdersUseCase
	ListTasks   queries.ListTasksUseCase
	GetTask     queries.GetTaskUseCase
	Logger      *slog.Logger
}

func (h Handler) CreateTasksHandler(
	ctx context.Context,
	userID string,
	requests []httptransport.CreateTaskRequest,
) (httptransport.CreateTasksResponse, error) {
	mapped := make([]commands.TaskRequest, 0, len(requests))
	for _, req := range requests {
		item, err := mapTaskRequest(req)
		if err != nil {
			return httptransport.CreateTasksResponse{}, err
		}
		mapped = append(mapped, item)
	}

	tasks, err := h.CreateTasks.Execute(ctx, commands.CreateTasksCommand{
		UserID:   userID,
		Requests: mapped,
	})
	if err != nil {
		return httptransport.CreateTasksResponse{}, err
	}
	return httptransport.CreateTasksResponse{Tasks: mapTasks(tasks)}, nil
}

func (h Handler) CancelTaskHandler(ctx context.Context, userID, taskID string) error {
	return h.CancelTask.Execute(ctx, commands.CancelTaskCommand{
		UserID: userID,
		TaskID: taskID,
	})
}

func (h Handler) ListTasksHandler(
	ctx context.Context,
	userID, accountID, status string,
	page, pageSize int,
) (httptransport.ListTasksResponse, error) {
	result, err := h.ListTasks.Execute(ctx, queries.ListTasksQuery{
		UserID:    userID,
		AccountID: accountID,
		Status:    status,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		return httptransport.ListTasksResponse{}, err
	}
	return httptransport.ListTasksResponse{
		Tasks:      mapTasks(result.Tasks),
		TotalCount: result.TotalCount,
		Page:       result.Page,
		PageSize:   result.PageSize,
	}, nil
}

func (h Handler) GetTaskHandler(ctx context.Context, userID, taskID string) (httptransport.TaskView, error) {
	task, err := h.GetTask.Execute(ctx, userID, taskID)
	if err != nil {
		return httptransport.TaskView{}, err
	}
	return mapTask(task), nil
}

func (h Handler) SyncOrdersHandler(ctx context.Context, userID, accountID string) (httptransport.SyncOrdersResponse, error) {
	imported, err := h.SyncOrders.Execute(ctx, userID, accountID)
	if err != nil {
		return httptransport.SyncOrdersResponse{}, err
	}
	return httptransport.SyncOrdersResponse{ImportedCount: imported}, nil
}

func (h Handler) SyncAllOrdersHandler(ctx context.Context, userID string) (httptransport.SyncOrdersResponse, error) {
	imported, err := h.SyncOrders.ExecuteAll(ctx, userID)
	if err != nil {
		return httptransport.SyncOrdersResponse{}, err
	}
	return httptransport.SyncOrdersResponse{ImportedCount: imported}, nil
}

func mapTaskRequest(req httptransport.CreateTaskRequest) (commands.TaskRequest, error) {
	budget, err := decimal.NewFromString(strings.TrimSpace(req.Budget))
	if err != nil {
		return commands.TaskRequest{}, domainerrors.ErrInvalidTaskInput
	}

	var scheduled *time.Time
	if strings.TrimSpace(req.ScheduledTime) != "" {
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(req.ScheduledTime))
		if err != nil {
			return commands.TaskRequest{}, domainerrors.ErrInvalidTaskInput
		}
		scheduled = &parsed
	}

	return commands.TaskRequest{
		AccountID:       req.AccountID,
		TargetAccountID: req.TargetAccountID,
		ItemID:          req.ItemID,
		Kind:            entities.TaskKind(req.TaskKind),
		Targeting:       entities.TargetingMode(req.TargetingMode),
		WantType:        req.WantType,
		Objective:       req.Objective,
		Strategy:        req.Strategy,
		DurationHours:   req.DurationHours,
		Budget:          budget,
		Count:           req.Count,
		ScheduledTime:   scheduled,
		TargetConfig:    string(req.TargetConfig),
		InvestPassword:  req.InvestPassword,
	}, nil
}

func mapTasks(tasks []entities.Task) []httptransport.TaskView {
	views := make([]httptransport.TaskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, mapTask(task))
	}
	return views
}

func mapTask(task entities.Task) httptransport.TaskView {
	view := httptransport.TaskView{
		TaskID:           task.TaskID,
		UserID:           task.UserID,
		AccountID:        task.AccountID,
		TargetAccountID:  task.TargetAccountID,
		ItemID:           task.ItemID,
		TaskKind:         int(task.Kind),
		TargetingMode:    int(task.Targeting),
		WantType:         task.WantType,
		Objective:        task.Objective,
		Strategy:         task.Strategy,
		DurationHours:    task.DurationHours,
		Budget:           task.Budget.StringFixed(2),
		ActualCost:       task.ActualCost.StringFixed(2),
		ExpectedExposure: task.ExpectedExposure,
		ActualExposure:   task.ActualExposure,
		PlayCount:        task.PlayCount,
		LikeCount:        task.LikeCount,
		CommentCount:     task.CommentCount,
		ShareCount:       task.ShareCount,
		FollowCount:      task.FollowCount,
		ClickCount:       task.ClickCount,
		Source:           string(task.Source),
		Status:           string(task.Status),
		OwnerNickname:    task.OwnerNickname,
		OwnerAvatar:      task.OwnerAvatar,
		VideoTitle:       task.VideoTitle,
		VideoCoverURL:    task.VideoCoverURL,
		OrderID:          task.OrderID,
		RetryCount:       task.RetryCount,
		MaxRetry:         task.MaxRetry,
		ErrorMsg:         task.ErrorMsg,
		ScheduledTime:    task.ScheduledTime.UTC().Format(time.RFC3339),
		CreatedAt:        task.CreatedAt.UTC().Format(time.RFC3339),
	}
	if task.ExecutedTime != nil {
		view.ExecutedTime = task.ExecutedTime.UTC().Format(time.RFC3339)
	}
	if task.CompletedTime != nil {
		view.CompletedTime = task.CompletedTime.UTC().Format(time.RFC3339)
	}
	return view
}
