package queries

import (
	"context"
	"log/slog"
	"strings"

	"adboost/contexts/ad-delivery/task-service/domain/entities"
	domainerrors "adboost/contexts/ad-delivery/task-service/domain/errors"
	"adboost/contexts/ad-delivery/task-service/ports"
)

type ListTasksQuery struct {
	UserID    string
	AccountID string
	Status    string
	Page      int
	PageSize  int
}

type ListTasksResult struct {
	Tasks      []entities.Task
	TotalCount int64
	Page       int
	PageSize   int
}

type ListTasksUseCase struct {
	Tasks  ports.TaskRepository
	Logger *slog.Logger
}

func (uc ListTasksUseCase) Execute(ctx context.Context, query ListTasksQuery) (ListTasksResult, error) {
	userID := strings.TrimSpace(query.UserID)
	if userID == "" {
		return ListTasksResult{}, domainerrors.ErrInvalidTaskInput
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	tasks, total, err := uc.Tasks.ListTasks(ctx, ports.TaskFilter{
		UserID:    userID,
		AccountID: strings.TrimSpace(query.AccountID),
		Status:    entities.TaskStatus(strings.TrimSpace(query.Status)),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		return ListTasksResult{}, err
	}
	return ListTasksResult{
		Tasks:      tasks,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

type GetTaskUseCase struct {
	Tasks  ports.TaskRepository
	Logger *slog.Logger
}

func (uc GetTaskUseCase) Execute(ctx context.Context, userID, taskID string) (entities.Task, error) {
	return uc.Tasks.GetOwnedTask(ctx, strings.TrimSpace(taskID), strings.TrimSpace(userID))
}
