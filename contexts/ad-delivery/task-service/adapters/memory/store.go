package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"adboost/contexts/ad-delivery/task-service/domain/entities"
	domainerrors "adboost/contexts/ad-delivery/task-service/domain/errors"
	"adboost/contexts/ad-delivery/task-service/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the in-memory task repository used by tests and the in-memory
// module constructor. It mirrors the postgres adapter's semantics including
// optimistic versioning.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]entities.Task
}

func NewStore(seed []entities.Task) *Store {
	tasks := make(map[string]entities.Task, len(seed))
	for _, item := range seed {
		if item.Version == 0 {
			item.Version = 1
		}
		tasks[item.TaskID] = item
	}
	return &Store{tasks: tasks}
}

func (s *Store) CreateTasks(_ context.Context, batch []entities.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range batch {
		if _, exists := s.tasks[item.TaskID]; exists {
			return domainerrors.ErrInvalidTaskInput
		}
	}
	for _, item := range batch {
		item.Version = 1
		s.tasks[item.TaskID] = item
	}
	return nil
}

func (s *Store) UpdateTask(_ context.Context, task entities.Task) (entities.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.tasks[task.TaskID]
	if !exists {
		return entities.Task{}, domainerrors.ErrTaskNotFound
	}
	if current.Version != task.Version {
		return entities.Task{}, domainerrors.ErrConcurrentUpdate
	}
	task.Version = current.Version + 1
	s.tasks[task.TaskID] = task
	return task, nil
}

func (s *Store) GetTask(_ context.Context, taskID string) (entities.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.tasks[strings.TrimSpace(taskID)]
	if !exists {
		return entities.Task{}, domainerrors.ErrTaskNotFound
	}
	return item, nil
}

func (s *Store) GetOwnedTask(_ context.Context, taskID, userID string) (entities.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.tasks[strings.TrimSpace(taskID)]
	if !exists || item.UserID != strings.TrimSpace(userID) {
		return entities.Task{}, domainerrors.ErrTaskNotFound
	}
	return item, nil
}

func (s *Store) GetTaskByOrderID(_ context.Context, orderID string) (entities.Task, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.tasks {
		if item.OrderID != "" && item.OrderID == strings.TrimSpace(orderID) {
			return item, true, nil
		}
	}
	return entities.Task{}, false, nil
}

func (s *Store) ListTasks(_ context.Context, filter ports.TaskFilter) ([]entities.Task, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]entities.Task, 0, len(s.tasks))
	for _, item := range s.tasks {
		if filter.UserID != "" && item.UserID != filter.UserID {
			continue
		}
		if filter.AccountID != "" && item.AccountID != filter.AccountID {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		matched = append(matched, item)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return []entities.Task{}, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *Store) ListDueTasks(_ context.Context, now time.Time, limit int) ([]entities.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	due := make([]entities.Task, 0, limit)
	for _, item := range s.tasks {
		if item.Status != entities.TaskStatusWait {
			continue
		}
		if item.ScheduledTime.After(now) {
			continue
		}
		due = append(due, item)
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].ScheduledTime.Before(due[j].ScheduledTime)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *Store) ListTasksWithOrder(_ context.Context, userID, accountID string) ([]entities.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]entities.Task, 0)
	for _, item := range s.tasks {
		if item.UserID == userID && item.AccountID == accountID && item.OrderID != "" {
			matched = append(matched, item)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].TaskID < matched[j].TaskID
	})
	return matched, nil
}

func (s *Store) SumAccountBudgetForDay(_ context.Context, accountID string, day time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := decimal.Zero
	for _, item := range s.tasks {
		if item.AccountID == accountID && countsAgainstLimit(item, day) {
			sum = sum.Add(item.Budget)
		}
	}
	return sum, nil
}

func (s *Store) SumUserBudgetForDay(_ context.Context, userID string, day time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := decimal.Zero
	for _, item := range s.tasks {
		if item.UserID == userID && countsAgainstLimit(item, day) {
			sum = sum.Add(item.Budget)
		}
	}
	return sum, nil
}

// Committed-or-spent budgets count against daily ceilings; cancelled and
// terminally failed tasks release theirs.
func countsAgainstLimit(task entities.Task, day time.Time) bool {
	switch task.Status {
	case entities.TaskStatusWait, entities.TaskStatusRunning, entities.TaskStatusSuccess:
	default:
		return false
	}
	y1, m1, d1 := task.CreatedAt.UTC().Date()
	y2, m2, d2 := day.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// SystemClock and UUIDGenerator satisfy the clock and id ports for in-memory
// wiring.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
