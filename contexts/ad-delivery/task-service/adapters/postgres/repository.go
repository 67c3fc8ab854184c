package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"adboost/contexts/ad-delivery/task-service/domain/entities"
	domainerrors "adboost/contexts/ad-delivery/task-service/domain/errors"
	"adboost/contexts/ad-delivery/task-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateTasks(ctx context.Context, batch []entities.Task) error {
	if len(batch) == 0 {
		return nil
	}
	rows := make([]taskModel, 0, len(batch))
	for _, item := range batch {
		row := taskModelFromEntity(item)
		row.Version = 1
		rows = append(rows, row)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidTaskInput
		}
		return err
	}
	return nil
}

func (r *Repository) UpdateTask(ctx context.Context, task entities.Task) (entities.Task, error) {
	row := taskModelFromEntity(task)
	result := r.db.WithContext(ctx).
		Model(&taskModel{}).
		Where("task_id = ? AND version = ?", row.TaskID, row.Version).
		Updates(taskUpdatesFromModel(row))
	if result.Error != nil {
		return entities.Task{}, result.Error
	}
	if result.RowsAffected == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).
			Model(&taskModel{}).
			Where("task_id = ?", row.TaskID).
			Count(&exists).Error; err != nil {
			return entities.Task{}, err
		}
		if exists == 0 {
			return entities.Task{}, domainerrors.ErrTaskNotFound
		}
		return entities.Task{}, domainerrors.ErrConcurrentUpdate
	}
	task.Version = row.Version + 1
	return task, nil
}

func (r *Repository) GetTask(ctx context.Context, taskID string) (entities.Task, error) {
	var row taskModel
	err := r.db.WithContext(ctx).
		Where("task_id = ?", strings.TrimSpace(taskID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Task{}, domainerrors.ErrTaskNotFound
		}
		return entities.Task{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetOwnedTask(ctx context.Context, taskID, userID string) (entities.Task, error) {
	var row taskModel
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND user_id = ?", strings.TrimSpace(taskID), strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Task{}, domainerrors.ErrTaskNotFound
		}
		return entities.Task{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetTaskByOrderID(ctx context.Context, orderID string) (entities.Task, bool, error) {
	var row taskModel
	err := r.db.WithContext(ctx).
		Where("order_id = ?", strings.TrimSpace(orderID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Task{}, false, nil
		}
		return entities.Task{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListTasks(ctx context.Context, filter ports.TaskFilter) ([]entities.Task, int64, error) {
	tx := r.db.WithContext(ctx).Model(&taskModel{}).
		Where("user_id = ?", strings.TrimSpace(filter.UserID))
	if strings.TrimSpace(filter.AccountID) != "" {
		tx = tx.Where("account_id = ?", strings.TrimSpace(filter.AccountID))
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	var rows []taskModel
	err := tx.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).
		Error
	if err != nil {
		return nil, 0, err
	}

	items := make([]entities.Task, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, total, nil
}

func (r *Repository) ListDueTasks(ctx context.Context, now time.Time, limit int) ([]entities.Task, error) {
	var rows []taskModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_time <= ?", string(entities.TaskStatusWait), now.UTC()).
		Order("scheduled_time ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	items := make([]entities.Task, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListTasksWithOrder(ctx context.Context, userID, accountID string) ([]entities.Task, error) {
	var rows []taskModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND account_id = ? AND order_id <> ''", strings.TrimSpace(userID), strings.TrimSpace(accountID)).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	items := make([]entities.Task, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

var committedStatuses = []string{
	string(entities.TaskStatusWait),
	string(entities.TaskStatusRunning),
	string(entities.TaskStatusSuccess),
}

func (r *Repository) SumAccountBudgetForDay(ctx context.Context, accountID string, day time.Time) (decimal.Decimal, error) {
	return r.sumBudget(ctx, "account_id = ?", strings.TrimSpace(accountID), day)
}

func (r *Repository) SumUserBudgetForDay(ctx context.Context, userID string, day time.Time) (decimal.Decimal, error) {
	return r.sumBudget(ctx, "user_id = ?", strings.TrimSpace(userID), day)
}

func (r *Repository) sumBudget(ctx context.Context, ownerClause, ownerID string, day time.Time) (decimal.Decimal, error) {
	dayStart := time.Date(day.UTC().Year(), day.UTC().Month(), day.UTC().Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var sum decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&taskModel{}).
		Select("COALESCE(SUM(budget), 0)").
		Where(ownerClause, ownerID).
		Where("status IN ?", committedStatuses).
		Where("created_at >= ? AND created_at < ?", dayStart, dayEnd).
		Scan(&sum).
		Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type taskModel struct {
	TaskID          string `gorm:"column:task_id;primaryKey"`
	UserID          string `gorm:"column:user_id;index"`
	AccountID       string `gorm:"column:account_id;index"`
	TargetAccountID string `gorm:"column:target_account_id"`
	ItemID          string `gorm:"column:item_id"`

	Kind          int            `gorm:"column:task_kind"`
	Targeting     int            `gorm:"column:targeting_mode"`
	WantType      string         `gorm:"column:want_type"`
	Objective     string         `gorm:"column:objective"`
	Strategy      string         `gorm:"column:strategy"`
	DurationHours int            `gorm:"column:duration_hours"`
	TargetConfig  datatypes.JSON `gorm:"column:target_config"`

	Budget           decimal.Decimal `gorm:"column:budget;type:numeric(12,2)"`
	ActualCost       decimal.Decimal `gorm:"column:actual_cost;type:numeric(12,2)"`
	ExpectedExposure int64           `gorm:"column:expected_exposure"`
	ActualExposure   int64           `gorm:"column:actual_exposure"`
	PlayCount        int64           `gorm:"column:play_count"`
	LikeCount        int64           `gorm:"column:like_count"`
	CommentCount     int64           `gorm:"column:comment_count"`
	ShareCount       int64           `gorm:"column:share_count"`
	FollowCount      int64           `gorm:"column:follow_count"`
	ClickCount       int64           `gorm:"column:click_count"`

	Source string `gorm:"column:source"`
	Status string `gorm:"column:status;index"`

	OwnerNickname string `gorm:"column:owner_nickname"`
	OwnerAvatar   string `gorm:"column:owner_avatar"`
	VideoTitle    string `gorm:"column:video_title"`
	VideoCoverURL string `gorm:"column:video_cover_url"`

	OrderID    string `gorm:"column:order_id;index"`
	RetryCount int    `gorm:"column:retry_count"`
	MaxRetry   int    `gorm:"column:max_retry"`
	ErrorMsg   string `gorm:"column:error_msg"`

	ScheduledTime time.Time  `gorm:"column:scheduled_time;index"`
	ExecutedTime  *time.Time `gorm:"column:executed_time"`
	CompletedTime *time.Time `gorm:"column:completed_time"`

	Version   int64     `gorm:"column:version"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (taskModel) TableName() string {
	return "boost_tasks"
}

func taskModelFromEntity(item entities.Task) taskModel {
	var config datatypes.JSON
	if strings.TrimSpace(item.TargetConfig) != "" {
		config = datatypes.JSON(item.TargetConfig)
	}
	return taskModel{
		TaskID:           strings.TrimSpace(item.TaskID),
		UserID:           strings.TrimSpace(item.UserID),
		AccountID:        strings.TrimSpace(item.AccountID),
		TargetAccountID:  strings.TrimSpace(item.TargetAccountID),
		ItemID:           strings.TrimSpace(item.ItemID),
		Kind:             int(item.Kind),
		Targeting:        int(item.Targeting),
		WantType:         item.WantType,
		Objective:        item.Objective,
		Strategy:         item.Strategy,
		DurationHours:    item.DurationHours,
		TargetConfig:     config,
		Budget:           item.Budget,
		ActualCost:       item.ActualCost,
		ExpectedExposure: item.ExpectedExposure,
		ActualExposure:   item.ActualExposure,
		PlayCount:        item.PlayCount,
		LikeCount:        item.LikeCount,
		CommentCount:     item.CommentCount,
		ShareCount:       item.ShareCount,
		FollowCount:      item.FollowCount,
		ClickCount:       item.ClickCount,
		Source:           string(item.Source),
		Status:           string(item.Status),
		OwnerNickname:    item.OwnerNickname,
		OwnerAvatar:      item.OwnerAvatar,
		VideoTitle:       item.VideoTitle,
		VideoCoverURL:    item.VideoCoverURL,
		OrderID:          strings.TrimSpace(item.OrderID),
		RetryCount:       item.RetryCount,
		MaxRetry:         item.MaxRetry,
		ErrorMsg:         item.ErrorMsg,
		ScheduledTime:    item.ScheduledTime.UTC(),
		ExecutedTime:     normalizeOptionalTime(item.ExecutedTime),
		CompletedTime:    normalizeOptionalTime(item.CompletedTime),
		Version:          item.Version,
		CreatedAt:        item.CreatedAt.UTC(),
		UpdatedAt:        item.UpdatedAt.UTC(),
	}
}

func taskUpdatesFromModel(row taskModel) map[string]any {
	return map[string]any{
		"status":            row.Status,
		"order_id":          row.OrderID,
		"actual_cost":       row.ActualCost,
		"expected_exposure": row.ExpectedExposure,
		"actual_exposure":   row.ActualExposure,
		"play_count":        row.PlayCount,
		"like_count":        row.LikeCount,
		"comment_count":     row.CommentCount,
		"share_count":       row.ShareCount,
		"follow_count":      row.FollowCount,
		"click_count":       row.ClickCount,
		"owner_nickname":    row.OwnerNickname,
		"owner_avatar":      row.OwnerAvatar,
		"video_title":       row.VideoTitle,
		"video_cover_url":   row.VideoCoverURL,
		"retry_count":       row.RetryCount,
		"error_msg":         row.ErrorMsg,
		"executed_time":     row.ExecutedTime,
		"completed_time":    row.CompletedTime,
		"version":           row.Version + 1,
		"updated_at":        row.UpdatedAt,
	}
}

func (m taskModel) toEntity() entities.Task {
	var executed, completed *time.Time
	if m.ExecutedTime != nil {
		value := m.ExecutedTime.UTC()
		executed = &value
	}
	if m.CompletedTime != nil {
		value := m.CompletedTime.UTC()
		completed = &value
	}
	return entities.Task{
		TaskID:           m.TaskID,
		UserID:           m.UserID,
		AccountID:        m.AccountID,
		TargetAccountID:  m.TargetAccountID,
		ItemID:           m.ItemID,
		Kind:             entities.TaskKind(m.Kind),
		Targeting:        entities.TargetingMode(m.Targeting),
		WantType:         m.WantType,
		Objective:        m.Objective,
		Strategy:         m.Strategy,
		DurationHours:    m.DurationHours,
		TargetConfig:     string(m.TargetConfig),
		Budget:           m.Budget,
		ActualCost:       m.ActualCost,
		ExpectedExposure: m.ExpectedExposure,
		ActualExposure:   m.ActualExposure,
		PlayCount:        m.PlayCount,
		LikeCount:        m.LikeCount,
		CommentCount:     m.CommentCount,
		ShareCount:       m.ShareCount,
		FollowCount:      m.FollowCount,
		ClickCount:       m.ClickCount,
		Source:           entities.TaskSource(m.Source),
		Status:           entities.TaskStatus(m.Status),
		OwnerNickname:    m.OwnerNickname,
		OwnerAvatar:      m.OwnerAvatar,
		VideoTitle:       m.VideoTitle,
		VideoCoverURL:    m.VideoCoverURL,
		OrderID:          m.OrderID,
		RetryCount:       m.RetryCount,
		MaxRetry:         m.MaxRetry,
		ErrorMsg:         m.ErrorMsg,
		ScheduledTime:    m.ScheduledTime.UTC(),
		ExecutedTime:     executed,
		CompletedTime:    completed,
		Version:          m.Version,
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	normalized := value.UTC()
	return &normalized
}
