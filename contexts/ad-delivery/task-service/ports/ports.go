package ports

import (
	"context"
	"time"

	"adboost/contexts/ad-delivery/task-service/domain/entities"
	"adboost/internal/shared/events"

	"github.com/shopspring/decimal"
)

type TaskFilter struct {
	UserID    string
	AccountID string
	Status    entities.TaskStatus
	Page      int
	PageSize  int
}

type TaskRepository interface {
	// CreateTasks persists the batch as one atomic unit: either every task is
	// written or none is.
	CreateTasks(ctx context.Context, tasks []entities.Task) error
	// UpdateTask applies an optimistic write keyed on the task's Version. It
	// returns the stored row with the bumped version so callers can chain
	// updates, or ErrConcurrentUpdate when the row moved underneath them.
	UpdateTask(ctx context.Context, task entities.Task) (entities.Task, error)
	GetTask(ctx context.Context, taskID string) (entities.Task, error)
	GetOwnedTask(ctx context.Context, taskID, userID string) (entities.Task, error)
	GetTaskByOrderID(ctx context.Context, orderID string) (entities.Task, bool, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]entities.Task, int64, error)
	// ListDueTasks returns WAIT tasks with scheduledTime <= now ordered by
	// scheduledTime ascending, capped at limit.
	ListDueTasks(ctx context.Context, now time.Time, limit int) ([]entities.Task, error)
	ListTasksWithOrder(ctx context.Context, userID, accountID string) ([]entities.Task, error)
	SumAccountBudgetForDay(ctx context.Context, accountID string, day time.Time) (decimal.Decimal, error)
	SumUserBudgetForDay(ctx context.Context, userID string, day time.Time) (decimal.Decimal, error)
}

// PayingAccount is the read view of a linked platform account that admission,
// execution and reconciliation need. The account service owns the full row.
type PayingAccount struct {
	AccountID            string
	UserID               string
	ActorID              string
	Nickname             string
	Active               bool
	DailyLimit           *decimal.Decimal
	EncryptedAccessToken string
}

type AccountDirectory interface {
	GetAccount(ctx context.Context, accountID string) (PayingAccount, error)
	GetOwnedAccount(ctx context.Context, accountID, userID string) (PayingAccount, error)
	ListUserAccounts(ctx context.Context, userID string) ([]PayingAccount, error)
}

type CredentialCodec interface {
	Decrypt(stored string) (string, error)
}

type SecondFactorVerifier interface {
	VerifyInvestPassword(ctx context.Context, userID, investPassword string) (bool, error)
}

// SyncGuard serializes order syncs per user. TryAcquire must be atomic.
type SyncGuard interface {
	TryAcquire(key string) bool
	Release(key string)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

// Ad platform client contract. Monetary amounts cross this boundary in minor
// currency units; conversion to major units happens on the caller's side.

type CreateOrderInput struct {
	ItemID        string
	BudgetMinor   int64
	DurationHours int
	TargetingMode entities.TargetingMode
	TargetConfig  string
}

type CreateOrderResult struct {
	OrderID          string
	ExpectedExposure int64
}

type OrderStatusResult struct {
	OrderID         string
	Status          string
	ActualCostMinor int64
	ActualExposure  int64
}

type RemoteOrder struct {
	OrderID       string
	ItemID        string
	Status        string
	BudgetMinor   int64
	CostMinor     int64
	DurationHours int
	PlayCount     int64
	LikeCount     int64
	CommentCount  int64
	ShareCount    int64
	FollowCount   int64
	ClickCount    int64
	OwnerNickname string
	OwnerAvatar   string
	VideoTitle    string
	VideoCoverURL string
	CreateTime    string
	StartTime     string
	EndTime       string
}

type OrderPage struct {
	Items      []RemoteOrder
	TotalCount int64
}

type OrderReport struct {
	CostMinor    int64
	PlayCount    int64
	LikeCount    int64
	CommentCount int64
	ShareCount   int64
	FollowCount  int64
	ClickCount   int64
}

type AdPlatformClient interface {
	CreateOrder(ctx context.Context, credential string, in CreateOrderInput) (CreateOrderResult, error)
	QueryOrderStatus(ctx context.Context, credential, orderID string) (OrderStatusResult, error)
	CancelOrder(ctx context.Context, credential, orderID string) (bool, error)
	ListOrders(ctx context.Context, credential, actorID string, page, pageSize int) (OrderPage, error)
	GetOrderReport(ctx context.Context, credential, actorID string, begin, end time.Time) (map[string]OrderReport, error)
}
