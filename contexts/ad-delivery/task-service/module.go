package taskservice

import (
	"log/slog"

	httpadapter "adboost/contexts/ad-delivery/task-service/adapters/http"
	"adboost/contexts/ad-delivery/task-service/adapters/memory"
	"adboost/contexts/ad-delivery/task-service/application/commands"
	"adboost/contexts/ad-delivery/task-service/application/queries"
	"adboost/contexts/ad-delivery/task-service/application/workers"
	"adboost/contexts/ad-delivery/task-service/domain/entities"
	"adboost/contexts/ad-delivery/task-service/ports"
	"adboost/internal/platform/syncguard"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

type Module struct {
	Handler  httpadapter.Handler
	Executor workers.Executor
	Store    *memory.Store
}

type Dependencies struct {
	Tasks        ports.TaskRepository
	Accounts     ports.AccountDirectory
	SecondFactor ports.SecondFactorVerifier
	Codec        ports.CredentialCodec
	Platform     ports.AdPlatformClient
	Guard        ports.SyncGuard
	Events       ports.EventPublisher
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator

	MaxSingleAmount  decimal.Decimal
	SystemDailyLimit decimal.Decimal
	DefaultMaxRetry  int

	ExecutorBatchSize int
	SyncWorkers       int64
	SyncPageSize      int
	ReportWindowDays  int
	RemoteCallsPerSec float64

	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	slots := deps.SyncWorkers
	if slots <= 0 {
		slots = 2
	}
	limit := rate.Inf
	if deps.RemoteCallsPerSec > 0 {
		limit = rate.Limit(deps.RemoteCallsPerSec)
	}

	createTasks := commands.CreateTasksUseCase{
		Tasks:            deps.Tasks,
		Accounts:         deps.Accounts,
		SecondFactor:     deps.SecondFactor,
		Events:           deps.Events,
		Clock:            deps.Clock,
		IDGen:            deps.IDGenerator,
		MaxSingleAmount:  deps.MaxSingleAmount,
		SystemDailyLimit: deps.SystemDailyLimit,
		DefaultMaxRetry:  deps.DefaultMaxRetry,
		Logger:           deps.Logger,
	}
	cancelTask := commands.CancelTaskUseCase{
		Tasks:  deps.Tasks,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	syncOrders := commands.SyncOrdersUseCase{
		Tasks:            deps.Tasks,
		Accounts:         deps.Accounts,
		Codec:            deps.Codec,
		Platform:         deps.Platform,
		Guard:            deps.Guard,
		Slots:            semaphore.NewWeighted(slots),
		Limiter:          rate.NewLimiter(limit, 1),
		Clock:            deps.Clock,
		IDGen:            deps.IDGenerator,
		PageSize:         deps.SyncPageSize,
		ReportWindowDays: deps.ReportWindowDays,
		Logger:           deps.Logger,
	}

	listTasks := queries.ListTasksUseCase{
		Tasks:  deps.Tasks,
		Logger: deps.Logger,
	}
	getTask := queries.GetTaskUseCase{
		Tasks:  deps.Tasks,
		Logger: deps.Logger,
	}

	executor := workers.Executor{
		Tasks:     deps.Tasks,
		Accounts:  deps.Accounts,
		Codec:     deps.Codec,
		Platform:  deps.Platform,
		Events:    deps.Events,
		Clock:     deps.Clock,
		IDGen:     deps.IDGenerator,
		BatchSize: deps.ExecutorBatchSize,
		Logger:    deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			CreateTasks: createTasks,
			CancelTask:  cancelTask,
			SyncOrders:  syncOrders,
			ListTasks:   listTasks,
			GetTask:     getTask,
			Logger:      deps.Logger,
		},
		Executor: executor,
	}
}

// NewInMemoryModule wires the module against the in-memory task store for
// tests; collaborator ports (accounts, platform, codec, second factor) are
// supplied by the caller.
func NewInMemoryModule(
	seed []entities.Task,
	accounts ports.AccountDirectory,
	secondFactor ports.SecondFactorVerifier,
	codec ports.CredentialCodec,
	platform ports.AdPlatformClient,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Tasks:            store,
		Accounts:         accounts,
		SecondFactor:     secondFactor,
		Codec:            codec,
		Platform:         platform,
		Guard:            syncguard.New(),
		Clock:            memory.SystemClock{},
		IDGenerator:      memory.UUIDGenerator{},
		MaxSingleAmount:  decimal.NewFromInt(5000),
		SystemDailyLimit: decimal.NewFromInt(10000),
		DefaultMaxRetry:  3,
		Logger:           logger,
	})
	module.Store = store
	return module
}
