package accountservice

import (
	"log/slog"
	"time"

	"adboost/contexts/ad-delivery/account-service/adapters/directory"
	httpadapter "adboost/contexts/ad-delivery/account-service/adapters/http"
	"adboost/contexts/ad-delivery/account-service/adapters/memory"
	"adboost/contexts/ad-delivery/account-service/application/commands"
	"adboost/contexts/ad-delivery/account-service/application/queries"
	"adboost/contexts/ad-delivery/account-service/application/workers"
	"adboost/contexts/ad-delivery/account-service/domain/entities"
	"adboost/contexts/ad-delivery/account-service/ports"
	taskports "adboost/contexts/ad-delivery/task-service/ports"

	"golang.org/x/time/rate"
)

type Module struct {
	Handler   httpadapter.Handler
	Refresher workers.TokenRefresher
	// Directory is the read view the task service consumes.
	Directory taskports.AccountDirectory
	Store     *memory.Store
}

type Dependencies struct {
	Accounts ports.AccountRepository
	Codec    ports.CredentialCodec
	Platform ports.TokenRefreshClient
	Events   ports.EventPublisher
	Clock    ports.Clock
	IDGen    ports.IDGenerator

	RefreshHorizon    time.Duration
	DefaultTokenTTL   time.Duration
	RemoteCallsPerSec float64

	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	limit := rate.Inf
	if deps.RemoteCallsPerSec > 0 {
		limit = rate.Limit(deps.RemoteCallsPerSec)
	}

	refresher := workers.TokenRefresher{
		Accounts: deps.Accounts,
		Codec:    deps.Codec,
		Platform: deps.Platform,
		Events:   deps.Events,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Limiter:  rate.NewLimiter(limit, 1),
		Horizon:  deps.RefreshHorizon,
		TokenTTL: deps.DefaultTokenTTL,
		Logger:   deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			LinkAccount: commands.LinkAccountUseCase{
				Accounts: deps.Accounts,
				Codec:    deps.Codec,
				Clock:    deps.Clock,
				IDGen:    deps.IDGen,
				Logger:   deps.Logger,
			},
			SetDailyLimit: commands.SetDailyLimitUseCase{
				Accounts: deps.Accounts,
				Clock:    deps.Clock,
				Logger:   deps.Logger,
			},
			UpdateProfile: commands.UpdateProfileUseCase{
				Accounts: deps.Accounts,
				Clock:    deps.Clock,
				Logger:   deps.Logger,
			},
			ListAccounts: queries.ListAccountsUseCase{
				Accounts: deps.Accounts,
				Logger:   deps.Logger,
			},
			GetAccount: queries.GetAccountUseCase{
				Accounts: deps.Accounts,
				Logger:   deps.Logger,
			},
			Refresher: refresher,
			Logger:    deps.Logger,
		},
		Refresher: refresher,
		Directory: directory.Directory{Accounts: deps.Accounts},
	}
}

// NewInMemoryModule wires the module against the in-memory account store for
// tests; codec and platform client are supplied by the caller.
func NewInMemoryModule(
	seed []entities.Account,
	codec ports.CredentialCodec,
	platform ports.TokenRefreshClient,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Accounts: store,
		Codec:    codec,
		Platform: platform,
		Clock:    memory.SystemClock{},
		IDGen:    memory.UUIDGenerator{},
		Logger:   logger,
	})
	module.Store = store
	return module
}
