package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	accountservice "adboost/contexts/ad-delivery/account-service"
	accountpostgres "adboost/contexts/ad-delivery/account-service/adapters/postgres"
	accountworkers "adboost/contexts/ad-delivery/account-service/application/workers"
	taskservice "adboost/contexts/ad-delivery/task-service"
	taskmemory "adboost/contexts/ad-delivery/task-service/adapters/memory"
	taskpostgres "adboost/contexts/ad-delivery/task-service/adapters/postgres"
	taskworkers "adboost/contexts/ad-delivery/task-service/application/workers"
	"adboost/internal/platform/config"
	"adboost/internal/platform/crypto"
	"adboost/internal/platform/db"
	"adboost/internal/platform/httpserver"
	"adboost/internal/platform/messaging"
	"adboost/internal/platform/oceanengine"
	"adboost/internal/platform/syncguard"
	"adboost/internal/shared/events"

	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres            *db.Postgres
	bus                 *messaging.Bus
	executor            taskworkers.Executor
	refresher           accountworkers.TokenRefresher
	executorInterval    time.Duration
	refreshInterval     time.Duration
	refreshInitialDelay time.Duration
	logger              *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	pg, taskModule, accountModule, _, err := buildModules(cfg, logger)
	if err != nil {
		return nil, err
	}

	server := httpserver.New(taskModule, accountModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	pg, taskModule, accountModule, bus, err := buildModules(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &WorkerApp{
		postgres:            pg,
		bus:                 bus,
		executor:            taskModule.Executor,
		refresher:           accountModule.Refresher,
		executorInterval:    cfg.ExecutorInterval,
		refreshInterval:     cfg.RefreshInterval,
		refreshInitialDelay: cfg.RefreshInitialDelay,
		logger:              logger,
	}, nil
}

func buildModules(cfg config.Config, logger *slog.Logger) (*db.Postgres, taskservice.Module, accountservice.Module, *messaging.Bus, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, taskservice.Module{}, accountservice.Module{}, nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, taskservice.Module{}, accountservice.Module{}, nil, err
	}

	codec, err := crypto.NewCodec(cfg.CredentialKey)
	if err != nil {
		return nil, taskservice.Module{}, accountservice.Module{}, nil, err
	}

	platform := oceanengine.NewClient(oceanengine.Config{
		BaseURL:   cfg.PlatformBaseURL,
		AppID:     cfg.PlatformAppID,
		AppSecret: cfg.PlatformSecret,
		Timeout:   cfg.PlatformTimeout,
	})
	bus := messaging.NewBus(logger)

	accountRepo := accountpostgres.NewRepository(pg.DB, logger)
	accountModule := accountservice.NewModule(accountservice.Dependencies{
		Accounts:          accountRepo,
		Codec:             codec,
		Platform:          platform,
		Events:            bus,
		Clock:             accountpostgres.SystemClock{},
		IDGen:             accountpostgres.UUIDGenerator{},
		RemoteCallsPerSec: cfg.RemoteCallsPerSec,
		Logger:            logger,
	})

	taskRepo := taskpostgres.NewRepository(pg.DB, logger)
	taskModule := taskservice.NewModule(taskservice.Dependencies{
		Tasks:             taskRepo,
		Accounts:          accountModule.Directory,
		SecondFactor:      taskmemory.StaticVerifier{PermitAll: true},
		Codec:             codec,
		Platform:          platform,
		Guard:             syncguard.New(),
		Events:            bus,
		Clock:             taskpostgres.SystemClock{},
		IDGenerator:       taskpostgres.UUIDGenerator{},
		MaxSingleAmount:   cfg.MaxSingleAmount,
		SystemDailyLimit:  cfg.SystemDailyLimit,
		DefaultMaxRetry:   cfg.DefaultMaxRetry,
		ExecutorBatchSize: cfg.ExecutorBatchSize,
		SyncWorkers:       cfg.SyncWorkers,
		SyncPageSize:      cfg.SyncPageSize,
		ReportWindowDays:  cfg.ReportWindowDays,
		RemoteCallsPerSec: cfg.RemoteCallsPerSec,
		Logger:            logger,
	})

	return pg, taskModule, accountModule, bus, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

// Run drives both schedules until ctx is cancelled. Each loop runs its ticks
// sequentially so a slow batch can never overlap the next one; cancellation
// stops scheduling new ticks while the in-flight tick finishes on its own
// context.
func (w *WorkerApp) Run(ctx context.Context) error {
	w.subscribeAudit(ctx)

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"executor_interval", w.executorInterval.String(),
		"refresh_interval", w.refreshInterval.String(),
	)

	executorLoop := tickerLoop{
		Interval: w.executorInterval,
		Tick:     w.executor.RunOnce,
		OnError: func(err error) {
			w.logger.Error("executor tick failed",
				"event", "bootstrap_executor_tick_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		},
	}
	refreshLoop := tickerLoop{
		Interval:     w.refreshInterval,
		InitialDelay: w.refreshInitialDelay,
		RunOnStart:   true,
		Tick:         w.refresher.RunOnce,
		OnError: func(err error) {
			w.logger.Error("token refresh tick failed",
				"event", "bootstrap_refresh_tick_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		},
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return executorLoop.Run(groupCtx) })
	group.Go(func() error { return refreshLoop.Run(groupCtx) })

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (w *WorkerApp) subscribeAudit(ctx context.Context) {
	if w.bus == nil {
		return
	}
	audit := func(ctx context.Context, event events.Envelope) error {
		w.logger.Info("lifecycle event",
			"event", "bootstrap_lifecycle_event",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"event_type", event.EventType,
			"event_id", event.EventID,
		)
		return nil
	}
	_ = w.bus.Subscribe(ctx, events.TypeTaskFailed, audit)
	_ = w.bus.Subscribe(ctx, events.TypeAccountDisabled, audit)
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
