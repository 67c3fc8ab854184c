package unit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	accountservice "adboost/contexts/ad-delivery/account-service"
	accountentities "adboost/contexts/ad-delivery/account-service/domain/entities"
	accountports "adboost/contexts/ad-delivery/account-service/ports"
	taskservice "adboost/contexts/ad-delivery/task-service"
	taskmemory "adboost/contexts/ad-delivery/task-service/adapters/memory"
	taskentities "adboost/contexts/ad-delivery/task-service/domain/entities"
	taskports "adboost/contexts/ad-delivery/task-service/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// plainCodec stores credentials as-is so tests can assert on token values.
type plainCodec struct{}

func (plainCodec) Encrypt(plain string) (string, error) { return plain, nil }
func (plainCodec) Decrypt(stored string) (string, error) {
	if stored == "" {
		return "", errors.New("empty credential")
	}
	return stored, nil
}

// fakePlatform scripts the remote platform. Unset hooks fail loudly so a test
// never silently exercises a path it did not mean to.
type fakePlatform struct {
	mu sync.Mutex

	CreateOrderFn func(in taskports.CreateOrderInput) (taskports.CreateOrderResult, error)
	ListOrdersFn  func(page, pageSize int) (taskports.OrderPage, error)
	ReportFn      func(begin, end time.Time) (map[string]taskports.OrderReport, error)
	RefreshFn     func(refreshToken string) (accountports.TokenRefresh, error)

	CreateCalls  int
	ListedPages  []int
	RefreshCalls int
}

func (f *fakePlatform) CreateOrder(_ context.Context, _ string, in taskports.CreateOrderInput) (taskports.CreateOrderResult, error) {
	f.mu.Lock()
	f.CreateCalls++
	f.mu.Unlock()
	if f.CreateOrderFn == nil {
		return taskports.CreateOrderResult{}, errors.New("CreateOrder not scripted")
	}
	return f.CreateOrderFn(in)
}

func (f *fakePlatform) QueryOrderStatus(_ context.Context, _, orderID string) (taskports.OrderStatusResult, error) {
	return taskports.OrderStatusResult{OrderID: orderID}, nil
}

func (f *fakePlatform) CancelOrder(context.Context, string, string) (bool, error) {
	return true, nil
}

func (f *fakePlatform) ListOrders(_ context.Context, _, _ string, page, pageSize int) (taskports.OrderPage, error) {
	f.mu.Lock()
	f.ListedPages = append(f.ListedPages, page)
	f.mu.Unlock()
	if f.ListOrdersFn == nil {
		return taskports.OrderPage{}, errors.New("ListOrders not scripted")
	}
	return f.ListOrdersFn(page, pageSize)
}

func (f *fakePlatform) GetOrderReport(_ context.Context, _, _ string, begin, end time.Time) (map[string]taskports.OrderReport, error) {
	if f.ReportFn == nil {
		return map[string]taskports.OrderReport{}, nil
	}
	return f.ReportFn(begin, end)
}

func (f *fakePlatform) RefreshCredential(_ context.Context, refreshToken string) (accountports.TokenRefresh, error) {
	f.mu.Lock()
	f.RefreshCalls++
	f.mu.Unlock()
	if f.RefreshFn == nil {
		return accountports.TokenRefresh{}, errors.New("RefreshCredential not scripted")
	}
	return f.RefreshFn(refreshToken)
}

type fixture struct {
	Tasks    taskservice.Module
	Accounts accountservice.Module
	Platform *fakePlatform
}

func newFixture(accountSeed []accountentities.Account, taskSeed []taskentities.Task) fixture {
	platform := &fakePlatform{}
	accountModule := accountservice.NewInMemoryModule(accountSeed, plainCodec{}, platform, discardLogger())
	taskModule := taskservice.NewInMemoryModule(
		taskSeed,
		accountModule.Directory,
		taskmemory.StaticVerifier{Passwords: map[string]string{"user-1": "pass-1"}},
		plainCodec{},
		platform,
		discardLogger(),
	)
	return fixture{
		Tasks:    taskModule,
		Accounts: accountModule,
		Platform: platform,
	}
}

func activeAccount(accountID, userID string) accountentities.Account {
	now := time.Now().UTC()
	return accountentities.Account{
		AccountID:             accountID,
		UserID:                userID,
		OpenID:                "open-" + accountID,
		ActorID:               "actor-" + accountID,
		Nickname:              "creator",
		Status:                accountentities.StatusActive,
		EncryptedAccessToken:  "access-" + accountID,
		EncryptedRefreshToken: "refresh-" + accountID,
		TokenExpiresAt:        now.Add(30 * 24 * time.Hour),
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}
