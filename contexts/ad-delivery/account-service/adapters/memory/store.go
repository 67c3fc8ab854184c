package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"adboost/contexts/ad-delivery/account-service/domain/entities"
	domainerrors "adboost/contexts/ad-delivery/account-service/domain/errors"

	"github.com/google/uuid"
)

// Store is the in-memory account repository used by tests and the in-memory
// module constructor. It mirrors the postgres adapter's semantics.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]entities.Account
}

func NewStore(seed []entities.Account) *Store {
	accounts := make(map[string]entities.Account, len(seed))
	for _, item := range seed {
		accounts[item.AccountID] = item
	}
	return &Store{accounts: accounts}
}

func (s *Store) CreateAccount(_ context.Context, account entities.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.AccountID]; exists {
		return domainerrors.ErrInvalidAccountInput
	}
	for _, item := range s.accounts {
		if item.UserID == account.UserID && item.OpenID == account.OpenID {
			return domainerrors.ErrInvalidAccountInput
		}
	}
	s.accounts[account.AccountID] = account
	return nil
}

func (s *Store) UpdateAccount(_ context.Context, account entities.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.AccountID]; !exists {
		return domainerrors.ErrAccountNotFound
	}
	s.accounts[account.AccountID] = account
	return nil
}

func (s *Store) GetAccount(_ context.Context, accountID string) (entities.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, exists := s.accounts[accountID]
	if !exists {
		return entities.Account{}, domainerrors.ErrAccountNotFound
	}
	return account, nil
}

func (s *Store) GetOwnedAccount(_ context.Context, accountID, userID string) (entities.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, exists := s.accounts[accountID]
	if !exists || account.UserID != userID {
		return entities.Account{}, domainerrors.ErrAccountNotFound
	}
	return account, nil
}

func (s *Store) GetAccountByOpenID(_ context.Context, userID, openID string) (entities.Account, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.accounts {
		if item.UserID == userID && item.OpenID == openID {
			return item, true, nil
		}
	}
	return entities.Account{}, false, nil
}

func (s *Store) ListUserAccounts(_ context.Context, userID string) ([]entities.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Account, 0)
	for _, item := range s.accounts {
		if item.UserID == userID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) ListExpiringAccounts(_ context.Context, before time.Time) ([]entities.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Account, 0)
	for _, item := range s.accounts {
		if item.Active() && !item.TokenExpiresAt.After(before) {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].TokenExpiresAt.Before(items[j].TokenExpiresAt)
	})
	return items, nil
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(context.Context) (string, error) {
	return uuid.NewString(), nil
}
