package queries

import (
	"context"
	"log/slog"
	"strings"

	"adboost/contexts/ad-delivery/account-service/domain/entities"
	domainerrors "adboost/contexts/ad-delivery/account-service/domain/errors"
	"adboost/contexts/ad-delivery/account-service/ports"
)

type ListAccountsUseCase struct {
	Accounts ports.AccountRepository
	Logger   *slog.Logger
}

func (uc ListAccountsUseCase) Execute(ctx context.Context, userID string) ([]entities.Account, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domainerrors.ErrInvalidAccountInput
	}
	return uc.Accounts.ListUserAccounts(ctx, userID)
}

type GetAccountUseCase struct {
	Accounts ports.AccountRepository
	Logger   *slog.Logger
}

func (uc GetAccountUseCase) Execute(ctx context.Context, userID, accountID string) (entities.Account, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(accountID) == "" {
		return entities.Account{}, domainerrors.ErrInvalidAccountInput
	}
	return uc.Accounts.GetOwnedAccount(ctx, accountID, userID)
}
