package commands

import (
	"context"
	"log/slog"
	"strings"

	application "adboost/contexts/ad-delivery/account-service/application"
	"adboost/contexts/ad-delivery/account-service/domain/entities"
	domainerrors "adboost/contexts/ad-delivery/account-service/domain/errors"
	"adboost/contexts/ad-delivery/account-service/ports"

	"github.com/shopspring/decimal"
)

// SetDailyLimitUseCase sets or clears the per-account daily spend ceiling. A
// nil limit restores the system default.
type SetDailyLimitUseCase struct {
	Accounts ports.AccountRepository
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (uc SetDailyLimitUseCase) Execute(ctx context.Context, userID, accountID string, limit *decimal.Decimal) (entities.Account, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(accountID) == "" {
		return entities.Account{}, domainerrors.ErrInvalidAccountInput
	}
	if limit != nil && !limit.IsPositive() {
		return entities.Account{}, domainerrors.ErrInvalidAccountInput
	}

	account, err := uc.Accounts.GetOwnedAccount(ctx, accountID, userID)
	if err != nil {
		return entities.Account{}, err
	}

	account.DailyLimit = limit
	account.UpdatedAt = uc.Clock.Now().UTC()
	if err := uc.Accounts.UpdateAccount(ctx, account); err != nil {
		return entities.Account{}, err
	}

	logger.Info("daily limit updated",
		"event", "account_limit_updated",
		"module", "ad-delivery/account-service",
		"layer", "application",
		"account_id", account.AccountID,
	)
	return account, nil
}
