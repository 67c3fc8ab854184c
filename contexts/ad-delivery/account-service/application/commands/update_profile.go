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

// ProfilePatch carries the fields a profile refresh may touch. Nil fields are
// left as stored.
type ProfilePatch struct {
	Nickname       *string
	Avatar         *string
	FanCount       *int64
	FollowingCount *int64
	TotalFavorited *int64
	Balance        *decimal.Decimal
	Remark         *string
}

type UpdateProfileUseCase struct {
	Accounts ports.AccountRepository
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (uc UpdateProfileUseCase) Execute(ctx context.Context, userID, accountID string, patch ProfilePatch) (entities.Account, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(accountID) == "" {
		return entities.Account{}, domainerrors.ErrInvalidAccountInput
	}

	account, err := uc.Accounts.GetOwnedAccount(ctx, accountID, userID)
	if err != nil {
		return entities.Account{}, err
	}

	if patch.Nickname != nil {
		account.Nickname = strings.TrimSpace(*patch.Nickname)
	}
	if patch.Avatar != nil {
		account.Avatar = strings.TrimSpace(*patch.Avatar)
	}
	if patch.FanCount != nil {
		account.FanCount = *patch.FanCount
	}
	if patch.FollowingCount != nil {
		account.FollowingCount = *patch.FollowingCount
	}
	if patch.TotalFavorited != nil {
		account.TotalFavorited = *patch.TotalFavorited
	}
	if patch.Balance != nil {
		account.Balance = *patch.Balance
	}
	if patch.Remark != nil {
		account.Remark = strings.TrimSpace(*patch.Remark)
	}
	account.UpdatedAt = uc.Clock.Now().UTC()

	if err := uc.Accounts.UpdateAccount(ctx, account); err != nil {
		return entities.Account{}, err
	}

	logger.Info("profile updated",
		"event", "account_profile_updated",
		"module", "ad-delivery/account-service",
		"layer", "application",
		"account_id", account.AccountID,
	)
	return account, nil
}
