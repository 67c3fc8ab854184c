package directory

import (
	"context"

	"adboost/contexts/ad-delivery/account-service/domain/entities"
	"adboost/contexts/ad-delivery/account-service/ports"
	taskports "adboost/contexts/ad-delivery/task-service/ports"
)

// Directory exposes linked accounts to the task service as a read view. It is
// the only seam between the two services; the full account row never crosses
// the boundary.
type Directory struct {
	Accounts ports.AccountRepository
}

func (d Directory) GetAccount(ctx context.Context, accountID string) (taskports.PayingAccount, error) {
	account, err := d.Accounts.GetAccount(ctx, accountID)
	if err != nil {
		return taskports.PayingAccount{}, err
	}
	return toPayingAccount(account), nil
}

func (d Directory) GetOwnedAccount(ctx context.Context, accountID, userID string) (taskports.PayingAccount, error) {
	account, err := d.Accounts.GetOwnedAccount(ctx, accountID, userID)
	if err != nil {
		return taskports.PayingAccount{}, err
	}
	return toPayingAccount(account), nil
}

func (d Directory) ListUserAccounts(ctx context.Context, userID string) ([]taskports.PayingAccount, error) {
	accounts, err := d.Accounts.ListUserAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]taskports.PayingAccount, 0, len(accounts))
	for _, account := range accounts {
		views = append(views, toPayingAccount(account))
	}
	return views, nil
}

func toPayingAccount(account entities.Account) taskports.PayingAccount {
	return taskports.PayingAccount{
		AccountID:            account.AccountID,
		UserID:               account.UserID,
		ActorID:              account.ActorID,
		Nickname:             account.Nickname,
		Active:               account.Active(),
		DailyLimit:           account.DailyLimit,
		EncryptedAccessToken: account.EncryptedAccessToken,
	}
}
