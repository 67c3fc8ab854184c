package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "adboost/contexts/ad-delivery/account-service/application"
	"adboost/contexts/ad-delivery/account-service/domain/entities"
	domainerrors "adboost/contexts/ad-delivery/account-service/domain/errors"
	"adboost/contexts/ad-delivery/account-service/ports"
)

// DefaultTokenTTL applies when the platform omits an expiry on issued tokens.
const DefaultTokenTTL = 24 * time.Hour

type LinkAccountCommand struct {
	UserID         string
	OpenID         string
	UnionID        string
	ActorID        string
	Nickname       string
	Avatar         string
	FanCount       int64
	FollowingCount int64
	TotalFavorited int64
	AccessToken    string
	RefreshToken   string
	ExpiresIn      int64
}

// LinkAccountUseCase handles the OAuth callback: it upserts the account keyed
// on (user, open id). Re-linking a disabled account reactivates it.
type LinkAccountUseCase struct {
	Accounts ports.AccountRepository
	Codec    ports.CredentialCodec
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func (uc LinkAccountUseCase) Execute(ctx context.Context, cmd LinkAccountCommand) (entities.Account, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID := strings.TrimSpace(cmd.UserID)
	openID := strings.TrimSpace(cmd.OpenID)
	if userID == "" || openID == "" || cmd.AccessToken == "" || cmd.RefreshToken == "" {
		return entities.Account{}, domainerrors.ErrInvalidAccountInput
	}

	now := uc.Clock.Now().UTC()
	encryptedAccess, err := uc.Codec.Encrypt(cmd.AccessToken)
	if err != nil {
		return entities.Account{}, err
	}
	encryptedRefresh, err := uc.Codec.Encrypt(cmd.RefreshToken)
	if err != nil {
		return entities.Account{}, err
	}
	expiresAt := now.Add(tokenTTL(cmd.ExpiresIn))

	account, found, err := uc.Accounts.GetAccountByOpenID(ctx, userID, openID)
	if err != nil {
		return entities.Account{}, err
	}

	if found {
		applyProfile(&account, cmd)
		account.ApplyTokens(encryptedAccess, encryptedRefresh, expiresAt, now)
		if err := uc.Accounts.UpdateAccount(ctx, account); err != nil {
			return entities.Account{}, err
		}
		logger.Info("account relinked",
			"event", "account_relinked",
			"module", "ad-delivery/account-service",
			"layer", "application",
			"account_id", account.AccountID,
		)
		return account, nil
	}

	accountID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Account{}, err
	}
	account = entities.Account{
		AccountID: accountID,
		UserID:    userID,
		OpenID:    openID,
		Status:    entities.StatusActive,
		CreatedAt: now,
	}
	applyProfile(&account, cmd)
	account.ApplyTokens(encryptedAccess, encryptedRefresh, expiresAt, now)
	if err := uc.Accounts.CreateAccount(ctx, account); err != nil {
		return entities.Account{}, err
	}

	logger.Info("account linked",
		"event", "account_linked",
		"module", "ad-delivery/account-service",
		"layer", "application",
		"account_id", account.AccountID,
	)
	return account, nil
}

func applyProfile(account *entities.Account, cmd LinkAccountCommand) {
	account.UnionID = strings.TrimSpace(cmd.UnionID)
	account.ActorID = strings.TrimSpace(cmd.ActorID)
	account.Nickname = strings.TrimSpace(cmd.Nickname)
	account.Avatar = strings.TrimSpace(cmd.Avatar)
	account.FanCount = cmd.FanCount
	account.FollowingCount = cmd.FollowingCount
	account.TotalFavorited = cmd.TotalFavorited
}

func tokenTTL(expiresIn int64) time.Duration {
	if expiresIn <= 0 {
		return DefaultTokenTTL
	}
	return time.Duration(expiresIn) * time.Second
}
