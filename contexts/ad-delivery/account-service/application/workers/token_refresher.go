package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "adboost/contexts/ad-delivery/account-service/application"
	"adboost/contexts/ad-delivery/account-service/domain/entities"
	domainerrors "adboost/contexts/ad-delivery/account-service/domain/errors"
	"adboost/contexts/ad-delivery/account-service/ports"
	"adboost/internal/shared/events"

	"golang.org/x/time/rate"
)

const (
	// DefaultHorizon is how far ahead of expiry tokens are refreshed.
	DefaultHorizon = 7 * 24 * time.Hour
	// DefaultTokenTTL applies when the platform omits an expiry.
	DefaultTokenTTL = 24 * time.Hour
)

// TokenRefresher rotates credential pairs before they expire. One RunOnce
// call is one tick: every active account expiring inside the horizon is
// refreshed sequentially, paced by the limiter so the platform is never
// hammered. A dead refresh token disables the account; any other failure
// leaves the row untouched for the next tick.
type TokenRefresher struct {
	Accounts ports.AccountRepository
	Codec    ports.CredentialCodec
	Platform ports.TokenRefreshClient
	Events   ports.EventPublisher
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Limiter  *rate.Limiter
	Horizon  time.Duration
	TokenTTL time.Duration
	Logger   *slog.Logger
}

func (r TokenRefresher) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	horizon := r.Horizon
	if horizon <= 0 {
		horizon = DefaultHorizon
	}

	now := r.Clock.Now().UTC()
	expiring, err := r.Accounts.ListExpiringAccounts(ctx, now.Add(horizon))
	if err != nil {
		logger.Error("expiring account listing failed",
			"event", "token_refresh_list_failed",
			"module", "ad-delivery/account-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(expiring) == 0 {
		return nil
	}

	logger.Info("refreshing expiring tokens",
		"event", "token_refresh_tick",
		"module", "ad-delivery/account-service",
		"layer", "worker",
		"account_count", len(expiring),
	)

	for _, account := range expiring {
		if err := r.waitTurn(ctx); err != nil {
			return err
		}
		r.refreshOne(ctx, account)
	}
	return nil
}

// RefreshAccount refreshes a single account on demand and reports whether the
// account holds a usable credential afterwards.
func (r TokenRefresher) RefreshAccount(ctx context.Context, accountID string) bool {
	account, err := r.Accounts.GetAccount(ctx, accountID)
	if err != nil {
		return false
	}
	if !account.Active() {
		return false
	}
	return r.refreshOne(ctx, account)
}

func (r TokenRefresher) refreshOne(ctx context.Context, account entities.Account) bool {
	logger := application.ResolveLogger(r.Logger)

	refreshToken, err := r.Codec.Decrypt(account.EncryptedRefreshToken)
	if err != nil {
		logger.Error("refresh token unreadable",
			"event", "token_refresh_decrypt_failed",
			"module", "ad-delivery/account-service",
			"layer", "worker",
			"account_id", account.AccountID,
			"error", err.Error(),
		)
		return false
	}

	issued, err := r.Platform.RefreshCredential(ctx, refreshToken)
	if errors.Is(err, domainerrors.ErrRefreshTokenExpired) {
		r.disable(ctx, account)
		return false
	}
	if err != nil {
		logger.Warn("token refresh failed",
			"event", "token_refresh_failed",
			"module", "ad-delivery/account-service",
			"layer", "worker",
			"account_id", account.AccountID,
			"error", err.Error(),
		)
		return false
	}

	encryptedAccess, err := r.Codec.Encrypt(issued.AccessToken)
	if err != nil {
		return false
	}
	encryptedRefresh, err := r.Codec.Encrypt(issued.RefreshToken)
	if err != nil {
		return false
	}

	now := r.Clock.Now().UTC()
	ttl := r.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if issued.ExpiresIn > 0 {
		ttl = time.Duration(issued.ExpiresIn) * time.Second
	}
	account.ApplyTokens(encryptedAccess, encryptedRefresh, now.Add(ttl), now)

	if err := r.Accounts.UpdateAccount(ctx, account); err != nil {
		logger.Error("token refresh update failed",
			"event", "token_refresh_update_failed",
			"module", "ad-delivery/account-service",
			"layer", "worker",
			"account_id", account.AccountID,
			"error", err.Error(),
		)
		return false
	}

	logger.Info("token refreshed",
		"event", "token_refreshed",
		"module", "ad-delivery/account-service",
		"layer", "worker",
		"account_id", account.AccountID,
	)
	return true
}

func (r TokenRefresher) disable(ctx context.Context, account entities.Account) {
	logger := application.ResolveLogger(r.Logger)
	now := r.Clock.Now().UTC()
	account.Disable(now)
	if err := r.Accounts.UpdateAccount(ctx, account); err != nil {
		logger.Error("account disable failed",
			"event", "account_disable_failed",
			"module", "ad-delivery/account-service",
			"layer", "worker",
			"account_id", account.AccountID,
			"error", err.Error(),
		)
		return
	}

	if r.Events != nil && r.IDGen != nil {
		eventID, err := r.IDGen.NewID(ctx)
		if err == nil {
			envelope, err := events.New(eventID, events.TypeAccountDisabled, account.UserID, now, map[string]any{
				"account_id": account.AccountID,
				"user_id":    account.UserID,
				"reason":     "refresh token expired",
			})
			if err == nil {
				_ = r.Events.Publish(ctx, events.TypeAccountDisabled, envelope)
			}
		}
	}

	logger.Warn("account disabled",
		"event", "account_disabled",
		"module", "ad-delivery/account-service",
		"layer", "worker",
		"account_id", account.AccountID,
	)
}

func (r TokenRefresher) waitTurn(ctx context.Context) error {
	if r.Limiter == nil {
		return ctx.Err()
	}
	return r.Limiter.Wait(ctx)
}
