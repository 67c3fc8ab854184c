package ports

import (
	"context"
	"time"

	"adboost/contexts/ad-delivery/account-service/domain/entities"
	"adboost/internal/shared/events"
)

type AccountRepository interface {
	CreateAccount(ctx context.Context, account entities.Account) error
	UpdateAccount(ctx context.Context, account entities.Account) error
	GetAccount(ctx context.Context, accountID string) (entities.Account, error)
	GetOwnedAccount(ctx context.Context, accountID, userID string) (entities.Account, error)
	GetAccountByOpenID(ctx context.Context, userID, openID string) (entities.Account, bool, error)
	ListUserAccounts(ctx context.Context, userID string) ([]entities.Account, error)
	// ListExpiringAccounts returns active accounts whose access token expires
	// at or before the given instant.
	ListExpiringAccounts(ctx context.Context, before time.Time) ([]entities.Account, error)
}

type CredentialCodec interface {
	Encrypt(plain string) (string, error)
	Decrypt(stored string) (string, error)
}

// TokenRefresh is the credential pair issued by the platform. ExpiresIn is in
// seconds; zero means the platform omitted it.
type TokenRefresh struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// TokenRefreshClient exchanges a refresh token for a fresh credential pair. A
// dead refresh token surfaces as ErrRefreshTokenExpired.
type TokenRefreshClient interface {
	RefreshCredential(ctx context.Context, refreshToken string) (TokenRefresh, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}
