package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus tracks whether a linked platform account may pay for boosts.
type AccountStatus int

const (
	StatusDisabled AccountStatus = 0
	StatusActive   AccountStatus = 1
)

// Account is a platform account a user has authorized for ad spend. Token
// material is stored encrypted; plaintext only exists in memory around a
// remote call.
type Account struct {
	AccountID string
	UserID    string

	OpenID  string
	UnionID string
	// ActorID is the platform-side identity (sec-uid) used when listing and
	// reporting on orders.
	ActorID string

	Nickname       string
	Avatar         string
	FanCount       int64
	FollowingCount int64
	TotalFavorited int64

	Status AccountStatus
	// DailyLimit caps the account's admitted spend per calendar day. Nil means
	// the system-wide ceiling applies.
	DailyLimit *decimal.Decimal
	Balance    decimal.Decimal
	Remark     string

	EncryptedAccessToken  string
	EncryptedRefreshToken string
	TokenExpiresAt        time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a Account) Active() bool {
	return a.Status == StatusActive
}

// Disable takes the account out of rotation. Pending tasks on it fail at
// execution time with a credential error rather than being cancelled here.
func (a *Account) Disable(now time.Time) {
	a.Status = StatusDisabled
	a.UpdatedAt = now
}

// ApplyTokens installs a freshly issued credential pair. Tokens must already
// be encrypted by the caller.
func (a *Account) ApplyTokens(encryptedAccess, encryptedRefresh string, expiresAt, now time.Time) {
	a.EncryptedAccessToken = encryptedAccess
	a.EncryptedRefreshToken = encryptedRefresh
	a.TokenExpiresAt = expiresAt
	a.Status = StatusActive
	a.UpdatedAt = now
}
