package httptransport

type LinkAccountRequest struct {
	OpenID         string `json:"open_id"`
	UnionID        string `json:"union_id,omitempty"`
	ActorID        string `json:"actor_id,omitempty"`
	Nickname       string `json:"nickname,omitempty"`
	Avatar         string `json:"avatar,omitempty"`
	FanCount       int64  `json:"fan_count,omitempty"`
	FollowingCount int64  `json:"following_count,omitempty"`
	TotalFavorited int64  `json:"total_favorited,omitempty"`
	AccessToken    string `json:"access_token"`
	RefreshToken   string `json:"refresh_token"`
	ExpiresIn      int64  `json:"expires_in,omitempty"`
}

type SetDailyLimitRequest struct {
	// DailyLimit is a decimal string; null clears the per-account ceiling.
	DailyLimit *string `json:"daily_limit"`
}

type UpdateProfileRequest struct {
	Nickname       *string `json:"nickname,omitempty"`
	Avatar         *string `json:"avatar,omitempty"`
	FanCount       *int64  `json:"fan_count,omitempty"`
	FollowingCount *int64  `json:"following_count,omitempty"`
	TotalFavorited *int64  `json:"total_favorited,omitempty"`
	Balance        *string `json:"balance,omitempty"`
	Remark         *string `json:"remark,omitempty"`
}

// AccountView never carries token material.
type AccountView struct {
	AccountID string `json:"account_id"`
	UserID    string `json:"user_id"`
	OpenID    string `json:"open_id"`
	UnionID   string `json:"union_id,omitempty"`
	ActorID   string `json:"actor_id,omitempty"`

	Nickname       string `json:"nickname"`
	Avatar         string `json:"avatar,omitempty"`
	FanCount       int64  `json:"fan_count"`
	FollowingCount int64  `json:"following_count"`
	TotalFavorited int64  `json:"total_favorited"`

	Status     int     `json:"status"`
	DailyLimit *string `json:"daily_limit,omitempty"`
	Balance    string  `json:"balance"`
	Remark     string  `json:"remark,omitempty"`

	TokenExpiresAt string `json:"token_expires_at"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

type ListAccountsResponse struct {
	Accounts []AccountView `json:"accounts"`
}

type RefreshTokenResponse struct {
	Refreshed bool `json:"refreshed"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
