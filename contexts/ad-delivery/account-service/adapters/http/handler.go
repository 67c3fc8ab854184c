package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"adboost/contexts/ad-delivery/account-service/application/commands"
	"adboost/contexts/ad-delivery/account-service/application/queries"
	"adboost/contexts/ad-delivery/account-service/application/workers"
	"adboost/contexts/ad-delivery/account-service/domain/entities"
	domainerrors "adboost/contexts/ad-delivery/account-service/domain/errors"
	httptransport "adboost/contexts/ad-delivery/account-service/transport/http"

	"github.com/shopspring/decimal"
)

type Handler struct {
	LinkAccount   commands.LinkAccountUseCase
	SetDailyLimit commands.SetDailyLimitUseCase
	UpdateProfile commands.UpdateProfileUseCase
	ListAccounts  queries.ListAccountsUseCase
	GetAccount    queries.GetAccountUseCase
	Refresher     workers.TokenRefresher
	Logger        *slog.Logger
}

func (h Handler) LinkAccountHandler(ctx context.Context, userID string, req httptransport.LinkAccountRequest) (httptransport.AccountView, error) {
	account, err := h.LinkAccount.Execute(ctx, commands.LinkAccountCommand{
		UserID:         userID,
		OpenID:         req.OpenID,
		UnionID:        req.UnionID,
		ActorID:        req.ActorID,
		Nickname:       req.Nickname,
		Avatar:         req.Avatar,
		FanCount:       req.FanCount,
		FollowingCount: req.FollowingCount,
		TotalFavorited: req.TotalFavorited,
		AccessToken:    req.AccessToken,
		RefreshToken:   req.RefreshToken,
		ExpiresIn:      req.ExpiresIn,
	})
	if err != nil {
		return httptransport.AccountView{}, err
	}
	return mapAccount(account), nil
}

func (h Handler) SetDailyLimitHandler(ctx context.Context, userID, accountID string, req httptransport.SetDailyLimitRequest) (httptransport.AccountView, error) {
	var limit *decimal.Decimal
	if req.DailyLimit != nil {
		parsed, err := decimal.NewFromString(*req.DailyLimit)
		if err != nil {
			return httptransport.AccountView{}, domainerrors.ErrInvalidAccountInput
		}
		limit = &parsed
	}

	account, err := h.SetDailyLimit.Execute(ctx, userID, accountID, limit)
	if err != nil {
		return httptransport.AccountView{}, err
	}
	return mapAccount(account), nil
}

func (h Handler) UpdateProfileHandler(ctx context.Context, userID, accountID string, req httptransport.UpdateProfileRequest) (httptransport.AccountView, error) {
	patch := commands.ProfilePatch{
		Nickname:       req.Nickname,
		Avatar:         req.Avatar,
		FanCount:       req.FanCount,
		FollowingCount: req.FollowingCount,
		TotalFavorited: req.TotalFavorited,
		Remark:         req.Remark,
	}
	if req.Balance != nil {
		parsed, err := decimal.NewFromString(*req.Balance)
		if err != nil {
			return httptransport.AccountView{}, domainerrors.ErrInvalidAccountInput
		}
		patch.Balance = &parsed
	}

	account, err := h.UpdateProfile.Execute(ctx, userID, accountID, patch)
	if err != nil {
		return httptransport.AccountView{}, err
	}
	return mapAccount(account), nil
}

func (h Handler) ListAccountsHandler(ctx context.Context, userID string) (httptransport.ListAccountsResponse, error) {
	accounts, err := h.ListAccounts.Execute(ctx, userID)
	if err != nil {
		return httptransport.ListAccountsResponse{}, err
	}

	views := make([]httptransport.AccountView, 0, len(accounts))
	for _, account := range accounts {
		views = append(views, mapAccount(account))
	}
	return httptransport.ListAccountsResponse{Accounts: views}, nil
}

func (h Handler) GetAccountHandler(ctx context.Context, userID, accountID string) (httptransport.AccountView, error) {
	account, err := h.GetAccount.Execute(ctx, userID, accountID)
	if err != nil {
		return httptransport.AccountView{}, err
	}
	return mapAccount(account), nil
}

// RefreshTokenHandler triggers a refresh for one owned account outside the
// worker schedule.
func (h Handler) RefreshTokenHandler(ctx context.Context, userID, accountID string) (httptransport.RefreshTokenResponse, error) {
	if _, err := h.GetAccount.Execute(ctx, userID, accountID); err != nil {
		return httptransport.RefreshTokenResponse{}, err
	}
	refreshed := h.Refresher.RefreshAccount(ctx, accountID)
	return httptransport.RefreshTokenResponse{Refreshed: refreshed}, nil
}

func mapAccount(account entities.Account) httptransport.AccountView {
	var limit *string
	if account.DailyLimit != nil {
		value := account.DailyLimit.StringFixed(2)
		limit = &value
	}
	return httptransport.AccountView{
		AccountID:      account.AccountID,
		UserID:         account.UserID,
		OpenID:         account.OpenID,
		UnionID:        account.UnionID,
		ActorID:        account.ActorID,
		Nickname:       account.Nickname,
		Avatar:         account.Avatar,
		FanCount:       account.FanCount,
		FollowingCount: account.FollowingCount,
		TotalFavorited: account.TotalFavorited,
		Status:         int(account.Status),
		DailyLimit:     limit,
		Balance:        account.Balance.StringFixed(2),
		Remark:         account.Remark,
		TokenExpiresAt: account.TokenExpiresAt.UTC().Format(time.RFC3339),
		CreatedAt:      account.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      account.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
