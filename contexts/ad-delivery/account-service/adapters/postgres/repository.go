package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"adboost/contexts/ad-delivery/account-service/domain/entities"
	domainerrors "adboost/contexts/ad-delivery/account-service/domain/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateAccount(ctx context.Context, account entities.Account) error {
	row := accountModelFromEntity(account)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidAccountInput
		}
		return err
	}
	return nil
}

func (r *Repository) UpdateAccount(ctx context.Context, account entities.Account) error {
	row := accountModelFromEntity(account)
	result := r.db.WithContext(ctx).
		Model(&accountModel{}).
		Where("account_id = ?", row.AccountID).
		Updates(accountUpdatesFromModel(row))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrAccountNotFound
	}
	return nil
}

func (r *Repository) GetAccount(ctx context.Context, accountID string) (entities.Account, error) {
	var row accountModel
	err := r.db.WithContext(ctx).
		Where("account_id = ?", strings.TrimSpace(accountID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Account{}, domainerrors.ErrAccountNotFound
		}
		return entities.Account{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetOwnedAccount(ctx context.Context, accountID, userID string) (entities.Account, error) {
	var row accountModel
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND user_id = ?", strings.TrimSpace(accountID), strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Account{}, domainerrors.ErrAccountNotFound
		}
		return entities.Account{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetAccountByOpenID(ctx context.Context, userID, openID string) (entities.Account, bool, error) {
	var row accountModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND open_id = ?", strings.TrimSpace(userID), strings.TrimSpace(openID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Account{}, false, nil
		}
		return entities.Account{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListUserAccounts(ctx context.Context, userID string) ([]entities.Account, error) {
	var rows []accountModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("created_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	items := make([]entities.Account, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListExpiringAccounts(ctx context.Context, before time.Time) ([]entities.Account, error) {
	var rows []accountModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND token_expires_at <= ?", int(entities.StatusActive), before.UTC()).
		Order("token_expires_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	items := make([]entities.Account, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type accountModel struct {
	AccountID string `gorm:"column:account_id;primaryKey"`
	UserID    string `gorm:"column:user_id;index:idx_accounts_user_open,unique"`
	OpenID    string `gorm:"column:open_id;index:idx_accounts_user_open,unique"`
	UnionID   string `gorm:"column:union_id"`
	ActorID   string `gorm:"column:actor_id"`

	Nickname       string `gorm:"column:nickname"`
	Avatar         string `gorm:"column:avatar"`
	FanCount       int64  `gorm:"column:fan_count"`
	FollowingCount int64  `gorm:"column:following_count"`
	TotalFavorited int64  `gorm:"column:total_favorited"`

	Status     int              `gorm:"column:status;index"`
	DailyLimit *decimal.Decimal `gorm:"column:daily_limit;type:numeric(12,2)"`
	Balance    decimal.Decimal  `gorm:"column:balance;type:numeric(12,2)"`
	Remark     string           `gorm:"column:remark"`

	EncryptedAccessToken  string    `gorm:"column:access_token"`
	EncryptedRefreshToken string    `gorm:"column:refresh_token"`
	TokenExpiresAt        time.Time `gorm:"column:token_expires_at;index"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (accountModel) TableName() string {
	return "boost_accounts"
}

func accountModelFromEntity(item entities.Account) accountModel {
	return accountModel{
		AccountID:             strings.TrimSpace(item.AccountID),
		UserID:                strings.TrimSpace(item.UserID),
		OpenID:                strings.TrimSpace(item.OpenID),
		UnionID:               item.UnionID,
		ActorID:               item.ActorID,
		Nickname:              item.Nickname,
		Avatar:                item.Avatar,
		FanCount:              item.FanCount,
		FollowingCount:        item.FollowingCount,
		TotalFavorited:        item.TotalFavorited,
		Status:                int(item.Status),
		DailyLimit:            item.DailyLimit,
		Balance:               item.Balance,
		Remark:                item.Remark,
		EncryptedAccessToken:  item.EncryptedAccessToken,
		EncryptedRefreshToken: item.EncryptedRefreshToken,
		TokenExpiresAt:        item.TokenExpiresAt.UTC(),
		CreatedAt:             item.CreatedAt.UTC(),
		UpdatedAt:             item.UpdatedAt.UTC(),
	}
}

func accountUpdatesFromModel(row accountModel) map[string]any {
	return map[string]any{
		"union_id":         row.UnionID,
		"actor_id":         row.ActorID,
		"nickname":         row.Nickname,
		"avatar":           row.Avatar,
		"fan_count":        row.FanCount,
		"following_count":  row.FollowingCount,
		"total_favorited":  row.TotalFavorited,
		"status":           row.Status,
		"daily_limit":      row.DailyLimit,
		"balance":          row.Balance,
		"remark":           row.Remark,
		"access_token":     row.EncryptedAccessToken,
		"refresh_token":    row.EncryptedRefreshToken,
		"token_expires_at": row.TokenExpiresAt,
		"updated_at":       row.UpdatedAt,
	}
}

func (m accountModel) toEntity() entities.Account {
	return entities.Account{
		AccountID:             m.AccountID,
		UserID:                m.UserID,
		OpenID:                m.OpenID,
		UnionID:               m.UnionID,
		ActorID:               m.ActorID,
		Nickname:              m.Nickname,
		Avatar:                m.Avatar,
		FanCount:              m.FanCount,
		FollowingCount:        m.FollowingCount,
		TotalFavorited:        m.TotalFavorited,
		Status:                entities.AccountStatus(m.Status),
		DailyLimit:            m.DailyLimit,
		Balance:               m.Balance,
		Remark:                m.Remark,
		EncryptedAccessToken:  m.EncryptedAccessToken,
		EncryptedRefreshToken: m.EncryptedRefreshToken,
		TokenExpiresAt:        m.TokenExpiresAt.UTC(),
		CreatedAt:             m.CreatedAt.UTC(),
		UpdatedAt:             m.UpdatedAt.UTC(),
	}
}
