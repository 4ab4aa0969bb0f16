package models

import (
	"context"
	"errors"
	"time"

	"github.com/algocode/truebalance_backend/config"
	"github.com/google/uuid"
)

type Business struct {
	ID                         uuid.UUID `gorm:"type:char(36);primary_key" json:"id"`
	Name                       string    `gorm:"size:255;not null" json:"name" binding:"required"`
	Email                      string    `gorm:"size:100" json:"email"`
	BaseCurrencyCode           string    `gorm:"size:10;default:'MMK'" json:"base_currency_code"`
	DefaultReceivableAccountId int       `json:"default_receivable_account_id"`
	DefaultModeOfPayment       string    `gorm:"size:100" json:"default_mode_of_payment"`
	// day window for the transfer mirror search; 0 falls back to 4
	TransferMatchDays int       `gorm:"default:4" json:"transfer_match_days"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBusiness struct {
	Name                 string `json:"name" binding:"required"`
	Email                string `json:"email"`
	BaseCurrencyCode     string `json:"base_currency_code"`
	DefaultModeOfPayment string `json:"default_mode_of_payment"`
	TransferMatchDays    int    `json:"transfer_match_days"`
}

func CreateBusiness(ctx context.Context, input *NewBusiness) (*Business, error) {
	business := Business{
		ID:                   uuid.New(),
		Name:                 input.Name,
		Email:                input.Email,
		BaseCurrencyCode:     input.BaseCurrencyCode,
		DefaultModeOfPayment: input.DefaultModeOfPayment,
		TransferMatchDays:    input.TransferMatchDays,
	}
	if business.BaseCurrencyCode == "" {
		business.BaseCurrencyCode = "MMK"
	}
	if business.TransferMatchDays <= 0 {
		business.TransferMatchDays = 4
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&business).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// every business gets a receivable control account
	receivable := Account{
		BusinessId:   business.ID.String(),
		Name:         "Accounts Receivable",
		Code:         "1200",
		DetailType:   AccountDetailTypeReceivable,
		CurrencyCode: business.BaseCurrencyCode,
	}
	if err := tx.WithContext(ctx).Create(&receivable).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Model(&business).
		Update("DefaultReceivableAccountId", receivable.ID).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	business.DefaultReceivableAccountId = receivable.ID

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &business, nil
}

func GetBusinessById(ctx context.Context, businessId string) (*Business, error) {
	db := config.GetDB()
	var business Business
	if err := db.WithContext(ctx).Where("id = ?", businessId).First(&business).Error; err != nil {
		return nil, wrapErr(ErrNotFound, "business %s", businessId)
	}
	return &business, nil
}

func GetBusiness(ctx context.Context) (*Business, error) {
	businessId, ok := businessIdFromContext(ctx)
	if !ok {
		return nil, errors.New("business id is required")
	}
	return GetBusinessById(ctx, businessId)
}
