package models

import (
	"context"
	"time"

	"github.com/algocode/truebalance_backend/config"
	"github.com/algocode/truebalance_backend/utils"
	"gorm.io/gorm"
)

type Account struct {
	ID           int               `gorm:"primary_key" json:"id"`
	BusinessId   string            `gorm:"index;not null" json:"business_id"`
	Name         string            `gorm:"size:255;not null" json:"name" binding:"required"`
	Code         string            `gorm:"size:50" json:"code"`
	DetailType   AccountDetailType `gorm:"not null;type:enum('Bank','Cash','Receivable','Clearing','Other');default:'Other'" json:"detail_type"`
	CurrencyCode string            `gorm:"size:10" json:"currency_code"`
	IsActive     *bool             `gorm:"not null;default:1" json:"is_active"`
	CreatedAt    time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAccount struct {
	Name         string            `json:"name" binding:"required"`
	Code         string            `json:"code"`
	DetailType   AccountDetailType `json:"detail_type"`
	CurrencyCode string            `json:"currency_code"`
}

func CreateAccount(ctx context.Context, input *NewAccount) (*Account, error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return nil, err
	}

	account := Account{
		BusinessId:   businessId,
		Name:         input.Name,
		Code:         input.Code,
		DetailType:   input.DetailType,
		CurrencyCode: input.CurrencyCode,
		IsActive:     utils.NewTrue(),
	}
	if account.DetailType == "" {
		account.DetailType = AccountDetailTypeOther
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func GetAccount(ctx context.Context, id int) (*Account, error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Account](ctx, businessId, id)
}

// GetSettlementAccount resolves the bank/cash side of an engine-created
// payment: the first active Bank account of the business, else the first
// active Cash account, else nil (the caller falls back to a journal
// settlement).
func GetSettlementAccount(ctx context.Context, businessId string) (*Account, error) {
	db := config.GetDB()
	for _, detailType := range []AccountDetailType{AccountDetailTypeBank, AccountDetailTypeCash} {
		var account Account
		err := db.WithContext(ctx).
			Where("business_id = ? AND detail_type = ? AND is_active = 1", businessId, detailType).
			Order("id asc").
			First(&account).Error
		if err == nil {
			return &account, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}
	return nil, nil
}
