package models

import (
	"context"
	"time"

	"github.com/algocode/truebalance_backend/config"
	"github.com/algocode/truebalance_backend/utils"
)

// BankAccount is the statement-side identity of a bank or credit-card
// account; AccountId points at its ledger account.
type BankAccount struct {
	ID           int       `gorm:"primary_key" json:"id"`
	BusinessId   string    `gorm:"index;not null" json:"business_id"`
	Name         string    `gorm:"size:255;not null" json:"name" binding:"required"`
	AccountId    int       `gorm:"index;not null" json:"account_id" binding:"required"`
	IsCreditCard *bool     `gorm:"not null;default:0" json:"is_credit_card"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBankAccount struct {
	Name         string `json:"name" binding:"required"`
	AccountId    int    `json:"account_id" binding:"required"`
	IsCreditCard *bool  `json:"is_credit_card"`
}

func CreateBankAccount(ctx context.Context, input *NewBankAccount) (*BankAccount, error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[Account](ctx, businessId, input.AccountId); err != nil {
		return nil, wrapErr(ErrNotFound, "ledger account %d", input.AccountId)
	}

	isCreditCard := input.IsCreditCard
	if isCreditCard == nil {
		isCreditCard = utils.NewFalse()
	}
	bankAccount := BankAccount{
		BusinessId:   businessId,
		Name:         input.Name,
		AccountId:    input.AccountId,
		IsCreditCard: isCreditCard,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&bankAccount).Error; err != nil {
		return nil, err
	}
	return &bankAccount, nil
}

func GetBankAccount(ctx context.Context, id int) (*BankAccount, error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[BankAccount](ctx, businessId, id)
}
