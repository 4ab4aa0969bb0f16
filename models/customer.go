package models

import (
	"context"
	"time"

	"github.com/algocode/truebalance_backend/config"
	"github.com/algocode/truebalance_backend/utils"
)

type Customer struct {
	ID         int    `gorm:"primary_key" json:"id"`
	BusinessId string `gorm:"index;not null" json:"business_id"`
	Name       string `gorm:"size:255;not null" json:"name" binding:"required"`
	// overrides the business default receivable account when set
	ReceivableAccountId int       `gorm:"default:0" json:"receivable_account_id"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name                string `json:"name" binding:"required"`
	ReceivableAccountId int    `json:"receivable_account_id"`
}

type PartyDetails struct {
	PartyName      string `json:"party_name"`
	PartyAccountId int    `json:"party_account_id"`
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	if input.ReceivableAccountId > 0 {
		if err := utils.ValidateResourceId[Account](ctx, businessId, input.ReceivableAccountId); err != nil {
			return nil, wrapErr(ErrNotFound, "receivable account %d", input.ReceivableAccountId)
		}
	}

	customer := Customer{
		BusinessId:          businessId,
		Name:                input.Name,
		ReceivableAccountId: input.ReceivableAccountId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Customer](ctx, businessId, id)
}

// GetPartyReceivableAccount resolves the receivable account that clears this
// party's balance: the customer's own account when configured, otherwise the
// business default.
func GetPartyReceivableAccount(ctx context.Context, businessId string, customerId int) (int, error) {
	customer, err := utils.FetchModel[Customer](ctx, businessId, customerId)
	if err != nil {
		return 0, wrapErr(ErrNotFound, "customer %d", customerId)
	}
	if customer.ReceivableAccountId > 0 {
		return customer.ReceivableAccountId, nil
	}
	business, err := GetBusinessById(ctx, businessId)
	if err != nil {
		return 0, err
	}
	if business.DefaultReceivableAccountId == 0 {
		return 0, wrapErr(ErrConfiguration, "no receivable account for customer %d", customerId)
	}
	return business.DefaultReceivableAccountId, nil
}

func GetPartyDetails(ctx context.Context, customerId int) (*PartyDetails, error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	customer, err := utils.FetchModel[Customer](ctx, businessId, customerId)
	if err != nil {
		return nil, wrapErr(ErrNotFound, "customer %d", customerId)
	}
	accountId, err := GetPartyReceivableAccount(ctx, businessId, customerId)
	if err != nil {
		return nil, err
	}
	return &PartyDetails{PartyName: customer.Name, PartyAccountId: accountId}, nil
}
